// Package exchange implements two-party book barters.
//
// An exchange is created Pending and settles exactly once: accepted
// (Confirmed, with both books changing hands in the same transaction),
// refused by the counterparty, or cancelled by the initiator (both
// Cancelled). The counterparty is whoever currently holds the requested
// book; it is pinned on the record when the exchange settles.
package exchange

import (
	"strings"
	"time"

	"bookswap/internal/platform/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts a status in any letter case.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", apperr.Validation(apperr.CodeInvalidStatusFilter, "status must be one of PENDING, CONFIRMED, CANCELLED")
}

func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Resolution records how an exchange left Pending.
type Resolution string

const (
	ResolutionNone      Resolution = ""
	ResolutionAccepted  Resolution = "ACCEPTED"
	ResolutionRefused   Resolution = "REFUSED"
	ResolutionCancelled Resolution = "CANCELLED"
)

type Role string

const (
	RoleAny          Role = "any"
	RoleInitiator    Role = "initiator"
	RoleCounterparty Role = "counterparty"
)

// ParseRole maps an empty filter to RoleAny.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RoleAny, nil
	case RoleAny, RoleInitiator, RoleCounterparty:
		return r, nil
	}
	return "", apperr.Validation(apperr.CodeInvalidRoleFilter, "role must be one of initiator, counterparty, any")
}

type Action string

const (
	ActionAccept Action = "accept"
	ActionRefuse Action = "refuse"
	ActionCancel Action = "cancel"
)

type Exchange struct {
	ID            string `json:"id"`
	InitiatorID   string `json:"initiator_id"`
	OfferedISBN   string `json:"offered_isbn"`
	RequestedISBN string `json:"requested_isbn"`
	// CounterpartyID is the current holder of RequestedISBN while pending and
	// the pinned holder once settled. Empty when nobody holds the book.
	CounterpartyID string     `json:"counterparty_id,omitempty"`
	Status         Status     `json:"status"`
	Resolution     Resolution `json:"resolution,omitempty"`
	ActedBy        string     `json:"acted_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type ListFilter struct {
	Role   Role
	Status Status // empty matches every status
	Limit  int
	Offset int
}

func (f ListFilter) normalized() ListFilter {
	if f.Role == "" {
		f.Role = RoleAny
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

var (
	ErrNotFound             = apperr.NotFound(apperr.CodeExchangeNotFound, "exchange not found")
	ErrSameISBN             = apperr.Validation(apperr.CodeSameISBN, "offered and requested books must differ")
	ErrSelfBarter           = apperr.Validation(apperr.CodeSelfBarter, "you already hold the requested book")
	ErrOfferedNotHeld       = apperr.Conflict(apperr.CodeOfferedBookNotHeld, "you do not hold the offered book")
	ErrRequestedUnavailable = apperr.Conflict(apperr.CodeRequestedBookUnavailable, "requested book is not held by any member")
	ErrNotPending           = apperr.Conflict(apperr.CodeExchangeNotPending, "exchange no longer pending")
	ErrOfferedUnavailable   = apperr.Conflict(apperr.CodeOfferedBookUnavailable, "offered book no longer available")
	ErrConcurrentUpdate     = apperr.Conflict(apperr.CodeConcurrentUpdate, "exchange was modified concurrently")
	ErrNotCounterparty      = apperr.Forbidden(apperr.CodeNotCounterparty, "only the holder of the requested book may do this")
	ErrNotInitiator         = apperr.Forbidden(apperr.CodeNotInitiator, "only the initiator may cancel")
)
