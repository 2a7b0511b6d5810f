package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/ownership"

	"github.com/google/uuid"
)

// view implements every store interface over one state. It does no locking;
// Store and Run decide which state it sees.
type view struct {
	st  *state
	now func() time.Time
}

func (v *view) Exchanges() exchange.Repository { return v }
func (v *view) Ledger() ownership.Ledger       { return v }

func (v *view) present(r record) exchange.Exchange {
	e := r.ex
	if e.Status == exchange.StatusPending {
		e.CounterpartyID = v.st.holdings[e.RequestedISBN].userID
	}
	return e
}

func (v *view) Insert(ctx context.Context, e *exchange.Exchange) error {
	now := v.now()
	e.ID = uuid.NewString()
	e.Status = exchange.StatusPending
	e.CounterpartyID = ""
	e.Resolution = exchange.ResolutionNone
	e.ActedBy = ""
	e.CreatedAt = now
	e.UpdatedAt = now

	v.st.seq++
	v.st.exchanges[e.ID] = record{ex: *e, seq: v.st.seq}
	return nil
}

func (v *view) GetByID(ctx context.Context, id string) (exchange.Exchange, error) {
	r, ok := v.st.exchanges[id]
	if !ok {
		return exchange.Exchange{}, exchange.ErrNotFound
	}
	return v.present(r), nil
}

func (v *view) GetForUpdate(ctx context.Context, id string) (exchange.Exchange, error) {
	r, ok := v.st.exchanges[id]
	if !ok {
		return exchange.Exchange{}, exchange.ErrNotFound
	}
	return r.ex, nil
}

func (v *view) ListFor(ctx context.Context, userID string, f exchange.ListFilter) ([]exchange.Exchange, int, error) {
	if f.Limit <= 0 {
		f.Limit = exchange.DefaultListLimit
	}

	var matched []record
	for _, r := range v.st.exchanges {
		e := v.present(r)
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		isInitiator := e.InitiatorID == userID
		isCounterparty := e.CounterpartyID == userID && !isInitiator
		switch f.Role {
		case exchange.RoleInitiator:
			if !isInitiator {
				continue
			}
		case exchange.RoleCounterparty:
			if !isCounterparty {
				continue
			}
		default:
			if !isInitiator && !isCounterparty {
				continue
			}
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.ex.CreatedAt.Equal(b.ex.CreatedAt) {
			return a.ex.CreatedAt.After(b.ex.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	out := []exchange.Exchange{}
	for i := f.Offset; i < total && len(out) < f.Limit; i++ {
		if i < 0 {
			continue
		}
		out = append(out, v.present(matched[i]))
	}
	return out, total, nil
}

func (v *view) UpdateStatus(ctx context.Context, id string, expected exchange.Status, s exchange.Settlement) (bool, error) {
	r, ok := v.st.exchanges[id]
	if !ok || r.ex.Status != expected {
		return false, nil
	}
	r.ex.Status = s.To
	r.ex.Resolution = s.Resolution
	r.ex.ActedBy = s.ActedBy
	if s.CounterpartyID != "" {
		r.ex.CounterpartyID = s.CounterpartyID
	}
	r.ex.UpdatedAt = v.now()
	v.st.exchanges[id] = r
	return true, nil
}

func (v *view) HolderOf(ctx context.Context, isbn string) (string, error) {
	return v.st.holdings[isbn].userID, nil
}

func (v *view) HoldersOf(ctx context.Context, isbns ...string) (map[string]string, error) {
	out := make(map[string]string, len(isbns))
	for _, isbn := range isbns {
		if h, ok := v.st.holdings[isbn]; ok {
			out[isbn] = h.userID
		}
	}
	return out, nil
}

func (v *view) Holds(ctx context.Context, userID, isbn string) (bool, error) {
	h, ok := v.st.holdings[isbn]
	return ok && h.userID == userID, nil
}

func (v *view) Transfer(ctx context.Context, isbn, from, to string) error {
	h, ok := v.st.holdings[isbn]
	if !ok || h.userID != from {
		return ownership.ErrStaleHolder
	}
	v.st.holdings[isbn] = holding{userID: to, acquiredAt: v.now()}
	return nil
}

func (v *view) ListByUser(ctx context.Context, userID string) ([]ownership.Holding, error) {
	out := []ownership.Holding{}
	for isbn, h := range v.st.holdings {
		if h.userID != userID {
			continue
		}
		out = append(out, ownership.Holding{
			ISBN:       isbn,
			Title:      v.st.books[isbn].Title,
			UserID:     h.userID,
			AcquiredAt: h.acquiredAt,
		})
	}
	slices.SortFunc(out, func(a, b ownership.Holding) int {
		if c := b.AcquiredAt.Compare(a.AcquiredAt); c != 0 {
			return c
		}
		return strings.Compare(a.ISBN, b.ISBN)
	})
	return out, nil
}

func (v *view) Add(ctx context.Context, userID, isbn string) (ownership.Holding, error) {
	b, ok := v.st.books[isbn]
	if !ok {
		return ownership.Holding{}, catalog.ErrBookNotFound
	}
	if _, held := v.st.holdings[isbn]; held {
		return ownership.Holding{}, ownership.ErrAlreadyHeld
	}
	h := holding{userID: userID, acquiredAt: v.now()}
	v.st.holdings[isbn] = h
	return ownership.Holding{ISBN: isbn, Title: b.Title, UserID: userID, AcquiredAt: h.acquiredAt}, nil
}

func (v *view) Remove(ctx context.Context, userID, isbn string) error {
	h, ok := v.st.holdings[isbn]
	if !ok || h.userID != userID {
		return ownership.ErrNotInCollection
	}
	delete(v.st.holdings, isbn)
	return nil
}

func (v *view) GetByISBN(ctx context.Context, isbn string) (catalog.Book, error) {
	b, ok := v.st.books[isbn]
	if !ok {
		return catalog.Book{}, catalog.ErrBookNotFound
	}
	return b, nil
}

func (v *view) Exists(ctx context.Context, isbn string) (bool, error) {
	_, ok := v.st.books[isbn]
	return ok, nil
}
