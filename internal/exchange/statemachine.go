package exchange

import "fmt"

// Facts are the freshly read inputs to a decision.
type Facts struct {
	Status         Status
	IsInitiator    bool
	HoldsRequested bool
}

// Transition is the outcome of a legal action.
type Transition struct {
	From       Status
	To         Status
	Resolution Resolution
	// Transfer is set when both books must change hands with the status.
	Transfer bool
}

type actor int

const (
	actorCounterparty actor = iota
	actorInitiator
)

type rule struct {
	actor      actor
	to         Status
	resolution Resolution
	transfer   bool
}

// Every action starts from Pending; terminal states have no way out.
var legalTransitions = map[Action]rule{
	ActionAccept: {actor: actorCounterparty, to: StatusConfirmed, resolution: ResolutionAccepted, transfer: true},
	ActionRefuse: {actor: actorCounterparty, to: StatusCancelled, resolution: ResolutionRefused},
	ActionCancel: {actor: actorInitiator, to: StatusCancelled, resolution: ResolutionCancelled},
}

// Decide returns the transition for action given f, or the reason it is not
// allowed. The status is checked before the actor so that replays of a
// settled action report a conflict rather than a permission error.
func Decide(f Facts, action Action) (Transition, error) {
	r, ok := legalTransitions[action]
	if !ok {
		return Transition{}, fmt.Errorf("unknown exchange action %q", action)
	}
	if f.Status != StatusPending {
		return Transition{}, ErrNotPending
	}

	switch r.actor {
	case actorCounterparty:
		if !f.HoldsRequested || f.IsInitiator {
			return Transition{}, ErrNotCounterparty
		}
	case actorInitiator:
		if !f.IsInitiator {
			return Transition{}, ErrNotInitiator
		}
	}

	return Transition{
		From:       f.Status,
		To:         r.to,
		Resolution: r.resolution,
		Transfer:   r.transfer,
	}, nil
}
