package ledger

import "fmt"

// RejectKind classifies why a transition was refused. The API facade maps
// each kind to an HTTP status without inspecting message text.
type RejectKind string

const (
	// KindNotFound: the entity identifier does not exist.
	KindNotFound RejectKind = "NOT_FOUND"
	// KindAlreadyInState: the transition is a no-op given the current state
	// ("you're late" — e.g. a second sign-out).
	KindAlreadyInState RejectKind = "ALREADY_IN_STATE"
	// KindConflict: another actor already holds the resource ("someone else
	// is using it" — e.g. checkout of an in-use or maintenance vehicle).
	KindConflict RejectKind = "CONFLICT"
	// KindOutOfRange: a payload value is outside sane bounds.
	KindOutOfRange RejectKind = "OUT_OF_RANGE"
	// KindImplausibleDelta: the odometer delta invariant was violated.
	KindImplausibleDelta RejectKind = "IMPLAUSIBLE_DELTA"
)

// Rejection is the typed refusal of a state transition. It is a value, not
// an exception: validators return it, the service propagates it unchanged,
// and no storage-engine error text ever leaks through it.
type Rejection struct {
	Kind         RejectKind `json:"kind"`
	Transition   string     `json:"transition"`
	EntityID     string     `json:"entityId,omitempty"`
	CurrentState string     `json:"currentState,omitempty"`
	Detail       string     `json:"detail"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s rejected (%s): %s", r.Transition, r.Kind, r.Detail)
}

func reject(kind RejectKind, transition, entityID, currentState, format string, args ...any) *Rejection {
	return &Rejection{
		Kind:         kind,
		Transition:   transition,
		EntityID:     entityID,
		CurrentState: currentState,
		Detail:       fmt.Sprintf(format, args...),
	}
}
