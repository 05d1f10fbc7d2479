package strategy

import "errors"

var (
	// ErrNoTargetAvailable: no food, or no opponent left to hunt.
	ErrNoTargetAvailable = errors.New("no target available")
	// ErrTargetUnreachable: the search found no path of at least two nodes.
	ErrTargetUnreachable = errors.New("target unreachable")
	// ErrNoPolicyAction: the learned policy has nothing for the state.
	ErrNoPolicyAction = errors.New("no policy action")
	// ErrInvalidActionVector: a step that is not one of the four unit moves.
	ErrInvalidActionVector = errors.New("invalid action vector")
)

// ErrorKind returns a stable label for err, suitable for logs and metric
// labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoTargetAvailable):
		return "no_target"
	case errors.Is(err, ErrTargetUnreachable):
		return "unreachable"
	case errors.Is(err, ErrNoPolicyAction):
		return "no_policy_action"
	case errors.Is(err, ErrInvalidActionVector):
		return "invalid_action_vector"
	}
	return "unknown"
}
