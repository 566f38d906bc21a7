package entitlement

// Machine-readable denial codes surfaced to the route layer.
const (
	CodeUpgradeRequired = "upgrade_required"
)

// Error is a typed entitlement denial carrying an HTTP-style status,
// a machine code, and a human message. It is an expected, user-facing
// outcome, distinct from infrastructure failures, so the route layer can
// render an upgrade prompt instead of a retry hint.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	return e.Message
}
