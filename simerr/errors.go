// Package simerr implements the error kinds raised by the engine.
package simerr

import "errors"

// Sentinel errors for each abstract error kind the engine can raise.
// Callers compare against these with errors.Is, not with ==, since
// every operation wraps its sentinel in an *Error carrying the
// operation name.
var (
	ErrUnknownKey             = errors.New("unknown key")
	ErrUnknownAgent           = errors.New("unknown agent")
	ErrUnknownAction          = errors.New("unknown action")
	ErrUnknownSymbol          = errors.New("unknown symbol")
	ErrDuplicateDefinition    = errors.New("duplicate definition")
	ErrOutOfTurn              = errors.New("action supplied out of turn")
	ErrNoConsistentTransition = errors.New("no consistent transition")
	ErrStochasticFanout       = errors.New("more than one agent returned a stochastic decision")
	ErrAmbiguous              = errors.New("point query issued on a non-singleton distribution")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrNotYetImplemented      = errors.New("not yet implemented")
	ErrNoLegalActions         = errors.New("no legal actions")
	ErrInconsistentBeliefs    = errors.New("subjective belief state does not cover required keys")
)

// Error wraps a sentinel with the operation that raised it, mirroring
// the teacher's ExpReplayError{Op, Err} shape.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps sentinel err with the operation name op.
func New(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Is reports whether err (or anything it wraps) is the given sentinel.
func Is(err, sentinel error) bool {
	return errors.Is(err, sentinel)
}
