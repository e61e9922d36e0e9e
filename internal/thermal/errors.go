package thermal

import "errors"

var (
	// ErrInvalidAction is returned by Step for actions outside the action
	// space. Callers are expected to mask or clip before stepping.
	ErrInvalidAction = errors.New("thermal: action outside action space")

	// ErrInvalidConfig is returned by New for configurations that cannot run.
	ErrInvalidConfig = errors.New("thermal: invalid configuration")
)
