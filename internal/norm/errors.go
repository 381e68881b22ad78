package norm

import "errors"

var (
	// ErrInvalidParameter reports a non-positive hidden size or epsilon
	// at construction.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrShapeMismatch reports disagreeing input, weight, or residual
	// dimensions. Shapes are never truncated or padded to fit.
	ErrShapeMismatch = errors.New("shape mismatch")
)
