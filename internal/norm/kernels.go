package norm

import "github.com/samcharles93/normkit/internal/tensor"

// Kernels is the backend strategy for RMSNorm. An implementation offers
// fused versions of the normalization ops for storage layouts it knows how
// to handle. Each method returns true when it performed the operation;
// false means the caller must fall back to the reference path, which is
// always available and defines the numerical contract. Fused results may
// differ from the reference only by floating-point rounding.
type Kernels interface {
	Name() string

	// RMSNorm writes the normalized, weighted rows of x into out.
	// out and x have identical length and dtype; the row width is the
	// weight length.
	RMSNorm(out, x, weight *tensor.Vec, eps float32) bool

	// FusedAddRMSNorm adds residual into x row-wise, stores the sum back
	// into residual (the updated accumulator, in storage precision), and
	// writes the normalized, weighted sum into out.
	FusedAddRMSNorm(out, x, residual, weight *tensor.Vec, eps float32) bool
}
