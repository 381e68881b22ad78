package norm

import (
	"fmt"
	"math"

	"github.com/samcharles93/normkit/internal/tensor"
)

// DefaultEps is the variance epsilon used when a caller has no opinion.
const DefaultEps float32 = 1e-6

// RMSNorm performs root mean square normalization:
//
//	out = w * x / sqrt(mean(x^2) + eps)
//
// applied independently to each row of a flattened [rows, hidden] buffer.
// The learned weight is owned by an external loader or trainer; the
// normalizer only reads it during Forward.
type RMSNorm struct {
	hiddenSize int
	eps        float32
	weight     *tensor.Vec
	kernels    Kernels
}

// Option configures an RMSNorm at construction.
type Option func(*RMSNorm)

// WithKernels selects a fused kernel backend. The normalizer falls back to
// the reference path whenever the backend declines a call.
func WithKernels(k Kernels) Option {
	return func(n *RMSNorm) { n.kernels = k }
}

// New builds an RMSNorm over rows of hiddenSize elements. The weight is
// initialized to all ones. eps must be positive; DefaultEps is the usual
// choice.
func New(hiddenSize int, eps float32, opts ...Option) (*RMSNorm, error) {
	if hiddenSize <= 0 {
		return nil, fmt.Errorf("%w: hidden size %d must be positive", ErrInvalidParameter, hiddenSize)
	}
	if !(eps > 0) {
		return nil, fmt.Errorf("%w: eps %v must be positive", ErrInvalidParameter, eps)
	}
	n := &RMSNorm{
		hiddenSize: hiddenSize,
		eps:        eps,
		weight:     tensor.Ones(tensor.F32, hiddenSize),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// HiddenSize returns the row width of the normalized axis.
func (n *RMSNorm) HiddenSize() int { return n.hiddenSize }

// Eps returns the variance epsilon.
func (n *RMSNorm) Eps() float32 { return n.eps }

// Weight returns the current learned weight. Callers must not mutate it
// while a Forward call is in flight.
func (n *RMSNorm) Weight() *tensor.Vec { return n.weight }

// SetWeight installs a learned weight of length HiddenSize. The vector is
// retained by reference; updates remain under the caller's control.
func (n *RMSNorm) SetWeight(w *tensor.Vec) error {
	if w == nil || w.Len() != n.hiddenSize {
		got := 0
		if w != nil {
			got = w.Len()
		}
		return fmt.Errorf("%w: weight length %d, want hidden size %d", ErrShapeMismatch, got, n.hiddenSize)
	}
	n.weight = w
	return nil
}

func (n *RMSNorm) String() string {
	return fmt.Sprintf("RMSNorm(hidden_size=%d, eps=%g)", n.hiddenSize, n.eps)
}

// Result is the outcome of a Forward call. Residual is nil exactly when no
// residual was supplied; otherwise it is the caller's buffer, updated in
// place to input + residual in the input's storage precision, and is what
// the next layer must pass as its own residual.
type Result struct {
	Output   *tensor.Vec
	Residual *tensor.Vec
}

// Forward normalizes x, whose length must be a positive multiple of the
// hidden size. When residual is non-nil it must match x in length and
// dtype; the row sums x+residual are normalized instead, and the residual
// buffer is overwritten with those sums. The caller must own both buffers
// exclusively for the duration of the call. The output is freshly
// allocated with x's dtype.
func (n *RMSNorm) Forward(x, residual *tensor.Vec) (Result, error) {
	if err := n.checkShapes(x, residual); err != nil {
		return Result{}, err
	}
	out := tensor.New(x.DType(), x.Len())
	if residual != nil {
		if n.kernels == nil || !n.kernels.FusedAddRMSNorm(out, x, residual, n.weight, n.eps) {
			n.addNormRef(out, x, residual)
		}
		return Result{Output: out, Residual: residual}, nil
	}
	if n.kernels == nil || !n.kernels.RMSNorm(out, x, n.weight, n.eps) {
		n.normRef(out, x)
	}
	return Result{Output: out}, nil
}

func (n *RMSNorm) checkShapes(x, residual *tensor.Vec) error {
	if x == nil || x.Len() == 0 || x.Len()%n.hiddenSize != 0 {
		got := 0
		if x != nil {
			got = x.Len()
		}
		return fmt.Errorf("%w: input length %d is not a positive multiple of hidden size %d",
			ErrShapeMismatch, got, n.hiddenSize)
	}
	if n.weight.Len() != n.hiddenSize {
		return fmt.Errorf("%w: weight length %d, want hidden size %d",
			ErrShapeMismatch, n.weight.Len(), n.hiddenSize)
	}
	if residual != nil {
		if residual.Len() != x.Len() {
			return fmt.Errorf("%w: residual length %d, want input length %d",
				ErrShapeMismatch, residual.Len(), x.Len())
		}
		if residual.DType() != x.DType() {
			return fmt.Errorf("%w: residual dtype %v, want input dtype %v",
				ErrShapeMismatch, residual.DType(), x.DType())
		}
	}
	return nil
}

// normRef is the reference path without residual fusion.
func (n *RMSNorm) normRef(out, x *tensor.Vec) {
	h := n.hiddenSize
	work := make([]float32, h)
	for off := 0; off < x.Len(); off += h {
		promoteRow(work, x, off)
		n.normalizeRow(out, off, work)
	}
}

// addNormRef is the reference path with residual fusion: the promoted row
// sum is written back to the residual buffer in storage precision, then
// normalized. The variance sees the unrounded sum, matching the fused
// kernel contract.
func (n *RMSNorm) addNormRef(out, x, residual *tensor.Vec) {
	h := n.hiddenSize
	work := make([]float32, h)
	rwork := make([]float32, h)
	for off := 0; off < x.Len(); off += h {
		promoteRow(work, x, off)
		promoteRow(rwork, residual, off)
		tensor.Add(work, rwork)
		for i := 0; i < h; i++ {
			residual.Set(off+i, work[i])
		}
		n.normalizeRow(out, off, work)
	}
}

// normalizeRow writes the normalized, weighted row into out at off. The
// mean of squares accumulates in float64. The normalized value is rounded
// to out's storage precision before the weight multiply, and the product
// is rounded again; the ordering is part of the numerical contract and
// must not be collapsed into a single wide-precision multiply.
func (n *RMSNorm) normalizeRow(out *tensor.Vec, off int, work []float32) {
	var sum float64
	for _, v := range work {
		sum += float64(v) * float64(v)
	}
	inv := float32(1 / math.Sqrt(sum/float64(len(work))+float64(n.eps)))
	for i, v := range work {
		out.Set(off+i, v*inv)
		out.Set(off+i, out.At(off+i)*n.weight.At(i))
	}
}

func promoteRow(dst []float32, v *tensor.Vec, off int) {
	for i := range dst {
		dst[i] = v.At(off + i)
	}
}
