// Package fused provides single-pass add+normalize kernels for f32
// activations. The kernels implement the same contract as the reference
// path in internal/norm and may differ from it only by floating-point
// rounding; anything they cannot handle is declined so the caller falls
// back.
package fused

import (
	"math"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/samcharles93/normkit/internal/tensor"
)

// Supported reports whether the fused kernels are enabled for this host.
// The unrolled loops only pay off on cores with wide FMA units.
func Supported() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAVX2
	case "arm64":
		return true
	default:
		return false
	}
}

// Kernels implements norm.Kernels for f32 storage. Calls with 16-bit
// storage are declined: the storage-precision rounding sequence belongs to
// the reference path.
type Kernels struct{}

func New() *Kernels { return &Kernels{} }

func (*Kernels) Name() string { return "fused" }

func (*Kernels) RMSNorm(out, x, weight *tensor.Vec, eps float32) bool {
	dst, xs, ws, ok := f32Views(out, x, weight)
	if !ok {
		return false
	}
	h := len(ws)
	for off := 0; off < len(xs); off += h {
		normRow(dst[off:off+h], xs[off:off+h], ws, eps)
	}
	return true
}

func (*Kernels) FusedAddRMSNorm(out, x, residual, weight *tensor.Vec, eps float32) bool {
	dst, xs, ws, ok := f32Views(out, x, weight)
	if !ok {
		return false
	}
	rs, ok := residual.Data32()
	if !ok {
		return false
	}
	h := len(ws)
	for off := 0; off < len(xs); off += h {
		addNormRow(dst[off:off+h], xs[off:off+h], rs[off:off+h], ws, eps)
	}
	return true
}

func f32Views(out, x, weight *tensor.Vec) (dst, xs, ws []float32, ok bool) {
	if dst, ok = out.Data32(); !ok {
		return nil, nil, nil, false
	}
	if xs, ok = x.Data32(); !ok {
		return nil, nil, nil, false
	}
	if ws, ok = weight.Data32(); !ok {
		return nil, nil, nil, false
	}
	if len(ws) == 0 || len(xs)%len(ws) != 0 || len(dst) != len(xs) {
		return nil, nil, nil, false
	}
	return dst, xs, ws, true
}

// normRow normalizes one row with four partial accumulators for the sum of
// squares.
func normRow(dst, src, weight []float32, eps float32) {
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(src); i += 4 {
		s0 += src[i] * src[i]
		s1 += src[i+1] * src[i+1]
		s2 += src[i+2] * src[i+2]
		s3 += src[i+3] * src[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < len(src); i++ {
		sum += src[i] * src[i]
	}
	scale := invRMS(sum, len(src), eps)
	for i := range src {
		dst[i] = src[i] * scale * weight[i]
	}
}

// addNormRow adds residual into src in one pass, writes the sum back into
// residual, and normalizes it into dst.
func addNormRow(dst, src, residual, weight []float32, eps float32) {
	var sum float32
	for i := range src {
		v := src[i] + residual[i]
		residual[i] = v
		sum += v * v
	}
	scale := invRMS(sum, len(src), eps)
	for i := range residual {
		dst[i] = residual[i] * scale * weight[i]
	}
}

func invRMS(sumSquares float32, n int, eps float32) float32 {
	return float32(1 / math.Sqrt(float64(sumSquares/float32(n)+eps)))
}
