package tensor

// Vec is a flat activation buffer with an explicit storage precision.
// F32 data is held directly; F16 and BF16 hold raw bit patterns and are
// promoted to float32 on read, rounded on write. Reads and writes go
// through the storage precision, so a Set followed by an At observes the
// rounded value.
type Vec struct {
	dt   DType
	f32  []float32
	bits []uint16
}

// New allocates a zeroed Vec of n elements with the given storage dtype.
func New(dt DType, n int) *Vec {
	v := &Vec{dt: dt}
	if dt == F32 {
		v.f32 = make([]float32, n)
	} else {
		v.bits = make([]uint16, n)
	}
	return v
}

// FromFloat32 builds a Vec by rounding vals into the given storage dtype.
func FromFloat32(dt DType, vals []float32) *Vec {
	v := New(dt, len(vals))
	v.SetFloat32(vals)
	return v
}

// DType returns the storage precision.
func (v *Vec) DType() DType { return v.dt }

// Len returns the number of elements.
func (v *Vec) Len() int {
	if v.dt == F32 {
		return len(v.f32)
	}
	return len(v.bits)
}

// At returns element i promoted to float32.
func (v *Vec) At(i int) float32 {
	switch v.dt {
	case F32:
		return v.f32[i]
	case F16:
		return fp16ToF32(v.bits[i])
	default:
		return bf16ToF32(v.bits[i])
	}
}

// Set stores f at index i, rounding to the storage precision.
func (v *Vec) Set(i int, f float32) {
	switch v.dt {
	case F32:
		v.f32[i] = f
	case F16:
		v.bits[i] = fp16FromF32(f)
	default:
		v.bits[i] = bf16FromF32(f)
	}
}

// Float32 promotes the whole buffer into dst, which is allocated when nil
// or too small, and returns the filled slice.
func (v *Vec) Float32(dst []float32) []float32 {
	n := v.Len()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	switch v.dt {
	case F32:
		copy(dst, v.f32)
	case F16:
		for i, u := range v.bits {
			dst[i] = fp16ToF32(u)
		}
	default:
		for i, u := range v.bits {
			dst[i] = bf16ToF32(u)
		}
	}
	return dst
}

// SetFloat32 rounds src into the buffer. Lengths must match.
func (v *Vec) SetFloat32(src []float32) {
	if len(src) != v.Len() {
		panic("tensor: SetFloat32 length mismatch")
	}
	switch v.dt {
	case F32:
		copy(v.f32, src)
	case F16:
		for i, f := range src {
			v.bits[i] = fp16FromF32(f)
		}
	default:
		for i, f := range src {
			v.bits[i] = bf16FromF32(f)
		}
	}
}

// Clone returns a deep copy with the same dtype and contents.
func (v *Vec) Clone() *Vec {
	c := New(v.dt, v.Len())
	if v.dt == F32 {
		copy(c.f32, v.f32)
	} else {
		copy(c.bits, v.bits)
	}
	return c
}

// Data32 exposes the backing float32 slice for F32 vectors. The second
// return is false for 16-bit dtypes, where no such view exists.
func (v *Vec) Data32() ([]float32, bool) {
	if v.dt != F32 {
		return nil, false
	}
	return v.f32, true
}

// Ones returns an all-ones Vec, the initial state of a learned norm weight.
func Ones(dt DType, n int) *Vec {
	v := New(dt, n)
	for i := 0; i < n; i++ {
		v.Set(i, 1)
	}
	return v
}

// Add adds src to dst element-wise. Used by the reference residual path.
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}
