package tensor

import (
	"fmt"
	"math"

	"github.com/x448/float16"
)

// DType identifies the storage precision of a Vec.
type DType int

const (
	F32 DType = iota
	F16
	BF16
)

func (dt DType) String() string {
	switch dt {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case BF16:
		return "bf16"
	default:
		return fmt.Sprintf("dtype(%d)", int(dt))
	}
}

// ElemSize returns the storage size of one element in bytes.
func (dt DType) ElemSize() int {
	if dt == F32 {
		return 4
	}
	return 2
}

// ParseDType maps a dtype name to its DType. The empty string means F32.
func ParseDType(s string) (DType, error) {
	switch s {
	case "", "f32", "fp32", "float32":
		return F32, nil
	case "f16", "fp16", "float16":
		return F16, nil
	case "bf16", "bfloat16":
		return BF16, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q (expected f32, f16, or bf16)", s)
	}
}

// bf16Table maps every possible BF16 bit-pattern to float32.
var bf16Table = func() [1 << 16]float32 {
	var tbl [1 << 16]float32
	for i := range tbl {
		tbl[i] = math.Float32frombits(uint32(i) << 16)
	}
	return tbl
}()

// fp16Table maps every possible FP16 bit-pattern to float32.
var fp16Table = func() [1 << 16]float32 {
	var tbl [1 << 16]float32
	for i := range tbl {
		tbl[i] = float16.Frombits(uint16(i)).Float32()
	}
	return tbl
}()

func bf16ToF32(u uint16) float32 {
	return bf16Table[u]
}

// bf16FromF32 rounds to nearest-even on the truncated 16 bits.
func bf16FromF32(f float32) uint16 {
	u := math.Float32bits(f)
	rnd := uint32(0x7FFF + ((u >> 16) & 1))
	return uint16((u + rnd) >> 16)
}

func fp16ToF32(u uint16) float32 {
	return fp16Table[u]
}

func fp16FromF32(f float32) uint16 {
	return float16.Fromfloat32(f).Bits()
}
