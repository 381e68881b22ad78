// normdiff compares two raw activation dump files and reports difference
// statistics. Dumps are little-endian element streams in f32, f16, or bf16,
// as produced by kernel debug hooks in other runtimes.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/samcharles93/normkit/internal/tensor"
)

func main() {
	var (
		aPath     string
		bPath     string
		dtypeName string
		tolerance float64
	)

	flag.StringVar(&aPath, "a", "", "path to first dump")
	flag.StringVar(&bPath, "b", "", "path to second dump")
	flag.StringVar(&dtypeName, "dtype", "f32", "element dtype (f32, f16, bf16)")
	flag.Float64Var(&tolerance, "tolerance", 0, "fail when max_abs exceeds this (0 = report only)")
	flag.Parse()

	if aPath == "" || bPath == "" {
		fmt.Fprintln(os.Stderr, "-a and -b are required")
		os.Exit(2)
	}
	dt, err := tensor.ParseDType(dtypeName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	a, err := readDump(aPath, dt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", aPath, err)
		os.Exit(1)
	}
	b, err := readDump(bPath, dt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", bPath, err)
		os.Exit(1)
	}
	if len(a) != len(b) {
		fmt.Fprintf(os.Stderr, "length mismatch: %d vs %d elements\n", len(a), len(b))
		os.Exit(1)
	}

	stats := tensor.Diff(a, b)
	fmt.Printf("A=%s\n", aPath)
	fmt.Printf("B=%s\n", bPath)
	fmt.Printf("Summary dtype=%s len=%d max_abs=%.6g mean_abs=%.6g rmse=%.6g cos=%.6g\n",
		dt, stats.Length, stats.MaxAbs, stats.MeanAbs, stats.RMSE, stats.Cosine)

	if tolerance > 0 && stats.MaxAbs > tolerance {
		fmt.Fprintf(os.Stderr, "max_abs %.6g exceeds tolerance %.6g\n", stats.MaxAbs, tolerance)
		os.Exit(1)
	}
}

func readDump(path string, dt tensor.DType) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data)%dt.ElemSize() != 0 {
		return nil, fmt.Errorf("size %d is not a multiple of %d-byte %s elements", len(data), dt.ElemSize(), dt)
	}
	switch dt {
	case tensor.F32:
		out := make([]float32, len(data)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return out, nil
	case tensor.F16:
		out := make([]float32, len(data)/2)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		}
		return out, nil
	default:
		return bfloat16.DecodeFloat32(data), nil
	}
}
