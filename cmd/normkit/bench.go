package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/normkit/internal/backend"
	"github.com/samcharles93/normkit/internal/norm"
	"github.com/samcharles93/normkit/internal/tensor"
)

type benchResult struct {
	Op      string  `json:"op"`
	Iters   int     `json:"iters"`
	NsPerOp float64 `json:"ns_per_op"`
	GBps    float64 `json:"gb_per_s"`
}

type benchReport struct {
	RunID   string        `json:"run_id"`
	GoOS    string        `json:"go_os"`
	GoArch  string        `json:"go_arch"`
	CPUs    int           `json:"cpus"`
	Backend string        `json:"backend"`
	DType   string        `json:"dtype"`
	Hidden  int           `json:"hidden"`
	Rows    int           `json:"rows"`
	Eps     float64       `json:"eps"`
	Results []benchResult `json:"results"`
}

func benchCmd() *cli.Command {
	var (
		rows    int64
		iters   int64
		warmup  int64
		jsonOut bool
	)

	flags := append([]cli.Flag{}, commonKernelFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "rows",
			Usage:       "number of batch rows",
			Value:       16,
			Destination: &rows,
		},
		&cli.Int64Flag{
			Name:        "iters",
			Usage:       "timed iterations per op",
			Value:       2000,
			Destination: &iters,
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "warmup iterations per op",
			Value:       100,
			Destination: &warmup,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "emit the report as JSON",
			Destination: &jsonOut,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Measure kernel throughput",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kernels, resolved, err := backend.Select(backendName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			dt, err := tensor.ParseDType(dtypeName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			h := int(hiddenSize)
			n := h * int(rows)
			var opts []norm.Option
			if kernels != nil {
				opts = append(opts, norm.WithKernels(kernels))
			}
			rn, err := norm.New(h, float32(epsValue), opts...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			rng := rand.New(rand.NewSource(seed))
			vals := make([]float32, n)
			for i := range vals {
				vals[i] = (rng.Float32() - 0.5) * 4
			}
			x := tensor.FromFloat32(dt, vals)
			residual := tensor.FromFloat32(dt, vals)
			bytesPerOp := float64(n * dt.ElemSize())

			report := benchReport{
				RunID:   uuid.NewString(),
				GoOS:    runtime.GOOS,
				GoArch:  runtime.GOARCH,
				CPUs:    runtime.NumCPU(),
				Backend: resolved,
				DType:   dt.String(),
				Hidden:  h,
				Rows:    int(rows),
				Eps:     epsValue,
			}

			ops := []struct {
				name     string
				residual *tensor.Vec
			}{
				{name: "rms_norm"},
				{name: "fused_add_rms_norm", residual: residual},
			}
			for _, op := range ops {
				for i := 0; i < int(warmup); i++ {
					if _, err := rn.Forward(x, op.residual); err != nil {
						return cli.Exit(fmt.Sprintf("error: %s: %v", op.name, err), 1)
					}
				}
				start := time.Now()
				for i := 0; i < int(iters); i++ {
					if _, err := rn.Forward(x, op.residual); err != nil {
						return cli.Exit(fmt.Sprintf("error: %s: %v", op.name, err), 1)
					}
				}
				elapsed := time.Since(start)
				nsPerOp := float64(elapsed.Nanoseconds()) / float64(iters)
				report.Results = append(report.Results, benchResult{
					Op:      op.name,
					Iters:   int(iters),
					NsPerOp: nsPerOp,
					GBps:    bytesPerOp / nsPerOp,
				})
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Printf("=== normkit bench %s ===\n", report.RunID)
			fmt.Printf("Backend:  %s\n", report.Backend)
			fmt.Printf("DType:    %s\n", report.DType)
			fmt.Printf("Shape:    %d x %d\n", report.Rows, report.Hidden)
			fmt.Printf("CPUs:     %d (GOMAXPROCS %d)\n", report.CPUs, runtime.GOMAXPROCS(0))
			fmt.Println()
			for _, r := range report.Results {
				fmt.Printf("%-20s %10.0f ns/op %8.2f GB/s\n", r.Op, r.NsPerOp, r.GBps)
			}
			return nil
		},
	}
}
