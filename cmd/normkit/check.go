package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/normkit/internal/backend"
	"github.com/samcharles93/normkit/internal/logger"
	"github.com/samcharles93/normkit/internal/norm"
	"github.com/samcharles93/normkit/internal/tensor"
)

func checkCmd() *cli.Command {
	var (
		rows      int64
		tolerance float64
	)

	flags := append([]cli.Flag{}, commonKernelFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "rows",
			Usage:       "number of batch rows per case",
			Value:       4,
			Destination: &rows,
		},
		&cli.Float64Flag{
			Name:        "tolerance",
			Usage:       "maximum allowed absolute difference",
			Value:       1e-4,
			Destination: &tolerance,
		},
	)

	return &cli.Command{
		Name:  "check",
		Usage: "Verify a kernel backend against the reference path",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg, err := loadConfig()
			if err != nil {
				log.Warn("config file ignored", "error", err)
			}
			applyKernelConfig(cmd, cfg)

			kernels, resolved, err := backend.Select(backendName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if kernels == nil {
				return cli.Exit("error: the reference backend has nothing to check against; use --backend fused", 1)
			}
			dt, err := tensor.ParseDType(dtypeName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			h := int(hiddenSize)
			n := h * int(rows)
			rng := rand.New(rand.NewSource(seed))
			x := make([]float32, n)
			r := make([]float32, n)
			for i := range x {
				x[i] = (rng.Float32() - 0.5) * 4
				r[i] = (rng.Float32() - 0.5) * 4
			}
			w := make([]float32, h)
			for i := range w {
				w[i] = (rng.Float32() - 0.5) * 2
			}

			run := func(k norm.Kernels, withResidual bool) ([]float32, error) {
				var opts []norm.Option
				if k != nil {
					opts = append(opts, norm.WithKernels(k))
				}
				rn, err := norm.New(h, float32(epsValue), opts...)
				if err != nil {
					return nil, err
				}
				if err := rn.SetWeight(tensor.FromFloat32(tensor.F32, w)); err != nil {
					return nil, err
				}
				var residual *tensor.Vec
				if withResidual {
					residual = tensor.FromFloat32(dt, r)
				}
				res, err := rn.Forward(tensor.FromFloat32(dt, x), residual)
				if err != nil {
					return nil, err
				}
				return res.Output.Float32(nil), nil
			}

			fmt.Printf("backend=%s hidden=%d rows=%d dtype=%s eps=%g seed=%d\n",
				resolved, h, rows, dt, epsValue, seed)

			failed := false
			for _, tc := range []struct {
				name     string
				residual bool
			}{
				{name: "rms_norm", residual: false},
				{name: "fused_add_rms_norm", residual: true},
			} {
				ref, err := run(nil, tc.residual)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: reference %s: %v", tc.name, err), 1)
				}
				got, err := run(kernels, tc.residual)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %s %s: %v", resolved, tc.name, err), 1)
				}
				stats := tensor.Diff(ref, got)
				status := "ok"
				if stats.MaxAbs > tolerance {
					status = "FAIL"
					failed = true
				}
				fmt.Printf("%-20s max_abs=%.6g mean_abs=%.6g rmse=%.6g cos=%.6g %s\n",
					tc.name, stats.MaxAbs, stats.MeanAbs, stats.RMSE, stats.Cosine, status)
			}
			if failed {
				return cli.Exit(fmt.Sprintf("parity check failed (tolerance %g)", tolerance), 1)
			}
			return nil
		},
	}
}
