package main

import (
	"context"
	"os"
	"runtime"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"

	"github.com/samcharles93/normkit/internal/backend"
	"github.com/samcharles93/normkit/internal/backend/fused"
)

type featuresOutput struct {
	GoVersion string          `json:"go_version"`
	GoOS      string          `json:"go_os"`
	GoArch    string          `json:"go_arch"`
	CPUs      int             `json:"cpus"`
	Features  map[string]bool `json:"features"`
	Fused     bool            `json:"fused_supported"`
	Backends  string          `json:"backends"`
}

func featuresCmd() *cli.Command {
	return &cli.Command{
		Name:  "features",
		Usage: "Print host SIMD features and backend availability",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			features := map[string]bool{}
			switch runtime.GOARCH {
			case "amd64":
				features["SSE41"] = cpu.X86.HasSSE41
				features["AVX"] = cpu.X86.HasAVX
				features["AVX2"] = cpu.X86.HasAVX2
				features["FMA"] = cpu.X86.HasFMA
				features["AVX512F"] = cpu.X86.HasAVX512F
				features["AVX512VNNI"] = cpu.X86.HasAVX512VNNI
			case "arm64":
				features["ASIMD"] = cpu.ARM64.HasASIMD
				features["FP"] = cpu.ARM64.HasFP
				features["SVE"] = cpu.ARM64.HasSVE
			}

			out := featuresOutput{
				GoVersion: runtime.Version(),
				GoOS:      runtime.GOOS,
				GoArch:    runtime.GOARCH,
				CPUs:      runtime.NumCPU(),
				Features:  features,
				Fused:     fused.Supported(),
				Backends:  backend.Available(),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
