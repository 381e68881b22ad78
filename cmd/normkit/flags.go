package main

import "github.com/urfave/cli/v3"

var (
	backendName string
	dtypeName   string
	hiddenSize  int64
	epsValue    float64
	seed        int64
)

func commonKernelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "kernel backend (auto, reference, fused)",
			Value:       "auto",
			Destination: &backendName,
		},
		&cli.StringFlag{
			Name:        "dtype",
			Usage:       "activation storage dtype (f32, f16, bf16)",
			Value:       "f32",
			Destination: &dtypeName,
		},
		&cli.Int64Flag{
			Name:        "hidden",
			Aliases:     []string{"H"},
			Usage:       "hidden size (row width of the normalized axis)",
			Value:       4096,
			Destination: &hiddenSize,
		},
		&cli.Float64Flag{
			Name:        "eps",
			Usage:       "variance epsilon",
			Value:       1e-6,
			Destination: &epsValue,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for generated activations",
			Value:       42,
			Destination: &seed,
		},
	}
}
