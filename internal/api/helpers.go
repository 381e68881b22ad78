package api

import (
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/normkit/internal/norm"
	"github.com/samcharles93/normkit/internal/tensor"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var v T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("decode request: %w", err)
	}
	return v, nil
}

// buildNorm constructs the normalizer a request describes. The weight, when
// present, is installed at f32 precision; otherwise the all-ones default
// stands.
func buildNorm(req NormalizeRequest, kernels norm.Kernels) (*norm.RMSNorm, error) {
	eps := norm.DefaultEps
	if req.Eps != nil {
		eps = *req.Eps
	}
	var opts []norm.Option
	if kernels != nil {
		opts = append(opts, norm.WithKernels(kernels))
	}
	n, err := norm.New(req.HiddenSize, eps, opts...)
	if err != nil {
		return nil, err
	}
	if req.Weight != nil {
		if err := n.SetWeight(tensor.FromFloat32(tensor.F32, req.Weight)); err != nil {
			return nil, err
		}
	}
	return n, nil
}
