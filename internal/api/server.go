package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/normkit/internal/backend"
	"github.com/samcharles93/normkit/internal/backend/fused"
	"github.com/samcharles93/normkit/internal/logger"
	"github.com/samcharles93/normkit/internal/norm"
	"github.com/samcharles93/normkit/internal/tensor"
)

// Server exposes the normalization kernels over HTTP for use by
// cross-implementation parity harnesses.
type Server struct {
	log logger.Logger
}

func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/backends", s.handleBackends)
	e.POST("/v1/normalize", s.handleNormalize)
	e.POST("/v1/normalize/compare", s.handleCompare)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBackends(c *echo.Context) error {
	data := []BackendInfo{
		{ID: backend.Reference, Object: "backend", Available: true},
		{ID: backend.Fused, Object: "backend", Available: fused.Supported()},
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

func (s *Server) handleNormalize(c *echo.Context) error {
	req, err := decodeJSON[NormalizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	kernels, backendName, err := backend.Select(req.Backend)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	dt, err := tensor.ParseDType(req.DType)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	n, err := buildNorm(req, kernels)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	x := tensor.FromFloat32(dt, req.Input)
	var residual *tensor.Vec
	if req.Residual != nil {
		residual = tensor.FromFloat32(dt, req.Residual)
	}
	res, err := n.Forward(x, residual)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	resp := NormalizeResponse{
		ID:      "norm-" + uuid.NewString(),
		Object:  "normalization",
		Backend: backendName,
		DType:   dt.String(),
		Output:  res.Output.Float32(nil),
	}
	if res.Residual != nil {
		resp.Residual = res.Residual.Float32(nil)
	}
	s.log.Debug("normalize", "id", resp.ID, "backend", backendName, "len", len(req.Input))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCompare(c *echo.Context) error {
	req, err := decodeJSON[NormalizeRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if !fused.Supported() {
		return writeError(c, http.StatusConflict, "backend_unavailable",
			"fused backend is not supported on this host")
	}
	dt, err := tensor.ParseDType(req.DType)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	run := func(kernels norm.Kernels) ([]float32, error) {
		n, err := buildNorm(req, kernels)
		if err != nil {
			return nil, err
		}
		x := tensor.FromFloat32(dt, req.Input)
		var residual *tensor.Vec
		if req.Residual != nil {
			residual = tensor.FromFloat32(dt, req.Residual)
		}
		res, err := n.Forward(x, residual)
		if err != nil {
			return nil, err
		}
		return res.Output.Float32(nil), nil
	}

	refOut, err := run(nil)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	fusedOut, err := run(fused.New())
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	resp := CompareResponse{
		ID:        "normcmp-" + uuid.NewString(),
		Object:    "normalization.comparison",
		DType:     dt.String(),
		Reference: refOut,
		Fused:     fusedOut,
		Stats:     tensor.Diff(refOut, fusedOut),
	}
	s.log.Debug("compare", "id", resp.ID, "max_abs", resp.Stats.MaxAbs)
	return c.JSON(http.StatusOK, resp)
}
