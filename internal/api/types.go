package api

import "github.com/samcharles93/normkit/internal/tensor"

// NormalizeRequest is a one-shot kernel execution, used by parity
// harnesses that compare this implementation against another runtime.
// Input is a flattened [rows, hidden_size] buffer; values are rounded
// into the requested storage dtype before normalization.
type NormalizeRequest struct {
	HiddenSize int       `json:"hidden_size"`
	Eps        *float32  `json:"eps,omitempty"`
	DType      string    `json:"dtype,omitempty"`
	Backend    string    `json:"backend,omitempty"`
	Input      []float32 `json:"input"`
	Weight     []float32 `json:"weight,omitempty"`
	Residual   []float32 `json:"residual,omitempty"`
}

type NormalizeResponse struct {
	ID       string    `json:"id"`
	Object   string    `json:"object"`
	Backend  string    `json:"backend"`
	DType    string    `json:"dtype"`
	Output   []float32 `json:"output"`
	Residual []float32 `json:"residual,omitempty"`
}

// CompareResponse carries the outputs of the reference and fused backends
// for the same request, plus difference statistics between them.
type CompareResponse struct {
	ID        string           `json:"id"`
	Object    string           `json:"object"`
	DType     string           `json:"dtype"`
	Reference []float32        `json:"reference"`
	Fused     []float32        `json:"fused"`
	Stats     tensor.DiffStats `json:"stats"`
}

type BackendInfo struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	Available bool   `json:"available"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
