package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/normkit/internal/backend/fused"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	NewServer(nil).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestEcho(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestBackendsList(t *testing.T) {
	t.Parallel()
	rec := doJSON(t, newTestEcho(), http.MethodGet, "/v1/backends", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Object string        `json:"object"`
		Data   []BackendInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []BackendInfo{
		{ID: "reference", Object: "backend", Available: true},
		{ID: "fused", Object: "backend", Available: fused.Supported()},
	}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Errorf("backends mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeWorkedExample(t *testing.T) {
	t.Parallel()
	body := `{"hidden_size":4,"eps":1e-6,"backend":"reference","input":[2,2,2,2]}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/normalize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var resp NormalizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.ID, "norm-") {
		t.Errorf("id = %q", resp.ID)
	}
	if resp.Backend != "reference" || resp.DType != "f32" {
		t.Errorf("backend=%q dtype=%q", resp.Backend, resp.DType)
	}
	if resp.Residual != nil {
		t.Error("residual present without residual input")
	}
	v := float32(2 / math.Sqrt(4+1e-6))
	want := []float32{v, v, v, v}
	if diff := cmp.Diff(want, resp.Output, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeResidual(t *testing.T) {
	t.Parallel()
	body := `{"hidden_size":2,"input":[1,2],"residual":[3,4]}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/normalize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var resp NormalizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float32{4, 6}, resp.Residual); diff != "" {
		t.Errorf("residual mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Output) != 2 {
		t.Errorf("output length %d", len(resp.Output))
	}
}

func TestNormalizeRejectsBadRequests(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
	}{
		{name: "shape mismatch", body: `{"hidden_size":4,"input":[1,2,3]}`},
		{name: "residual shape", body: `{"hidden_size":2,"input":[1,2],"residual":[1]}`},
		{name: "weight shape", body: `{"hidden_size":2,"input":[1,2],"weight":[1,1,1]}`},
		{name: "zero eps", body: `{"hidden_size":2,"eps":0,"input":[1,2]}`},
		{name: "zero hidden", body: `{"hidden_size":0,"input":[]}`},
		{name: "bad dtype", body: `{"hidden_size":2,"dtype":"f64","input":[1,2]}`},
		{name: "bad backend", body: `{"hidden_size":2,"backend":"cuda","input":[1,2]}`},
		{name: "malformed json", body: `{"hidden_size":`},
	}
	e := newTestEcho()
	for _, tt := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/normalize", tt.body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d body=%s", tt.name, rec.Code, rec.Body.String())
			continue
		}
		var resp struct {
			Error ResponseError `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Errorf("%s: decode error envelope: %v", tt.name, err)
			continue
		}
		if resp.Error.Type != "invalid_request_error" || resp.Error.Message == "" {
			t.Errorf("%s: error envelope %+v", tt.name, resp.Error)
		}
	}
}

func TestCompareBackends(t *testing.T) {
	t.Parallel()
	if !fused.Supported() {
		t.Skip("fused backend not supported on this host")
	}
	body := `{"hidden_size":8,"input":[1,-2,3,-4,5,-6,7,-8]}`
	rec := doJSON(t, newTestEcho(), http.MethodPost, "/v1/normalize/compare", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	var resp CompareResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.ID, "normcmp-") {
		t.Errorf("id = %q", resp.ID)
	}
	if diff := cmp.Diff(resp.Reference, resp.Fused, cmpopts.EquateApprox(0, 1e-5)); diff != "" {
		t.Errorf("backends diverge (-ref +fused):\n%s", diff)
	}
	if resp.Stats.Length != 8 || resp.Stats.MaxAbs > 1e-5 {
		t.Errorf("stats %+v", resp.Stats)
	}
}
