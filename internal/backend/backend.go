package backend

import (
	"fmt"
	"strings"

	"github.com/samcharles93/normkit/internal/backend/fused"
	"github.com/samcharles93/normkit/internal/norm"
)

const (
	Reference = "reference"
	Fused     = "fused"
	Auto      = "auto"
)

// Normalize validates a backend name. The empty string means Auto.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Reference, Fused, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, reference, or fused)", backend)
	}
}

// Available returns a comma-separated list of usable backends.
func Available() string {
	entries := []string{Reference}
	if fused.Supported() {
		entries = append(entries, Fused)
	}
	return strings.Join(entries, ",")
}

// Select resolves a backend name to a kernel set and the name actually in
// effect. The reference backend is the nil kernel set: the normalizer's
// built-in path. Selection happens once at configuration time; Forward
// never re-probes the host.
func Select(name string) (norm.Kernels, string, error) {
	backend, err := Normalize(name)
	if err != nil {
		return nil, "", err
	}
	switch backend {
	case Fused:
		if !fused.Supported() {
			return nil, "", fmt.Errorf("fused backend is not supported on this host")
		}
		return fused.New(), Fused, nil
	case Auto:
		if fused.Supported() {
			return fused.New(), Fused, nil
		}
		return nil, Reference, nil
	default:
		return nil, Reference, nil
	}
}
