//go:build !manifold

// Package manifold extrudes footprints with the Manifold C library. Without
// the "manifold" build tag only this stub is compiled, and projects that set
// "kernel: manifold" fail when the kernel is created.
//
// Build with: go build -tags=manifold
package manifold

import (
	"fmt"

	"github.com/chazu/plinth/pkg/kernel"
)

// New reports that this binary has no Manifold kernel.
func New() (kernel.Kernel, error) {
	return nil, fmt.Errorf("manifold: %w: kernel %q needs a binary built with -tags=manifold; use kernel: brep or kernel: sdfx instead",
		kernel.ErrUnsupported, "manifold")
}
