//go:build !geos

// Package geosops implements geom.Ops on top of the GEOS C library through
// github.com/paulsmith/gogeos. When the "geos" build tag is not set, this
// stub package is compiled instead, returning an error from New().
//
// Build with: go build -tags=geos
package geosops

import (
	"errors"

	"github.com/chazu/plinth/pkg/geom"
)

// New returns an error indicating GEOS is not available.
// Build with -tags=geos to enable.
func New() (geom.Ops, error) {
	return nil, errors.New("geos operations not available: build with -tags=geos")
}
