package experiment

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/san-kum/oceansim/internal/bathymetry"
)

// Registry resolves a grid path to the provider able to decode it.
type Registry struct {
	providers map[string]func(path string, vars bathymetry.Variables) bathymetry.Provider
}

func NewRegistry() *Registry {
	r := &Registry{
		providers: make(map[string]func(string, bathymetry.Variables) bathymetry.Provider),
	}

	netcdf := func(path string, vars bathymetry.Variables) bathymetry.Provider {
		return bathymetry.NewNetCDF(path, vars)
	}
	r.providers[".nc"] = netcdf
	r.providers[".nc4"] = netcdf
	r.providers[".cdf"] = netcdf

	return r
}

// Provider returns nil for an empty path, which selects the built-in basin.
func (r *Registry) Provider(path string, vars bathymetry.Variables) (bathymetry.Provider, error) {
	if path == "" {
		return nil, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := r.providers[ext]
	if !ok {
		return nil, fmt.Errorf("experiment: no bathymetry provider for %q (known: %s)",
			ext, strings.Join(r.ListFormats(), ", "))
	}
	return fn(path, vars), nil
}

func (r *Registry) ListFormats() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
