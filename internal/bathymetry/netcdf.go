package bathymetry

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/cdf"

	"github.com/san-kum/oceansim/internal/dynamo"
)

// Variables names the NetCDF variables to read. Empty names are detected
// from common GEBCO and GDAL spellings.
type Variables struct {
	Lat       string `yaml:"lat" json:"lat,omitempty"`
	Lon       string `yaml:"lon" json:"lon,omitempty"`
	Elevation string `yaml:"elevation" json:"elevation,omitempty"`
}

var (
	latNames       = []string{"lat", "latitude", "y"}
	lonNames       = []string{"lon", "longitude", "x"}
	elevationNames = []string{"elevation", "z", "depth", "Band1", "height"}
)

// NetCDF reads a classic-format NetCDF file such as a GEBCO grid subset.
type NetCDF struct {
	Path string
	Vars Variables
}

func NewNetCDF(path string, vars Variables) *NetCDF {
	return &NetCDF{Path: path, Vars: vars}
}

func (n *NetCDF) Decode(ctx context.Context) (*Decoded, error) {
	f, err := os.Open(n.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("netcdf %s: %w", n.Path, err)
	}

	names := ff.Header.Variables()
	latName, err := pick("latitude", n.Vars.Lat, names, latNames)
	if err != nil {
		return nil, err
	}
	lonName, err := pick("longitude", n.Vars.Lon, names, lonNames)
	if err != nil {
		return nil, err
	}
	elevName, err := pick("elevation", n.Vars.Elevation, names, elevationNames)
	if err != nil {
		return nil, err
	}

	lat, err := readVariable(ff, latName)
	if err != nil {
		return nil, err
	}
	lon, err := readVariable(ff, lonName)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lengths := ff.Header.Lengths(elevName)
	if len(lengths) != 2 {
		return nil, dynamo.Malformedf("%s has %d dimensions, want 2", elevName, len(lengths))
	}
	values, err := readVariable(ff, elevName)
	if err != nil {
		return nil, err
	}

	// Some writers store (lon, lat); bring it to row-major (lat, lon).
	dims := ff.Header.Dimensions(elevName)
	latDims := ff.Header.Dimensions(latName)
	if len(latDims) == 1 && dims[1] == latDims[0] && lengths[1] == len(lat) && lengths[0] == len(lon) {
		values = transpose(values, lengths[0], lengths[1])
	}

	if fill, ok := fillValue(ff, elevName); ok {
		for k, v := range values {
			if v == fill {
				values[k] = math.NaN()
			}
		}
	}

	elevation := elevName != "depth"
	if pos, ok := ff.Header.GetAttribute(elevName, "positive").(string); ok {
		elevation = !strings.EqualFold(strings.TrimSpace(pos), "down")
	}

	return &Decoded{
		Depth:     values,
		Lat:       lat,
		Lon:       lon,
		Coords:    Geographic,
		Elevation: elevation,
		Source:    filepath.Base(n.Path),
	}, nil
}

func pick(role, configured string, names, candidates []string) (string, error) {
	if configured != "" {
		for _, n := range names {
			if n == configured {
				return n, nil
			}
		}
		return "", dynamo.Malformedf("%s variable %q not in file", role, configured)
	}

	for _, c := range candidates {
		for _, n := range names {
			if strings.EqualFold(n, c) {
				return n, nil
			}
		}
	}
	return "", dynamo.Malformedf("no %s variable (tried %s)", role, strings.Join(candidates, ", "))
}

func readVariable(ff *cdf.File, name string) ([]float64, error) {
	lengths := ff.Header.Lengths(name)
	if len(lengths) == 0 {
		return nil, dynamo.Malformedf("variable %s has no dimensions", name)
	}
	n := 1
	for _, l := range lengths {
		n *= l
	}

	r := ff.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	values, err := toFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(values) != n {
		return nil, dynamo.Malformedf("%s has %d values, dimensions describe %d", name, len(values), n)
	}
	return values, nil
}

func fillValue(ff *cdf.File, name string) (float64, bool) {
	for _, attr := range []string{"_FillValue", "missing_value"} {
		v := ff.Header.GetAttribute(name, attr)
		if v == nil {
			continue
		}
		if vals, err := toFloat64s(v); err == nil && len(vals) > 0 {
			return vals[0], true
		}
	}
	return 0, false
}

func toFloat64s(v any) ([]float64, error) {
	switch t := v.(type) {
	case []float64:
		return append([]float64(nil), t...), nil
	case []float32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported element type %T", v)
	}
}

// transpose converts a rows by cols row-major slice to cols by rows.
func transpose(v []float64, rows, cols int) []float64 {
	out := make([]float64, len(v))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = v[r*cols+c]
		}
	}
	return out
}
