package bathymetry

import (
	"context"
	"fmt"
)

// Provider yields decoded bathymetry. Returning nil, nil signals that no
// data is available and the caller should fall back to the default basin.
type Provider interface {
	Decode(ctx context.Context) (*Decoded, error)
}

// Static serves an in-memory decoded grid.
type Static struct {
	Data *Decoded
}

func (s Static) Decode(ctx context.Context) (*Decoded, error) {
	if s.Data == nil {
		return nil, nil
	}
	d := *s.Data
	d.Depth = append([]float64(nil), s.Data.Depth...)
	d.Lat = append([]float64(nil), s.Data.Lat...)
	d.Lon = append([]float64(nil), s.Data.Lon...)
	return &d, nil
}

// Load resolves a provider into a validated grid.
func Load(ctx context.Context, p Provider) (*Grid, error) {
	if p == nil {
		return DefaultBasin(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d, err := p.Decode(ctx)
	if err != nil {
		return nil, fmt.Errorf("bathymetry: decode: %w", err)
	}
	if d == nil {
		return DefaultBasin(), nil
	}
	return New(d)
}
