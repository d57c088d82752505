package gateway

import (
	"context"

	"go.uber.org/zap"

	"threatconsole/internal/metrics"
)

type Provenance int

const (
	ProvenancePrimary Provenance = iota
	ProvenanceFallback
)

func (p Provenance) String() string {
	if p == ProvenanceFallback {
		return "fallback"
	}
	return "primary"
}

// Result is a value tagged with where it came from.
type Result[T any] struct {
	Value      T
	Provenance Provenance
}

func (r Result[T]) FromFallback() bool {
	return r.Provenance == ProvenanceFallback
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// DataSource reads from Primary and, when that fails, from Fallback. The
// fallback is a degrade-to-demo-data path, not a retry: authentication and
// authorization failures are returned as-is and never answered by the
// fallback.
type DataSource[T any] struct {
	Name     string
	Primary  FetchFunc[T]
	Fallback FetchFunc[T]
	Log      *zap.SugaredLogger
}

func (d DataSource[T]) Fetch(ctx context.Context) (Result[T], error) {
	v, err := d.Primary(ctx)
	if err == nil {
		return Result[T]{Value: v, Provenance: ProvenancePrimary}, nil
	}
	if d.Fallback == nil || IsUnauthorized(err) || IsForbidden(err) || ctx.Err() != nil {
		return Result[T]{}, err
	}

	if d.Log != nil {
		d.Log.Debugw("Primary source failed, probing fallback", "source", d.Name, "error", err)
	}
	fv, ferr := d.Fallback(ctx)
	if ferr != nil {
		if d.Log != nil {
			d.Log.Debugw("Fallback source failed", "source", d.Name, "error", ferr)
		}
		if IsUnauthorized(ferr) {
			return Result[T]{}, ferr
		}
		return Result[T]{}, err
	}

	metrics.GatewayFallbackTotal.WithLabelValues(d.Name).Inc()
	return Result[T]{Value: fv, Provenance: ProvenanceFallback}, nil
}
