package aggregation

import (
	"context"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/observability/telemetry"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

// ObjectDiscovery lists the object keys stored under a window's partition
// prefixes.
type ObjectDiscovery struct {
	store ports.ObjectStore
	log   *zap.Logger
}

func NewObjectDiscovery(store ports.ObjectStore, log *zap.Logger) *ObjectDiscovery {
	return &ObjectDiscovery{
		store: store,
		log:   log,
	}
}

// Discover lists every prefix in order and concatenates the results. A
// listing failure for one prefix is logged and counted, contributes zero
// keys, and never aborts the run. An empty result across all prefixes is a
// valid outcome, not an error.
func (d *ObjectDiscovery) Discover(ctx context.Context, prefixes []string) ([]string, int) {
	var keys []string
	failures := 0

	for _, prefix := range prefixes {
		listed, err := d.store.List(ctx, prefix)
		if err != nil {
			d.log.Warn("Failed to list partition prefix",
				zap.String("prefix", prefix),
				zap.Error(err),
			)
			telemetry.LoadFailuresTotal.WithLabelValues("list").Inc()
			failures++
			continue
		}
		keys = append(keys, listed...)
	}

	return keys, failures
}
