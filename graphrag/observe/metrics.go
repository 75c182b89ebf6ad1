package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all GraphRAG metrics.
const meterName = "github.com/MrWong99/glyphoxa-graphrag"

// Metrics holds every OpenTelemetry metric instrument the engine records.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// ExtractDuration tracks SemanticClient.extractGraph latency.
	ExtractDuration metric.Float64Histogram

	// IngestDuration tracks a full InsertGraphData call (chunk to persisted).
	IngestDuration metric.Float64Histogram

	// SearchDuration tracks a full SearchGraph call (retrieve to answer).
	SearchDuration metric.Float64Histogram

	// CommunityRebuildDuration tracks RebuildCommunities latency.
	CommunityRebuildDuration metric.Float64Histogram

	// --- Counters ---

	// NodesCreated counts newly created nodes, by index.
	NodesCreated metric.Int64Counter

	// NodesMerged counts nodes resolved to an existing node (exact-name or
	// vector-identity merge), by index and merge kind.
	NodesMerged metric.Int64Counter

	// EdgesCreated counts edges inserted, by index.
	EdgesCreated metric.Int64Counter

	// EdgesMerged counts relationship-label merges performed by the edge
	// dedup pass or the property-graph adapter's insert-time merge.
	EdgesMerged metric.Int64Counter

	// OrphansRepaired counts orphan nodes that gained at least one edge via
	// AttemptConnectOrphan.
	OrphansRepaired metric.Int64Counter

	// --- Error counters ---

	// SemanticFailures counts SemanticClient call failures, by operation.
	SemanticFailures metric.Int64Counter

	// BackendRetries counts repository/vector-memory retry attempts, by
	// adapter and operation.
	BackendRetries metric.Int64Counter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM-call-bound graph operations rather than sub-millisecond request paths.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ExtractDuration, err = m.Float64Histogram("graphrag.extract.duration",
		metric.WithDescription("Latency of SemanticClient graph extraction per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.IngestDuration, err = m.Float64Histogram("graphrag.ingest.duration",
		metric.WithDescription("Latency of a full InsertGraphData call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchDuration, err = m.Float64Histogram("graphrag.search.duration",
		metric.WithDescription("Latency of a full SearchGraph call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CommunityRebuildDuration, err = m.Float64Histogram("graphrag.community_rebuild.duration",
		metric.WithDescription("Latency of RebuildCommunities."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.NodesCreated, err = m.Int64Counter("graphrag.nodes.created",
		metric.WithDescription("Total nodes created by index."),
	); err != nil {
		return nil, err
	}
	if met.NodesMerged, err = m.Int64Counter("graphrag.nodes.merged",
		metric.WithDescription("Total nodes resolved to an existing node, by merge kind."),
	); err != nil {
		return nil, err
	}
	if met.EdgesCreated, err = m.Int64Counter("graphrag.edges.created",
		metric.WithDescription("Total edges created by index."),
	); err != nil {
		return nil, err
	}
	if met.EdgesMerged, err = m.Int64Counter("graphrag.edges.merged",
		metric.WithDescription("Total relationship-label merges performed."),
	); err != nil {
		return nil, err
	}
	if met.OrphansRepaired, err = m.Int64Counter("graphrag.orphans.repaired",
		metric.WithDescription("Total orphan nodes that gained at least one edge."),
	); err != nil {
		return nil, err
	}

	if met.SemanticFailures, err = m.Int64Counter("graphrag.semantic.failures",
		metric.WithDescription("Total SemanticClient call failures, by operation."),
	); err != nil {
		return nil, err
	}
	if met.BackendRetries, err = m.Int64Counter("graphrag.backend.retries",
		metric.WithDescription("Total repository/vector-memory retry attempts, by adapter and operation."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordNodeMerge is a convenience method recording a node-merge counter
// increment with the standard attribute set.
func (m *Metrics) RecordNodeMerge(ctx context.Context, index, kind string) {
	m.NodesMerged.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("index", index),
			attribute.String("kind", kind),
		),
	)
}

// RecordSemanticFailure is a convenience method recording a SemanticClient
// failure counter increment.
func (m *Metrics) RecordSemanticFailure(ctx context.Context, operation string) {
	m.SemanticFailures.Add(ctx, 1,
		metric.WithAttributes(attribute.String("operation", operation)),
	)
}

// RecordBackendRetry is a convenience method recording a backend retry
// counter increment.
func (m *Metrics) RecordBackendRetry(ctx context.Context, adapter, operation string) {
	m.BackendRetries.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("adapter", adapter),
			attribute.String("operation", operation),
		),
	)
}
