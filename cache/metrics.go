package cache

// Metrics exposes cache-level observability hooks.
// Implementations used with Sharded must be safe for concurrent use.
//
// Hit and Miss count lookups (Find, Get) only. Set reports neither, even
// when it updates an existing key, so a hit ratio reflects reads.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()     {}
func (NoopMetrics) Miss()    {}
func (NoopMetrics) Evict()   {}
func (NoopMetrics) Size(int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
