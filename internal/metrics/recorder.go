// Package metrics provides observability hooks for content resolution and
// update propagation. Components receive a Recorder through dependency
// injection; NoopRecorder is the default so metrics stay optional.
package metrics

// Recorder defines the metrics operations used by the pipeline and the
// propagation bus. Implementations must tolerate nil receivers so optional
// injection needs no nil checks at call sites.
type Recorder interface {
	IncResolution(provenance string) // provenance: stored|scraped|fallback
	IncExtractionTier(tier string)
	IncPersistenceFailure()
	IncEventPublished()
	IncEventDropped(reason string) // reason: stale|decode|foreign
	IncCacheInvalidation()
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncResolution(string)     {}
func (NoopRecorder) IncExtractionTier(string) {}
func (NoopRecorder) IncPersistenceFailure()   {}
func (NoopRecorder) IncEventPublished()       {}
func (NoopRecorder) IncEventDropped(string)   {}
func (NoopRecorder) IncCacheInvalidation()    {}
