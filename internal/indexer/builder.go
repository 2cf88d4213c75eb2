package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/feed"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
)

// BuildStats reports what a Build did.
type BuildStats struct {
	Source    string        `json:"source"`
	Documents int           `json:"documents"`
	Truncated bool          `json:"truncated"`
	Duration  time.Duration `json:"duration"`
}

// Build ingests every document of src and then finalizes the statistics.
// Ingestion stops quietly at capacity; records past it are not validated. A feed failure or a document that
// fails validation aborts the build before the statistics pass; documents
// ingested so far stay in the engine, which stays un-finalized.
func (e *Engine) Build(ctx context.Context, src feed.Source) (BuildStats, error) {
	start := time.Now()
	stats := BuildStats{Source: src.Name()}
	v := validator.New(index.Addressing{
		PartitionOffset: e.cfg.PartitionOffset,
		Marker:          e.cfg.PartitionMarker[0],
	}, e.cfg.Capacity)

	truncate := func() error {
		stats.Truncated = true
		e.logger.Warn("document capacity reached, ignoring rest of feed",
			"capacity", e.cfg.Capacity,
		)
		return feed.ErrStop
	}

	e.logger.Info("indexing", "source", stats.Source, "capacity", e.cfg.Capacity)
	err := src.Each(ctx, func(doc ingestion.Document) error {
		if e.full() {
			return truncate()
		}
		if err := v.Validate(doc); err != nil {
			return err
		}
		if err := e.IngestDocument(doc.ID, doc.Name, doc.Text); err != nil {
			if errors.Is(err, apperrors.ErrCapacityReached) {
				return truncate()
			}
			return err
		}
		stats.Documents++
		return nil
	})
	if err != nil {
		e.logger.Error("index build aborted", "source", stats.Source, "documents", stats.Documents, "error", err)
		return stats, fmt.Errorf("building index from %s: %w", stats.Source, err)
	}
	if err := e.FinalizeStatistics(); err != nil {
		return stats, fmt.Errorf("finalizing statistics: %w", err)
	}
	stats.Duration = time.Since(start)
	e.logger.Info("index build complete",
		"source", stats.Source,
		"documents", stats.Documents,
		"truncated", stats.Truncated,
		"duration", stats.Duration,
	)
	return stats, nil
}

// Observe publishes the outcome of a build. It is safe to call with a failed
// build; the index then reports not ready.
func (e *Engine) Observe(m *metrics.Metrics, stats BuildStats) {
	if m == nil {
		return
	}
	s := e.Stats()
	m.DocsIndexedTotal.Add(float64(stats.Documents))
	m.IndexBuildDuration.Set(stats.Duration.Seconds())
	m.VocabularySize.Set(float64(s.Terms))
	if s.Ready {
		m.IndexReady.Set(1)
	} else {
		m.IndexReady.Set(0)
	}
}
