// Package feed supplies the documents the index is built from. A Source
// walks its records in order and hands each one to a callback; returning an
// error from the callback stops the walk.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
)

// ErrStop ends a walk early without it being reported as a failure.
var ErrStop = errors.New("stop feed")

// Source is a document feed.
type Source interface {
	Each(ctx context.Context, fn func(ingestion.Document) error) error
	Name() string
}

// Open returns the Source selected by cfg.Kind.
func Open(cfg config.FeedConfig, kafkaCfg config.KafkaConfig) (Source, error) {
	switch cfg.Kind {
	case config.FeedXML:
		return NewXMLFile(cfg.Path), nil
	case config.FeedKafka:
		return NewKafkaTopic(kafkaCfg, cfg.IdleTimeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown feed kind %q", apperrors.ErrFeedUnavailable, cfg.Kind)
	}
}

// Slice is an in-memory Source, used by tests and small tools.
type Slice []ingestion.Document

func (s Slice) Each(ctx context.Context, fn func(ingestion.Document) error) error {
	for _, doc := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (s Slice) Name() string { return "memory" }
