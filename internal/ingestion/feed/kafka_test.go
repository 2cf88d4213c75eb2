package feed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
)

func TestHandleFeedEvent(t *testing.T) {
	var got ingestion.Document
	handler := HandleFeedEvent(func(d ingestion.Document) error {
		got = d
		return nil
	})
	value, err := json.Marshal(ingestion.FeedEvent{Document: ingestion.Document{ID: "7", Name: "7.jpg", Text: "red"}})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), []byte("feed"), value))
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, "red", got.Text)
}

func TestHandleFeedEventErrors(t *testing.T) {
	handler := HandleFeedEvent(func(ingestion.Document) error { return nil })
	err := handler(context.Background(), nil, []byte("{not json"))
	assert.ErrorIs(t, err, apperrors.ErrFeedUnavailable)

	stop := HandleFeedEvent(func(ingestion.Document) error { return ErrStop })
	assert.ErrorIs(t, stop(context.Background(), nil, []byte(`{"document":{"id":"1"}}`)), kafka.ErrStop)

	boom := errors.New("boom")
	fail := HandleFeedEvent(func(ingestion.Document) error { return boom })
	assert.ErrorIs(t, fail(context.Background(), nil, []byte(`{"document":{"id":"1"}}`)), boom)
}

func TestOpen(t *testing.T) {
	src, err := Open(config.FeedConfig{Kind: config.FeedXML, Path: "feed.xml"}, config.KafkaConfig{})
	require.NoError(t, err)
	assert.Equal(t, "xml:feed.xml", src.Name())

	src, err = Open(config.FeedConfig{Kind: config.FeedKafka}, config.KafkaConfig{Topics: config.KafkaTopics{DocumentFeed: "docs"}})
	require.NoError(t, err)
	assert.Equal(t, "kafka:docs", src.Name())

	_, err = Open(config.FeedConfig{Kind: "csv"}, config.KafkaConfig{})
	assert.ErrorIs(t, err, apperrors.ErrFeedUnavailable)
}
