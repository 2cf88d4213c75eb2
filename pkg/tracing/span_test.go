package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
)

func TestRootSpanUsesRequestID(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")
	_, span := StartSpan(ctx, "GET /api/v1/search")
	assert.Equal(t, "req-1", span.TraceID)

	_, other := StartSpan(context.Background(), "job")
	assert.NotEmpty(t, other.TraceID)
}

func TestChildSpansLinkToParent(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "root")
	cctx, child := StartChildSpan(ctx, "rank")
	_, grandchild := StartChildSpan(cctx, "score")

	require.Len(t, root.Children(), 1)
	assert.Same(t, child, root.Children()[0])
	assert.Same(t, grandchild, child.Children()[0])
	assert.Equal(t, root.TraceID, grandchild.TraceID)
	assert.Same(t, child, FromContext(cctx))
}

func TestOrphanChild(t *testing.T) {
	_, s := StartChildSpan(context.Background(), "rank")
	s.End()
	assert.Empty(t, s.TraceID)
	assert.Nil(t, FromContext(context.Background()))
}

func TestEndIsIdempotent(t *testing.T) {
	_, s := StartSpan(context.Background(), "root")
	time.Sleep(2 * time.Millisecond)
	s.End()
	d := s.Duration
	time.Sleep(2 * time.Millisecond)
	s.End()
	assert.Equal(t, d, s.Duration)
	assert.Positive(t, d)
}

func TestLogWritesTree(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, root := StartSpan(context.Background(), "root")
	_, child := StartChildSpan(ctx, "rank")
	child.SetAttr("candidates", 3)
	child.End()
	root.End()
	root.Log(ctx, l)

	out := buf.String()
	assert.Contains(t, out, "span=root")
	assert.Contains(t, out, "span=rank")
	assert.Contains(t, out, "candidates=3")
	assert.Contains(t, out, "depth=1")
}
