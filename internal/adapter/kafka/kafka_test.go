package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/pier-dxv-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	batches [][]kafkago.Message
	fails   int
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("leader not available")
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testRun() *domain.Run {
	return &domain.Run{
		ID:         "run-1",
		ScourRun:   "Bridge Scour",
		FinishedAt: time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC),
	}
}

func testResults(n int) []domain.PierResult {
	out := make([]domain.PierResult, n)
	for i := range out {
		out[i] = domain.PierResult{PierArcID: "ArcID 7", PierNode: domain.ArcNodeID("ID " + string(rune('a'+i))), ModelNode: "1", DxV: 12}
	}
	return out
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSerializeToMessage(t *testing.T) {
	run := testRun()
	result := domain.PierResult{
		PierArcID: "ArcID 7",
		PierNode:  "ID 10",
		ModelNode: "1",
		DxV:       12,
		Depth:     3,
		Velocity:  4,
	}

	msg, err := serializeToMessage(run, result)
	require.NoError(t, err)

	assert.Equal(t, []byte("ID 10"), msg.Key)
	assert.Contains(t, string(msg.Value), `"pier_arc_id":"ArcID 7"`)
	assert.Contains(t, string(msg.Value), `"model_node":"1"`)
	assert.NotContains(t, string(msg.Value), `"geo"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "run_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[0].Value)
	assert.Equal(t, "scour_run", msg.Headers[1].Key)
	assert.Equal(t, []byte("Bridge Scour"), msg.Headers[1].Value)
	assert.Equal(t, "produced_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-04-26T15:10:00Z"), msg.Headers[2].Value)
}

func TestLoadBatch_Chunks(t *testing.T) {
	fw := &fakeWriter{}
	w := newWriter(fw, 2, discard())

	require.NoError(t, w.LoadBatch(context.Background(), testRun(), testResults(5)))

	require.Len(t, fw.batches, 3)
	assert.Len(t, fw.batches[0], 2)
	assert.Len(t, fw.batches[2], 1)
}

func TestLoadBatch_Empty(t *testing.T) {
	fw := &fakeWriter{}
	w := newWriter(fw, 2, discard())

	require.NoError(t, w.LoadBatch(context.Background(), testRun(), nil))
	assert.Empty(t, fw.batches)
}

func TestLoadBatch_RetriesTransientFailure(t *testing.T) {
	fw := &fakeWriter{fails: 1}
	w := newWriter(fw, 10, discard())

	require.NoError(t, w.LoadBatch(context.Background(), testRun(), testResults(2)))
	assert.Len(t, fw.batches, 1)
}

func TestLoadBatch_CancelledDuringBackoff(t *testing.T) {
	fw := &fakeWriter{fails: maxAttempts}
	w := newWriter(fw, 10, discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.LoadBatch(ctx, testRun(), testResults(1))
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "run-1")
}

func TestWriter_Close(t *testing.T) {
	fw := &fakeWriter{}
	w := newWriter(fw, 0, discard())
	require.NoError(t, w.Close())
	assert.True(t, fw.closed)
}
