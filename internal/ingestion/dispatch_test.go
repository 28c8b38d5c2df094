package ingestion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph/graphrag/internal/models"
)

func TestInProcessDispatcher_RunsEnqueuedJob(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	d := newInProcessDispatcher(2, func(ctx context.Context, job ProcessProjectJob) {
		mu.Lock()
		seen = append(seen, job.SessionID)
		mu.Unlock()
	})
	defer d.close()

	require.NoError(t, d.enqueue(context.Background(), ProcessProjectJob{SessionID: "s1"}))
	require.NoError(t, d.enqueue(context.Background(), ProcessProjectJob{SessionID: "s2"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestInProcessDispatcher_DefaultsWorkerCount(t *testing.T) {
	d := newInProcessDispatcher(0, func(context.Context, ProcessProjectJob) {})
	defer d.close()
	require.NoError(t, d.enqueue(context.Background(), ProcessProjectJob{SessionID: "s"}))
}

func TestInProcessDispatcher_EnqueueRespectsCancellation(t *testing.T) {
	// An unbuffered channel with no draining goroutine guarantees enqueue can only proceed via
	// the ctx.Done() branch, avoiding any race with worker consumption.
	d := &inProcessDispatcher{jobs: make(chan ProcessProjectJob), done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := d.enqueue(ctx, ProcessProjectJob{SessionID: "blocked"})
	assert.Error(t, err)
}

func TestToWireFilesAndBack_RoundTrip(t *testing.T) {
	files := []models.SourceFile{
		{Path: "a.py", Content: "x = 1"},
		{Path: "b.py", Content: "y = 2"},
	}
	wire := toWireFiles(files)
	require.Len(t, wire, 2)
	assert.Equal(t, "a.py", wire[0].Path)

	back := fromWireFiles(wire)
	assert.Equal(t, files, back)
}
