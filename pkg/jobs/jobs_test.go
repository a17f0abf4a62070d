package jobs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/WaveringAna/wisp/pkg/errors"
)

// collector is a listener accumulating events thread-safely
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) listen(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestJobLifecycle(t *testing.T) {
	r := New(TerminalDelay(10 * time.Millisecond))

	job := r.Create("did:plc:w1sp", "site", 3)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, PhaseValidating, job.Progress.Phase)
	assert.Equal(t, 3, job.Progress.TotalFiles)

	var c collector
	unsub, err := r.Subscribe(job.ID, c.listen)
	require.NoError(t, err)
	defer unsub()

	for i, phase := range []Phase{PhaseValidating, PhaseCompressing, PhaseUploading} {
		i := i
		phase := phase
		require.NoError(t, r.UpdateProgress(job.ID, func(p *Progress) {
			p.Phase = phase
			p.FilesProcessed = i + 1
		}))
	}

	got, ok := r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, PhaseUploading, got.Progress.Phase)
	assert.Equal(t, 3, got.Progress.FilesProcessed)

	result := Result{URI: "at://did:plc:w1sp/place.wisp.fs/site", FileCount: 3, Uploaded: 2, Reused: 1}
	require.NoError(t, r.Complete(job.ID, result))

	got, ok = r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, PhaseDone, got.Progress.Phase)

	waitFor(t, func() bool {
		events := c.snapshot()
		return len(events) > 0 && events[len(events)-1].Type == EventDone
	})

	events := c.snapshot()
	last := events[len(events)-1]
	require.NotNil(t, last.Job.Result)
	assert.Equal(t, result, *last.Job.Result)

	// the done event follows the progress frames
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, EventProgress, ev.Type)
	}
}

func TestJobFailureReachesSubscribers(t *testing.T) {
	r := New(TerminalDelay(5 * time.Millisecond))
	job := r.Create("did:plc:w1sp", "site", 1)

	var c collector
	_, err := r.Subscribe(job.ID, c.listen)
	require.NoError(t, err)

	require.NoError(t, r.Fail(job.ID, "record store unavailable"))

	waitFor(t, func() bool {
		events := c.snapshot()
		return len(events) > 0 && events[len(events)-1].Type == EventError
	})

	events := c.snapshot()
	last := events[len(events)-1]
	assert.Equal(t, StatusFailed, last.Job.Status)
	assert.Equal(t, "record store unavailable", last.Job.Error)
}

func TestJobTTLExpiry(t *testing.T) {
	r := New(TTL(20 * time.Millisecond))
	job := r.Create("did:plc:w1sp", "site", 1)

	// completion does not cancel the TTL
	require.NoError(t, r.Complete(job.ID, Result{}))

	waitFor(t, func() bool {
		_, ok := r.Get(job.ID)
		return !ok
	})

	err := r.Update(job.ID, func(j *Job) { j.Error = "late" })
	assert.True(t, werrors.Is(err, ErrJobNotFound))
}

func TestListenerIsolation(t *testing.T) {
	r := New()
	job := r.Create("did:plc:w1sp", "site", 1)

	var good1, good2 collector
	var badCalls int
	var mu sync.Mutex

	_, err := r.Subscribe(job.ID, good1.listen)
	require.NoError(t, err)
	_, err = r.Subscribe(job.ID, func(Event) error {
		mu.Lock()
		defer mu.Unlock()
		badCalls++
		return errors.New("connection reset")
	})
	require.NoError(t, err)
	_, err = r.Subscribe(job.ID, good2.listen)
	require.NoError(t, err)

	require.NoError(t, r.UpdateProgress(job.ID, func(p *Progress) { p.FilesProcessed = 1 }))

	// all three saw the first broadcast
	assert.Len(t, good1.snapshot(), 1)
	assert.Len(t, good2.snapshot(), 1)
	mu.Lock()
	assert.Equal(t, 1, badCalls)
	mu.Unlock()

	// the failing listener is pruned, the rest keep receiving
	require.NoError(t, r.UpdateProgress(job.ID, func(p *Progress) { p.FilesProcessed = 2 }))
	assert.Len(t, good1.snapshot(), 2)
	assert.Len(t, good2.snapshot(), 2)
	mu.Lock()
	assert.Equal(t, 1, badCalls)
	mu.Unlock()
}

func TestUnsubscribeRemovesOnlyThatListener(t *testing.T) {
	r := New()
	job := r.Create("did:plc:w1sp", "site", 1)

	var kept, removed collector
	_, err := r.Subscribe(job.ID, kept.listen)
	require.NoError(t, err)
	unsub, err := r.Subscribe(job.ID, removed.listen)
	require.NoError(t, err)

	unsub()

	require.NoError(t, r.UpdateProgress(job.ID, func(p *Progress) { p.FilesProcessed = 1 }))
	assert.Len(t, kept.snapshot(), 1)
	assert.Empty(t, removed.snapshot())
}

func TestSubscribeUnknownJob(t *testing.T) {
	r := New()
	_, err := r.Subscribe("nope", func(Event) error { return nil })
	assert.True(t, werrors.Is(err, ErrJobNotFound))
}

func TestClockDrivesTimestamps(t *testing.T) {
	fixed := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	r := New(Clock(func() time.Time { return fixed }))

	job := r.Create("did:plc:w1sp", "site", 1)
	assert.Equal(t, fixed, job.CreatedAt)
	assert.Equal(t, fixed, job.UpdatedAt)
}
