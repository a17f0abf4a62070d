// Package jobs tracks asynchronous upload jobs: a small state machine
// per job with live progress fanout to subscribers and TTL-based
// expiry. A Registry owns its jobs, clock and TTL policy; there is no
// package-level state, so several registries can coexist in one process
// and tests can run with their own timings.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/WaveringAna/wisp/pkg/errors"
)

// ErrJobNotFound is returned for operations on a missing or expired job
var ErrJobNotFound = errors.New("job not found")

// Status is the coarse lifecycle state of a job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusUploading  Status = "uploading"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further status transitions may occur
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Phase tracks the pipeline stage at a finer grain than Status
type Phase string

const (
	PhaseValidating       Phase = "validating"
	PhaseCompressing      Phase = "compressing"
	PhaseUploading        Phase = "uploading"
	PhaseCreatingManifest Phase = "creating_manifest"
	PhaseFinalizing       Phase = "finalizing"
	PhaseDone             Phase = "done"
)

// Progress is the live progress snapshot broadcast to subscribers
type Progress struct {
	FilesProcessed    int    `json:"filesProcessed"`
	TotalFiles        int    `json:"totalFiles"`
	FilesUploaded     int    `json:"filesUploaded"`
	FilesReused       int    `json:"filesReused"`
	CurrentFile       string `json:"currentFile,omitempty"`
	CurrentFileStatus string `json:"currentFileStatus,omitempty"`
	Phase             Phase  `json:"phase"`
}

// Result describes a completed upload
type Result struct {
	URI       string   `json:"uri"`
	FileCount int      `json:"fileCount"`
	Uploaded  int      `json:"uploaded"`
	Reused    int      `json:"reused"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Job is the tracked state of one upload request
type Job struct {
	ID        string    `json:"id"`
	DID       string    `json:"did"`
	SiteName  string    `json:"siteName"`
	Status    Status    `json:"status"`
	Progress  Progress  `json:"progress"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EventType names the events of a job's progress stream
type EventType string

const (
	// EventProgress carries a snapshot after every update
	EventProgress EventType = "progress"

	// EventDone is the terminal event of a completed job
	EventDone EventType = "done"

	// EventError is the terminal event of a failed job
	EventError EventType = "error"
)

// Event is one frame of a job's progress stream. Delivery is
// at-most-once: there is no replay for late subscribers.
type Event struct {
	Type EventType
	Job  Job
}

// Listener receives events for one job. A listener returning an error
// represents a disconnected subscriber and is pruned after the
// broadcast; other listeners are unaffected.
type Listener func(Event) error

type jobState struct {
	job          Job
	listeners    map[int]Listener
	nextListener int
	released     bool
}

// Registry owns upload jobs for one process
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*jobState

	now           func() time.Time
	ttl           time.Duration
	terminalDelay time.Duration
	l             *zap.Logger
}

// New creates an empty registry
func New(opts ...Option) *Registry {
	r := &Registry{
		jobs:          map[string]*jobState{},
		now:           time.Now,
		ttl:           time.Hour,
		terminalDelay: 100 * time.Millisecond,
		l:             zap.NewNop(),
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Create allocates a job in status pending and schedules its deletion
// after the registry TTL, regardless of how the job ends.
func (r *Registry) Create(did, siteName string, totalFiles int) Job {
	now := r.now()
	job := Job{
		ID:        uuid.NewString(),
		DID:       did,
		SiteName:  siteName,
		Status:    StatusPending,
		Progress:  Progress{TotalFiles: totalFiles, Phase: PhaseValidating},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = &jobState{job: job, listeners: map[int]Listener{}}
	r.mu.Unlock()

	time.AfterFunc(r.ttl, func() { r.expire(job.ID) })
	return job
}

// Get returns a snapshot of a job
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return st.job, true
}

// Update applies a mutation to the job, bumps UpdatedAt and broadcasts a
// progress snapshot. Updating a missing or expired job is a logged
// no-op returning ErrJobNotFound.
func (r *Registry) Update(id string, mutate func(*Job)) error {
	r.mu.Lock()
	st, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		r.l.Warn("update for unknown job", zap.String("job", id))
		return ErrJobNotFound
	}
	mutate(&st.job)
	st.job.ID = id // the mutation cannot re-key the job
	st.job.UpdatedAt = r.now()
	snapshot := st.job
	targets := st.snapshotListeners()
	r.mu.Unlock()

	r.deliver(id, targets, Event{Type: EventProgress, Job: snapshot})
	return nil
}

// UpdateProgress applies a mutation to the progress block only
func (r *Registry) UpdateProgress(id string, mutate func(*Progress)) error {
	return r.Update(id, func(j *Job) { mutate(&j.Progress) })
}

// Complete marks the job completed and stores its result. After a short
// delay, giving subscribers a chance to observe the final progress
// frame, the terminal done event is emitted and listeners are released.
func (r *Registry) Complete(id string, result Result) error {
	return r.finish(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Progress.Phase = PhaseDone
		j.Result = &result
	}, EventDone)
}

// Fail marks the job failed and stores the error. The terminal error
// event follows after the same delay as Complete.
func (r *Registry) Fail(id string, errMsg string) error {
	return r.finish(id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = errMsg
	}, EventError)
}

func (r *Registry) finish(id string, mutate func(*Job), terminal EventType) error {
	if err := r.Update(id, mutate); err != nil {
		return err
	}
	time.AfterFunc(r.terminalDelay, func() {
		r.mu.Lock()
		st, ok := r.jobs[id]
		if !ok || st.released {
			r.mu.Unlock()
			return
		}
		snapshot := st.job
		targets := st.snapshotListeners()
		st.released = true
		st.listeners = map[int]Listener{}
		r.mu.Unlock()

		r.deliver(id, targets, Event{Type: terminal, Job: snapshot})
	})
	return nil
}

// Subscribe registers a listener for a job's event stream and returns a
// disposer removing just that listener.
func (r *Registry) Subscribe(id string, fn Listener) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	if st.released {
		return func() {}, nil
	}
	token := st.nextListener
	st.nextListener++
	st.listeners[token] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.jobs[id]; ok {
			delete(cur.listeners, token)
		}
	}, nil
}

type listenerRef struct {
	token int
	fn    Listener
}

func (st *jobState) snapshotListeners() []listenerRef {
	out := make([]listenerRef, 0, len(st.listeners))
	for token, fn := range st.listeners {
		out = append(out, listenerRef{token: token, fn: fn})
	}
	return out
}

// deliver calls listeners outside the registry lock and prunes the ones
// whose delivery failed
func (r *Registry) deliver(id string, targets []listenerRef, ev Event) {
	var failed []int
	for _, t := range targets {
		if err := t.fn(ev); err != nil {
			failed = append(failed, t.token)
		}
	}
	if len(failed) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.jobs[id]
	if !ok {
		return
	}
	for _, token := range failed {
		delete(st.listeners, token)
	}
	r.l.Debug("pruned disconnected listeners",
		zap.String("job", id),
		zap.Int("count", len(failed)))
}

func (r *Registry) expire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}
