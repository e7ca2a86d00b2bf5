package identity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/metrics"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// mirrorJob carries either a user to write or, for flush, a barrier channel
type mirrorJob struct {
	user    models.User
	barrier chan struct{}
}

// mirror writes users to the remote store from a single goroutine so writes
// for the same user land in the order they were queued.
type mirror struct {
	remote  docstore.Store
	log     zerolog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan mirrorJob
	done   chan struct{}
}

func newMirror(remote docstore.Store, log zerolog.Logger, size int, timeout time.Duration) *mirror {
	m := &mirror{
		remote:  remote,
		log:     log,
		timeout: timeout,
		jobs:    make(chan mirrorJob, size),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// enqueue never blocks. When the queue is full the write is dropped; the
// next GetCurrentUser queues it again.
func (m *mirror) enqueue(user models.User) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.jobs <- mirrorJob{user: user}:
	default:
		metrics.MirrorWritesTotal.WithLabelValues("dropped").Inc()
		m.log.Warn().Str("user_id", user.ID).Msg("mirror queue full, dropping user write")
	}
}

func (m *mirror) flush(ctx context.Context) error {
	barrier := make(chan struct{})

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil
	}
	select {
	case m.jobs <- mirrorJob{barrier: barrier}:
		m.mu.RUnlock()
	case <-ctx.Done():
		m.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *mirror) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	close(m.jobs)
	m.mu.Unlock()

	<-m.done
}

func (m *mirror) run() {
	defer close(m.done)

	for job := range m.jobs {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}
		m.write(job.user)
	}
}

func (m *mirror) write(user models.User) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.remote.Set(ctx, UsersCollection, user.ID, userDocument(user)); err != nil {
		metrics.MirrorWritesTotal.WithLabelValues("failed").Inc()
		m.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to mirror user")
		return
	}
	metrics.MirrorWritesTotal.WithLabelValues("ok").Inc()
	m.log.Debug().Str("user_id", user.ID).Msg("user mirrored")
}
