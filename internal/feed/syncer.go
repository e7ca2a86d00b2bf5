// Package feed keeps a live copy of the spot collection. Each store event
// carries the whole collection; the subscription replaces its view and hands
// the new state plus the computed delta to the consumer.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamikazebr/parkspot/internal/apperr"
	"github.com/kamikazebr/parkspot/internal/docstore"
	"github.com/kamikazebr/parkspot/internal/metrics"
	"github.com/kamikazebr/parkspot/internal/spots"
	"github.com/kamikazebr/parkspot/pkg/models"
)

// Snapshot is what a subscriber receives on every change
type Snapshot struct {
	Spots    []models.ParkingSpot
	Delta    Delta
	ReadTime time.Time
}

type State int

const (
	Unsubscribed State = iota
	Subscribed
)

func (s State) String() string {
	if s == Subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

type Syncer struct {
	store    docstore.Store
	log      zerolog.Logger
	coalesce time.Duration
}

type Option func(*Syncer)

// WithCoalesce delivers at most one callback per window d, carrying the
// latest snapshot received in it.
func WithCoalesce(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.coalesce = d
		}
	}
}

func NewSyncer(store docstore.Store, logger zerolog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		store: store,
		log:   logger.With().Str("component", "feed").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe opens a watch on the spot collection. onChange runs on the
// subscription's own goroutine, one call at a time; the first call carries
// the current state with every spot listed as added.
func (s *Syncer) Subscribe(ctx context.Context, onChange func(Snapshot)) (*Subscription, error) {
	if onChange == nil {
		return nil, apperr.Invalid("onChange callback is required", nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	watcher, err := s.store.Watch(ctx, spots.Collection)
	if err != nil {
		cancel()
		s.log.Error().Err(err).Msg("failed to open spot watch")
		return nil, apperr.Transport("watch spots", err)
	}

	sub := &Subscription{
		watcher:    watcher,
		view:       NewView(),
		onChange:   onChange,
		log:        s.log,
		coalesce:   s.coalesce,
		ctx:        ctx,
		cancel:     cancel,
		signal:     make(chan struct{}, 1),
		readerDone: make(chan struct{}),
		done:       make(chan struct{}),
		state:      Subscribed,
	}
	metrics.FeedActiveSubscriptions.Inc()
	s.log.Debug().Msg("spot feed subscribed")

	go sub.read()
	go sub.dispatch()
	return sub, nil
}

// Subscription is one live watch. Stop it when the consumer goes away.
type Subscription struct {
	watcher  docstore.Watcher
	view     *View
	onChange func(Snapshot)
	log      zerolog.Logger
	coalesce time.Duration

	ctx        context.Context
	cancel     context.CancelFunc
	signal     chan struct{}
	readerDone chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	pending *docstore.Snapshot
	state   State
	err     error
}

// Stop releases the watch. It is safe to call more than once and from
// inside onChange; a callback already running may finish after Stop returns.
func (sub *Subscription) Stop() {
	sub.stopOnce.Do(func() {
		sub.cancel()
		sub.watcher.Stop()

		sub.mu.Lock()
		sub.state = Unsubscribed
		sub.mu.Unlock()

		metrics.FeedActiveSubscriptions.Dec()
		sub.log.Debug().Msg("spot feed unsubscribed")
	})
}

// Done is closed once the subscription goroutines have exited
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

// Err returns the store error that ended the subscription, if any
func (sub *Subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *Subscription) State() State {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.state
}

// Spots returns the last applied collection
func (sub *Subscription) Spots() []models.ParkingSpot {
	return sub.view.Spots()
}

// read pulls snapshots off the watch and keeps only the latest one pending
func (sub *Subscription) read() {
	defer close(sub.readerDone)

	for {
		snap, err := sub.watcher.Next()
		if err != nil {
			if !errors.Is(err, docstore.ErrWatchStopped) && sub.ctx.Err() == nil {
				metrics.FeedErrorsTotal.Inc()
				sub.log.Error().Err(err).Msg("spot watch failed")
				sub.mu.Lock()
				sub.err = apperr.Transport("watch spots", err)
				sub.mu.Unlock()
			}
			return
		}

		sub.mu.Lock()
		if sub.pending != nil {
			metrics.FeedSnapshotsTotal.WithLabelValues("coalesced").Inc()
		}
		sub.pending = &snap
		sub.mu.Unlock()

		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

func (sub *Subscription) dispatch() {
	defer func() {
		sub.Stop()
		<-sub.readerDone
		close(sub.done)
	}()

	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-sub.readerDone:
			sub.deliver()
			return
		case <-sub.signal:
		}

		if sub.coalesce > 0 {
			timer := time.NewTimer(sub.coalesce)
			select {
			case <-sub.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		sub.deliver()
	}
}

func (sub *Subscription) deliver() {
	sub.mu.Lock()
	snap := sub.pending
	sub.pending = nil
	sub.mu.Unlock()

	if snap == nil || sub.ctx.Err() != nil {
		return
	}

	list := spots.DecodeAll(snap.Docs, sub.log)
	delta, ok := sub.view.Apply(list, snap.ReadTime)
	if !ok {
		metrics.FeedSnapshotsTotal.WithLabelValues("stale").Inc()
		sub.log.Debug().Time("read_time", snap.ReadTime).Msg("ignoring stale snapshot")
		return
	}
	metrics.FeedSnapshotsTotal.WithLabelValues("applied").Inc()
	metrics.FeedSpots.Set(float64(len(list)))

	sub.onChange(Snapshot{
		Spots:    sub.view.Spots(),
		Delta:    delta,
		ReadTime: snap.ReadTime,
	})
}
