// Package viewstate holds the snapshot a screen renders.
//
// Loading -> Ready -> Ready' ...; Errored is reachable from either. An error after
// a success keeps the last good snapshot under the error. Mutations never change
// the phase or the snapshot; they only surface an error.
package viewstate

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/botdash/internal/domain"
	"github.com/betbot/botdash/pkg/sigchan"
)

// Phase of a view.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// View is an immutable copy of the store state.
type View[T any] struct {
	Phase       Phase
	Snapshot    T
	HasSnapshot bool
	Err         error // last poll error, nil once a later poll succeeds
	MutationErr error // last failed mutation, cleared by the next accepted poll
	Seq         uint64
	UpdatedAt   time.Time
}

// Store is safe for concurrent use. Apply is meant to be the poller callback.
type Store[T any] struct {
	name    string
	mu      sync.RWMutex
	view    View[T]
	changed *sigchan.Chan
	now     func() time.Time
	log     *logrus.Entry
}

// New creates a store in the Loading phase.
func New[T any](name string) *Store[T] {
	return &Store[T]{
		name:    name,
		changed: sigchan.New(1),
		now:     time.Now,
		log:     logrus.WithFields(logrus.Fields{"module": "viewstate", "view": name}),
	}
}

// Name of the view.
func (s *Store[T]) Name() string { return s.name }

// Apply records an accepted poll result. The snapshot is replaced wholesale.
func (s *Store[T]) Apply(seq uint64, value T, err error) {
	now := s.now()

	s.mu.Lock()
	s.view.Seq = seq
	s.view.UpdatedAt = now
	s.view.MutationErr = nil
	if err != nil {
		s.view.Phase = PhaseErrored
		s.view.Err = err
		s.log.Warnf("poll #%d failed: %v", seq, err)
	} else {
		if stamped, ok := any(value).(domain.Stamped); ok {
			stamped.SetStamp(seq, now)
		}
		s.view.Phase = PhaseReady
		s.view.Snapshot = value
		s.view.HasSnapshot = true
		s.view.Err = nil
	}
	s.mu.Unlock()

	s.changed.Emit()
}

// ReportMutationError surfaces a failed mutation without touching the snapshot or phase.
func (s *Store[T]) ReportMutationError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.view.MutationErr = err
	s.mu.Unlock()
	s.log.Warnf("mutation failed: %v", err)
	s.changed.Emit()
}

// ClearMutationError dismisses the mutation banner.
func (s *Store[T]) ClearMutationError() {
	s.mu.Lock()
	had := s.view.MutationErr != nil
	s.view.MutationErr = nil
	s.mu.Unlock()
	if had {
		s.changed.Emit()
	}
}

// Reset returns to Loading with no snapshot, e.g. when the polled resource changes.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.view = View[T]{}
	s.mu.Unlock()
	s.changed.Emit()
}

// View returns a copy of the current state.
func (s *Store[T]) View() View[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Changed fires after every accepted write. Multiple writes before a read coalesce.
func (s *Store[T]) Changed() <-chan struct{} {
	return s.changed.C()
}
