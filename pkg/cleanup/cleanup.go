// Package cleanup schedules deferred, retrying deletion of transient
// artifacts (uploads, annotated renders, generated maps). Deletion is
// deferred so a concurrently running attachment step never loses the file
// under its reader; failures are logged, never escalated.
package cleanup

import (
	"PotholeGolang/pkg/retry"
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	deleteAttempts = 3
	deleteBackoff  = time.Second
)

type task struct {
	path  string
	timer *time.Timer
}

type Scheduler struct {
	log    *logrus.Logger
	mu     sync.Mutex
	wg     sync.WaitGroup
	tasks  map[int]*task
	nextID int
	closed bool
	sleep  retry.Sleeper
}

func New(log *logrus.Logger) *Scheduler {
	return &Scheduler{
		log:   log,
		tasks: make(map[int]*task),
	}
}

// Schedule arranges for path to be removed after delay. A scheduler that is
// already draining deletes immediately instead of dropping the artifact.
func (s *Scheduler) Schedule(path string, delay time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.remove(path)
		}()
		return
	}

	id := s.nextID
	s.nextID++
	t := &task{path: path}
	s.tasks[id] = t
	s.wg.Add(1)

	t.timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.tasks, id)
		s.mu.Unlock()
		s.remove(path)
	})
	s.mu.Unlock()
}

// Drain fires every pending deletion immediately and waits for completion or
// context expiry. After Drain the scheduler stops deferring new work.
func (s *Scheduler) Drain(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	pending := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		// a timer that already fired owns its own waitgroup slot
		if t.timer.Stop() {
			pending = append(pending, t)
		}
	}
	s.tasks = make(map[int]*task)
	s.mu.Unlock()

	for _, t := range pending {
		go func(t *task) {
			defer s.wg.Done()
			s.remove(t.path)
		}(t)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) remove(path string) {
	classify := func(attempt int, err error) retry.Decision {
		return retry.Decision{Retry: true, Delay: deleteBackoff}
	}

	err := retry.Do(context.Background(), deleteAttempts, classify, s.sleep, func(attempt int) error {
		err := os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
		s.log.WithFields(logrus.Fields{
			"path":    path,
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Could not remove temporary file, will retry")
		return err
	})

	if err != nil {
		// a leaked temp file is an operational nuisance, not a failure
		s.log.WithFields(logrus.Fields{
			"path":  path,
			"error": err.Error(),
		}).Error("Giving up removing temporary file")
		return
	}

	s.log.WithFields(logrus.Fields{"path": path}).Debug("Removed temporary file")
}
