package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// FireFunc is invoked when a user's daily trigger fires. isRetry is always
// false here; the dispatcher sets it on its own retry path.
type FireFunc func(chatID int64, isRetry bool)

// Registry owns one recurring daily job per subscribed chat. Jobs are keyed
// by chat id and correlated with subscriptions only through that id; the
// registry never holds subscription data.
type Registry struct {
	sched *gocron.Scheduler
	log   *zap.Logger

	mu   sync.Mutex
	jobs map[int64]*gocron.Job
}

// New creates a Registry scheduling in the given location and starts the
// underlying scheduler.
func New(loc *time.Location, log *zap.Logger) *Registry {
	s := gocron.NewScheduler(loc)
	s.StartAsync()
	return &Registry{
		sched: s,
		log:   log,
		jobs:  make(map[int64]*gocron.Job),
	}
}

// Start registers a daily job for chatID at hour:minute. If a job already
// exists for chatID the call is a no-op, so rescheduling requires Stop first.
func (r *Registry) Start(chatID int64, hour, minute int, onFire FireFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[chatID]; ok {
		return nil
	}

	at := fmt.Sprintf("%02d:%02d", hour, minute)
	job, err := r.sched.Every(1).Day().At(at).Do(func() {
		onFire(chatID, false)
	})
	if err != nil {
		return fmt.Errorf("schedule daily job at %s: %w", at, err)
	}
	r.jobs[chatID] = job
	r.log.Info("trigger scheduled", zap.Int64("chatID", chatID), zap.String("at", at))
	return nil
}

// Stop cancels and removes the job for chatID; no-op if none exists.
func (r *Registry) Stop(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[chatID]
	if !ok {
		return
	}
	r.sched.RemoveByReference(job)
	delete(r.jobs, chatID)
	r.log.Info("trigger removed", zap.Int64("chatID", chatID))
}

// Active reports whether a job exists for chatID.
func (r *Registry) Active(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[chatID]
	return ok
}

// Len returns the number of scheduled jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Shutdown stops the underlying scheduler. Pending jobs do not fire after
// Shutdown returns.
func (r *Registry) Shutdown() {
	r.sched.Stop()
}
