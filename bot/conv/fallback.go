package conv

import (
	"sync"
	"time"
)

// NotifyFunc delivers the "conversation stalled, restart" prompt to a user.
type NotifyFunc func(userID int64)

// Timers schedules one-shot fallback notifications, at most one per session.
// Arming replaces any pending job; disarming is an idempotent
// compare-and-cancel on the current handle, so a handle that already lost a
// replacement race can never suppress a newer job or fire twice.
type Timers struct {
	delay  time.Duration
	notify NotifyFunc

	mu    sync.Mutex
	gen   uint64
	armed map[int64]*pendingJob
}

type pendingJob struct {
	gen   uint64
	timer *time.Timer
}

// NewTimers builds the fallback timer subsystem.
func NewTimers(delay time.Duration, notify NotifyFunc) *Timers {
	if delay <= 0 {
		delay = 20 * time.Second
	}
	return &Timers{
		delay:  delay,
		notify: notify,
		armed:  make(map[int64]*pendingJob),
	}
}

// SetNotify replaces the notification hook. Used when the delivery channel
// is only available after the transport has started.
func (t *Timers) SetNotify(notify NotifyFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notify = notify
}

// Arm schedules the fallback notification for a user, cancelling any job
// already pending for the same user.
func (t *Timers) Arm(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.armed[userID]; ok {
		prev.timer.Stop()
	}
	t.gen++
	job := &pendingJob{gen: t.gen}
	job.timer = time.AfterFunc(t.delay, func() { t.fire(userID, job.gen) })
	t.armed[userID] = job
}

// Disarm cancels the pending job for a user, if any. Safe to call when
// nothing is armed.
func (t *Timers) Disarm(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.armed[userID]; ok {
		job.timer.Stop()
		delete(t.armed, userID)
	}
}

// Armed reports whether a job is currently pending for the user.
func (t *Timers) Armed(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.armed[userID]
	return ok
}

// Stop cancels every pending job. Used on shutdown.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, job := range t.armed {
		job.timer.Stop()
		delete(t.armed, id)
	}
}

func (t *Timers) fire(userID int64, gen uint64) {
	t.mu.Lock()
	job, ok := t.armed[userID]
	if !ok || job.gen != gen {
		// A disarm or a newer arm won the race; this handle is stale.
		t.mu.Unlock()
		return
	}
	delete(t.armed, userID)
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(userID)
	}
}
