package conv

import (
	"sync"
	"testing"
	"time"
)

type notifyRecorder struct {
	mu    sync.Mutex
	fired []int64
}

func (n *notifyRecorder) notify(userID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fired = append(n.fired, userID)
}

func (n *notifyRecorder) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.fired)
}

func TestTimersFireAfterDelay(t *testing.T) {
	rec := &notifyRecorder{}
	timers := NewTimers(20*time.Millisecond, rec.notify)
	defer timers.Stop()

	timers.Arm(1)
	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if rec.count() != 1 {
		t.Fatalf("fired %d times, want 1", rec.count())
	}
	if timers.Armed(1) {
		t.Fatal("job still armed after firing")
	}
}

func TestTimersArmReplacesPendingJob(t *testing.T) {
	rec := &notifyRecorder{}
	timers := NewTimers(40*time.Millisecond, rec.notify)
	defer timers.Stop()

	// Re-arming repeatedly must never stack jobs.
	for i := 0; i < 5; i++ {
		timers.Arm(1)
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("fired %d times, want exactly 1", rec.count())
	}
}

func TestTimersDisarmIsIdempotent(t *testing.T) {
	rec := &notifyRecorder{}
	timers := NewTimers(20*time.Millisecond, rec.notify)
	defer timers.Stop()

	timers.Disarm(1) // nothing armed yet

	timers.Arm(1)
	timers.Disarm(1)
	timers.Disarm(1)

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("fired %d times after disarm, want 0", rec.count())
	}
}

func TestTimersDisarmCancelsOnlyOwnUser(t *testing.T) {
	rec := &notifyRecorder{}
	timers := NewTimers(20*time.Millisecond, rec.notify)
	defer timers.Stop()

	timers.Arm(1)
	timers.Arm(2)
	timers.Disarm(1)

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.fired) != 1 || rec.fired[0] != 2 {
		t.Fatalf("fired = %v, want just user 2", rec.fired)
	}
}

func TestTimersStopCancelsEverything(t *testing.T) {
	rec := &notifyRecorder{}
	timers := NewTimers(20*time.Millisecond, rec.notify)

	timers.Arm(1)
	timers.Arm(2)
	timers.Stop()

	time.Sleep(60 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("fired %d times after Stop, want 0", rec.count())
	}
}
