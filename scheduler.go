package vanish

import "time"

// TaskHandle is returned when a deferred task is scheduled. Cancel stops the
// task if it has not fired yet and reports whether it did.
type TaskHandle interface {
	Cancel() bool
}

// Scheduler schedules one-shot deferred functions. The service uses it to arm
// record cleanup; tests substitute a manual implementation to drive timers
// deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) TaskHandle
}

type timerScheduler struct{}

// NewTimerScheduler returns a Scheduler backed by the runtime timer wheel.
// Pending tasks are lost on process exit.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) TaskHandle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() bool {
	return h.t.Stop()
}
