package cache

import "time"

// Scheduler posts a task to run after delay, returning a cancel func that
// prevents the task from running if it hasn't already started. Trim tasks
// reschedule themselves by calling PostDelayed again from within task, so
// a Scheduler implementation need not support periodic posting directly.
type Scheduler interface {
	PostDelayed(task func(), delay time.Duration) (cancel func())
}

// timerScheduler is the default Scheduler, backed by time.AfterFunc.
type timerScheduler struct{}

func (timerScheduler) PostDelayed(task func(), delay time.Duration) func() {
	t := time.AfterFunc(delay, task)
	return func() { t.Stop() }
}
