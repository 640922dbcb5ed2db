// Package sched runs a fixed set of periodic tasks on a single goroutine.
//
// Tasks never preempt each other: Tick runs every due task to completion in
// registration order before returning. Time is always injected.
package sched

import (
	"context"
	"fmt"
	"time"
)

// Func is the body of a task. It receives the tick time.
type Func func(now time.Time)

type task struct {
	name    string
	period  time.Duration
	lastRun time.Time
	started bool
	fn      Func
	runs    int
}

// Scheduler holds the ordered task list.
type Scheduler struct {
	tasks []*task
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Add registers a task. A task is due on the first tick after registration
// and then whenever at least period has elapsed since its last run.
func (s *Scheduler) Add(name string, period time.Duration, fn Func) error {
	if period <= 0 {
		return fmt.Errorf("task %q: period must be positive, got %v", name, period)
	}
	for _, t := range s.tasks {
		if t.name == name {
			return fmt.Errorf("task %q already registered", name)
		}
	}
	s.tasks = append(s.tasks, &task{name: name, period: period, fn: fn})
	return nil
}

// Tick runs every due task. It returns the names of the tasks that ran.
func (s *Scheduler) Tick(now time.Time) []string {
	var ran []string
	for _, t := range s.tasks {
		if t.started && now.Sub(t.lastRun) < t.period {
			continue
		}
		t.started = true
		t.lastRun = now
		t.runs++
		t.fn(now)
		ran = append(ran, t.name)
	}
	return ran
}

// Runs returns how many times the named task has run, or -1 if unknown.
func (s *Scheduler) Runs(name string) int {
	for _, t := range s.tasks {
		if t.name == name {
			return t.runs
		}
	}
	return -1
}

// MinPeriod returns the shortest registered period, or 0 with no tasks.
// Callers use it to size the driving ticker.
func (s *Scheduler) MinPeriod() time.Duration {
	var min time.Duration
	for _, t := range s.tasks {
		if min == 0 || t.period < min {
			min = t.period
		}
	}
	return min
}

// Run drives Tick from tick until ctx is cancelled or tick is closed.
// now supplies the tick time.
func (s *Scheduler) Run(ctx context.Context, now func() time.Time, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-tick:
			if !ok {
				return nil
			}
			s.Tick(now())
		}
	}
}
