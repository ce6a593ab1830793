package oauth

import (
	"sync"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

// stepper drives a fake clock through every backoff wait a RetryPolicy
// announces and records the delays and errors in call order.
type stepper struct {
	clock *clocktesting.FakeClock

	mu    sync.Mutex
	waits []time.Duration
	errs  []error
}

func newStepper(start time.Time) *stepper {
	return &stepper{clock: clocktesting.NewFakeClock(start)}
}

// notify is the policy's RetryNotify. The policy registers its timer right
// after notify returns, so the clock is stepped once that waiter exists.
func (s *stepper) notify(err error, delay time.Duration) {
	s.mu.Lock()
	s.waits = append(s.waits, delay)
	s.errs = append(s.errs, err)
	s.mu.Unlock()

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for !s.clock.HasWaiters() {
			if time.Now().After(deadline) {
				return
			}
			time.Sleep(time.Millisecond)
		}
		s.clock.Step(delay)
	}()
}

// policy returns a RetryPolicy bound to the stepper's clock.
func (s *stepper) policy(opts ...RetryOption) *RetryPolicy {
	return NewRetryPolicy(append([]RetryOption{WithClock(s.clock), WithRetryNotify(s.notify)}, opts...)...)
}

func (s *stepper) Now() time.Time {
	return s.clock.Now()
}

func (s *stepper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

func (s *stepper) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}
