package forms

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultCloseDelay = 1500 * time.Millisecond

var ErrSubmitInFlight = errors.New("a submission is already in progress")

// Status is what a dialog renders: whether the submit control is disabled,
// inline field errors, and the single top-level alert.
type Status struct {
	Submitting bool
	Succeeded  bool
	Fields     []FieldError
	Alert      string
}

type SubmitterOption func(*Submitter)

// WithClock replaces time.Now for the "now" used by date rules.
func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCloseDelay(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		if d >= 0 {
			s.closeDelay = d
		}
	}
}

// WithScheduler replaces time.AfterFunc for the post-success close.
func WithScheduler(after func(time.Duration, func())) SubmitterOption {
	return func(s *Submitter) {
		if after != nil {
			s.after = after
		}
	}
}

// WithAlert sets how a failed send is turned into the alert string.
func WithAlert(format func(error) string) SubmitterOption {
	return func(s *Submitter) {
		if format != nil {
			s.alert = format
		}
	}
}

func WithSubmitLogger(l *zap.Logger) SubmitterOption {
	return func(s *Submitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// Submitter runs validate then send for one dialog. While a send is
// outstanding further submissions are refused; a failure re-enables the
// dialog for a manual retry.
type Submitter struct {
	validator  *Validator
	now        func() time.Time
	closeDelay time.Duration
	after      func(time.Duration, func())
	alert      func(error) string
	logger     *zap.Logger

	mu     sync.Mutex
	status Status
}

func NewSubmitter(v *Validator, opts ...SubmitterOption) *Submitter {
	if v == nil {
		v = NewValidator()
	}
	s := &Submitter{
		validator:  v,
		now:        time.Now,
		closeDelay: DefaultCloseDelay,
		after:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		alert:      func(err error) string { return err.Error() },
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates form and, when it passes, calls send exactly once. On
// success onClose (if non-nil) is scheduled after the close delay.
//
// A *ValidationError is returned without calling send. A send error is
// returned as is and its alert text is recorded in Status.
func (s *Submitter) Submit(ctx context.Context, form any, send func(ctx context.Context) error, onClose func()) error {
	s.mu.Lock()
	if s.status.Submitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.status = Status{}
	if err := s.validator.Check(form, s.now()); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.status.Fields = verr.Fields
		} else {
			s.status.Alert = s.alert(err)
		}
		s.mu.Unlock()
		return err
	}
	s.status.Submitting = true
	s.mu.Unlock()

	err := send(ctx)

	s.mu.Lock()
	s.status.Submitting = false
	if err != nil {
		s.status.Alert = s.alert(err)
		s.mu.Unlock()
		s.logger.Debug("submit failed", zap.Error(err))
		return err
	}
	s.status.Succeeded = true
	s.mu.Unlock()

	if onClose != nil {
		s.after(s.closeDelay, onClose)
	}
	return nil
}

func (s *Submitter) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Fields = append([]FieldError(nil), s.status.Fields...)
	return st
}

// Reset clears errors and success state, as when a dialog is reopened.
func (s *Submitter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.status.Submitting {
		s.status = Status{}
	}
}
