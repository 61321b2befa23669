// Package views holds the page-level flows of the app: each view owns one or
// more collection controllers and the actions a user can take on them.
// Mutations are applied to local state only after the server confirms them.
package views

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"memeshare/internal/cli/client"
	"memeshare/internal/forms"
	"memeshare/internal/models"
	"memeshare/internal/resource"
)

type options struct {
	logger *zap.Logger
	limit  int
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPageSize overrides the default page size of list surfaces.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop(), limit: models.DefaultPageLimit}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) controller(sorts []string, extra ...resource.Option) []resource.Option {
	return append([]resource.Option{
		resource.WithLimit(o.limit),
		resource.WithSorts(sorts...),
		resource.WithLogger(o.logger),
	}, extra...)
}

// submitCreate runs a create dialog through sub and returns what the server
// created.
func submitCreate[T any](ctx context.Context, sub *forms.Submitter, form any, create func(ctx context.Context) (T, error), onClose func()) (T, error) {
	var created T
	err := sub.Submit(ctx, form, func(ctx context.Context) error {
		var err error
		created, err = create(ctx)
		return err
	}, onClose)
	return created, err
}

// NewSubmitter returns a dialog submitter whose alerts read like AlertMessage.
func NewSubmitter(opts ...forms.SubmitterOption) *forms.Submitter {
	return forms.NewSubmitter(forms.NewValidator(), append([]forms.SubmitterOption{forms.WithAlert(AlertMessage)}, opts...)...)
}

// AlertMessage turns any error from a view action into the one line shown in
// the page's alert banner.
func AlertMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		if len(verr.Fields) == 1 {
			return verr.Fields[0].Message
		}
		return fmt.Sprintf("Please fix %d fields: %s", len(verr.Fields), verr.Fields[0].Message)
	case errors.Is(err, forms.ErrSubmitInFlight):
		return "Still saving, please wait."
	case errors.Is(err, models.ErrInvalidTransition):
		return "That status change is not allowed: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	}

	switch code := client.StatusCode(err); {
	case code == http.StatusUnauthorized:
		return "Your session has expired. Please log in again."
	case code == http.StatusForbidden:
		return "You don't have permission to do that."
	case code == http.StatusNotFound:
		return "Not found. It may have been deleted."
	case code == http.StatusTooManyRequests:
		return "Too many requests. Please slow down and try again."
	case code >= 500:
		return "Server error. Please try again later."
	case code >= 400:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return apiErr.Message
		}
		return "The request was rejected."
	}

	switch {
	case client.IsTimeout(err):
		return "The server took too long to respond. Please try again."
	case client.IsNetwork(err):
		return "Cannot reach the server. Check your connection."
	}
	return err.Error()
}

var timeNow = time.Now

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
