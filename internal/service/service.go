// Package service implements the domain operations behind the HTTP API:
// identity-token login, and ownership-checked reviews and comments.
package service

import (
	"time"

	"vinoteca/internal/models"

	"github.com/google/uuid"
)

// Option customizes the clock and id source of a service. Tests use it to
// make timestamps and ids deterministic.
type Option func(*runtime)

type runtime struct {
	now   func() time.Time
	newID func() string
}

func newRuntime(opts []Option) runtime {
	rt := runtime{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

// WithClock sets the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(rt *runtime) {
		if now != nil {
			rt.now = now
		}
	}
}

// WithIDGenerator sets the source of new entity ids.
func WithIDGenerator(newID func() string) Option {
	return func(rt *runtime) {
		if newID != nil {
			rt.newID = newID
		}
	}
}

func (rt runtime) timestamp() time.Time {
	return rt.now().UTC()
}

// invalid wraps a structural check failure into the taxonomy.
func invalid(field string, err error) error {
	if err == nil {
		return nil
	}
	return models.NewInvalidInputError(field, err.Error())
}
