package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// Named pairs a sink with the name used in logs
type Named struct {
	Name string
	Sink contracts.OpportunitySink
}

// Multi fans opportunities out to every configured sink
type Multi struct {
	sinks []Named
	log   logrus.FieldLogger
}

// NewMulti creates a fan-out sink. Sinks run in order.
func NewMulti(log logrus.FieldLogger, sinks ...Named) *Multi {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Multi{sinks: sinks, log: log.WithField("component", "sink")}
}

// Len returns the number of configured sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Publish delivers to every sink even when earlier ones fail, returning the joined errors
func (m *Multi) Publish(ctx context.Context, opportunities []models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Publish(ctx, opportunities); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"sink":          s.Name,
				"opportunities": len(opportunities),
			}).Error("❌ sink publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}

	return errors.Join(errs...)
}
