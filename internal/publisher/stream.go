package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/arb-analytics/pkg/models"
)

// StreamAdder is the subset of the Redis client used for publishing
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// Deduper decides whether an opportunity was already published. Clear releases a
// claim made by ShouldPublish so a failed publish can be retried.
type Deduper interface {
	ShouldPublish(ctx context.Context, opp models.Opportunity) (bool, error)
	Clear(ctx context.Context, opp models.Opportunity) error
}

// StreamPublisher publishes opportunities to Redis Streams
type StreamPublisher struct {
	client StreamAdder
	stream string
	dedup  Deduper
	log    logrus.FieldLogger
}

// NewStreamPublisher creates a new stream publisher. dedup may be nil.
func NewStreamPublisher(client StreamAdder, stream string, dedup Deduper, log logrus.FieldLogger) *StreamPublisher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StreamPublisher{
		client: client,
		stream: stream,
		dedup:  dedup,
		log:    log.WithField("component", "publisher"),
	}
}

// StreamKeys returns the global stream and, when the sport is known, the sport stream
func (p *StreamPublisher) StreamKeys(opp models.Opportunity) []string {
	keys := []string{p.stream}
	if opp.Sport != "" {
		keys = append(keys, fmt.Sprintf("%s.%s", p.stream, opp.Sport))
	}
	return keys
}

// PublishOpportunity publishes one opportunity to the global and sport streams
func (p *StreamPublisher) PublishOpportunity(ctx context.Context, opp models.Opportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	for _, stream := range p.StreamKeys(opp) {
		_, err = p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"opportunity_id": opp.ID,
				"event_id":       opp.EventID,
				"opportunity":    string(payload),
			},
		}).Result()
		if err != nil {
			return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
		}
	}

	return nil
}

// Publish publishes every opportunity not already seen within the dedup window.
// A dedup failure publishes anyway. A failed publish releases its dedup claim and
// the rest of the batch is still attempted.
func (p *StreamPublisher) Publish(ctx context.Context, opportunities []models.Opportunity) error {
	var errs []error
	published := 0
	for _, opp := range opportunities {
		claimed := false
		if p.dedup != nil {
			ok, err := p.dedup.ShouldPublish(ctx, opp)
			if err != nil {
				p.log.WithError(err).WithField("event_id", opp.EventID).Warn("dedup check failed")
			} else if !ok {
				continue
			}
			claimed = ok
		}

		if err := p.PublishOpportunity(ctx, opp); err != nil {
			errs = append(errs, fmt.Errorf("opportunity %s: %w", opp.ID, err))
			if claimed {
				if clearErr := p.dedup.Clear(ctx, opp); clearErr != nil {
					p.log.WithError(clearErr).WithField("event_id", opp.EventID).Warn("failed to release dedup claim")
				}
			}
			continue
		}
		published++
	}

	if published > 0 {
		p.log.WithFields(logrus.Fields{
			"published": published,
			"skipped":   len(opportunities) - published - len(errs),
			"failed":    len(errs),
			"stream":    p.stream,
		}).Debug("opportunities published")
	}

	return errors.Join(errs...)
}
