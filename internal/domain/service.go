package domain

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"example.com/aggregator/internal/observability"
)

// ErrAllPlatformsFailed is returned when every linked platform errored and
// the merged result would be empty for the wrong reason.
var ErrAllPlatformsFailed = errors.New("could not connect to any platforms, try again later")

// Service fans a metric request out to the platforms linked to a user and
// merges the responses. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	links     LinkStore
	providers map[Platform]Provider
	timeout   time.Duration
	log       *logrus.Logger
}

// NewService constructs the aggregation service. timeout bounds each
// individual provider call.
func NewService(links LinkStore, providers []Provider, timeout time.Duration, log *logrus.Logger) *Service {
	byName := make(map[Platform]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Service{links: links, providers: byName, timeout: timeout, log: log}
}

type fetchOutcome struct {
	value   float64
	present bool
	failed  bool
}

// Aggregate queries every platform linked to userID for the given metric and
// date. Results keep the canonical platform order; platforms with no link or
// no data are omitted. With largestOnly the result collapses to the single
// record with the maximum value, earlier-ordered platform winning ties.
func (s *Service) Aggregate(ctx context.Context, userID int, kind MetricKind, date time.Time, largestOnly bool) ([]MetricRecord, error) {
	links, err := s.links.LinksForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	observability.RecordAggregationRequest(string(kind))

	outcomes := make(map[Platform]*fetchOutcome, len(links))
	p := pool.New().WithMaxGoroutines(len(links) + 1)
	for _, link := range links {
		provider, ok := s.providers[link.Platform]
		if !ok {
			continue
		}
		outcome := &fetchOutcome{}
		outcomes[link.Platform] = outcome
		credential := link.AccessToken
		p.Go(func() {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			start := time.Now()
			value, err := provider.Fetch(callCtx, credential, kind, date)
			observability.ObserveProviderFetch(string(provider.Name()), string(kind), time.Since(start))

			switch {
			case err == nil:
				outcome.value = value
				outcome.present = true
			case errors.Is(err, ErrNoData):
				// Silent omission; the platform simply has nothing.
			case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
				// A timed-out call merges like an absent one.
				s.log.WithFields(logrus.Fields{
					"platform": provider.Name(),
					"metric":   kind,
					"userId":   userID,
				}).Debug("platform fetch timed out")
			default:
				outcome.failed = true
				observability.RecordProviderFailure(string(provider.Name()))
				s.log.WithFields(logrus.Fields{
					"platform": provider.Name(),
					"metric":   kind,
					"userId":   userID,
					"date":     date.Format(ISODateLayout),
					"err":      err,
				}).Warn("platform fetch failed")
			}
		})
	}
	p.Wait()

	records := make([]MetricRecord, 0, len(outcomes))
	failures := 0
	for _, platform := range PlatformOrder {
		outcome, ok := outcomes[platform]
		if !ok {
			continue
		}
		if outcome.failed {
			failures++
		}
		if outcome.present {
			records = append(records, MetricRecord{Platform: platform, Value: outcome.value})
		}
	}

	if len(records) == 0 && failures > 0 && failures == len(outcomes) {
		return nil, ErrAllPlatformsFailed
	}

	if largestOnly && len(records) > 1 {
		largest := records[0]
		for _, record := range records[1:] {
			if record.Value > largest.Value {
				largest = record
			}
		}
		records = []MetricRecord{largest}
	}

	return records, nil
}
