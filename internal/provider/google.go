package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"example.com/aggregator/internal/domain"
)

// GoogleFit queries the aggregate-dataset resource, selecting a signal by
// data source id.
type GoogleFit struct {
	base string
	log  *logrus.Logger
}

// NewGoogleFit constructs the adapter against the given API base URL.
func NewGoogleFit(base string, log *logrus.Logger) *GoogleFit {
	return &GoogleFit{base: base, log: log}
}

const googleAggregatePath = "/users/me/dataset:aggregate"

const millisPerDay int64 = 86400000

// Data source ids for the signals the aggregator understands.
var googleDataSources = map[domain.MetricKind]string{
	domain.MetricSteps:    "derived:com.google.step_count.delta:com.google.android.gms:estimated_steps",
	domain.MetricCalories: "derived:com.google.calories.expended:com.google.android.gms:merge_calories_expended",
	domain.MetricDistance: "derived:com.google.distance.delta:com.google.android.gms:merge_distance_delta",
}

type googleAggregateRequest struct {
	AggregateBy     []map[string]string `json:"aggregateBy"`
	BucketByTime    map[string]int64    `json:"bucketByTime"`
	StartTimeMillis int64               `json:"startTimeMillis"`
	EndTimeMillis   int64               `json:"endTimeMillis"`
}

type googlePointValue struct {
	IntVal *float64 `json:"intVal,omitempty"`
	FpVal  *float64 `json:"fpVal,omitempty"`
}

type googlePoint struct {
	Values []googlePointValue `json:"value,omitempty"`
}

type googleDataSet struct {
	DataSourceID string        `json:"dataSourceId"`
	Points       []googlePoint `json:"point"`
}

type googleBucket struct {
	DataSets []googleDataSet `json:"dataset"`
}

type googleAggregateResponse struct {
	Buckets []googleBucket `json:"bucket"`
	Error   struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error,omitempty"`
}

// Name implements domain.Provider.
func (g *GoogleFit) Name() domain.Platform {
	return domain.PlatformGoogle
}

// Fetch issues an aggregate query bucketed over the requested calendar day.
// Steps are integer-typed (intVal); calories and distance are float-typed
// (fpVal). Distance arrives in meters and is normalized to kilometers.
func (g *GoogleFit) Fetch(ctx context.Context, credential string, kind domain.MetricKind, date time.Time) (float64, error) {
	dataSourceID, ok := googleDataSources[kind]
	if !ok {
		// Callers only hand us parsed metric kinds; an unmapped kind would
		// produce a selector the upstream rejects outright.
		return 0, fmt.Errorf("no google fit data source for metric kind %q", kind)
	}

	startMillis := date.UnixMilli()
	reqBody, err := json.Marshal(googleAggregateRequest{
		AggregateBy:     []map[string]string{{"dataSourceId": dataSourceID}},
		BucketByTime:    map[string]int64{"durationMillis": millisPerDay},
		StartTimeMillis: startMillis,
		EndTimeMillis:   startMillis + millisPerDay,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal google fit request: %w", err)
	}

	body, status, err := post(ctx, credential, g.base+googleAggregatePath, bytes.NewReader(reqBody))
	if err != nil {
		return 0, err
	}
	if status < 200 || status >= 300 {
		return 0, fmt.Errorf("google fit returned %d", status)
	}

	var parsed googleAggregateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parse google fit response: %w", err)
	}
	if parsed.Error.Message != "" {
		g.log.WithFields(logrus.Fields{
			"code":    parsed.Error.Code,
			"message": parsed.Error.Message,
		}).Error("google fit rejected aggregate query")
		return 0, fmt.Errorf("google fit error: %s", parsed.Error.Message)
	}

	total := 0.0
	points := 0
	for _, bucket := range parsed.Buckets {
		for _, set := range bucket.DataSets {
			for _, point := range set.Points {
				if len(point.Values) == 0 {
					continue
				}
				value := point.Values[0]
				switch kind {
				case domain.MetricSteps:
					if value.IntVal == nil {
						continue
					}
					total += *value.IntVal
				default:
					if value.FpVal == nil {
						continue
					}
					total += *value.FpVal
				}
				points++
			}
		}
	}
	if points == 0 {
		return 0, domain.ErrNoData
	}

	if kind == domain.MetricDistance {
		// Google Fit reports meters; the canonical unit is kilometers.
		return total / 1000, nil
	}
	return total, nil
}
