/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	// requestCountM is a counter which records the number of requests executed.
	requestCountM = stats.Int64(
		"rest_request_count",
		"Number of REST requests executed",
		stats.UnitDimensionless,
	)
	// requestLatencyM records how long each request took, including reading the body.
	requestLatencyM = stats.Float64(
		"rest_request_latencies",
		"The time spent executing REST requests",
		stats.UnitMilliseconds,
	)

	methodKey            = tag.MustNewKey("method")
	serviceKey           = tag.MustNewKey("service")
	projectKey           = tag.MustNewKey("project_id")
	responseCodeKey      = tag.MustNewKey("response_code")
	responseCodeClassKey = tag.MustNewKey("response_code_class")
)

// ReportArgs describes the request being reported.
type ReportArgs struct {
	Method  string
	Service string
}

// StatsReporter defines the interface for sending request metrics.
type StatsReporter interface {
	// ReportRequest records one request. A responseCode of 0 means no
	// response was received.
	ReportRequest(args *ReportArgs, responseCode int, latency time.Duration) error
}

type nopReporter struct{}

func (nopReporter) ReportRequest(*ReportArgs, int, time.Duration) error { return nil }

var _ StatsReporter = (*reporter)(nil)

var emptyContext = context.Background()

// reporter records request metrics through OpenCensus.
type reporter struct {
	projectID string
}

// NewStatsReporter creates a reporter and registers its views.
func NewStatsReporter(projectID string) (StatsReporter, error) {
	r := &reporter{projectID: projectID}
	if err := r.register(); err != nil {
		return nil, fmt.Errorf("failed to register stats: %w", err)
	}
	return r, nil
}

func (r *reporter) ReportRequest(args *ReportArgs, responseCode int, latency time.Duration) error {
	ctx, err := r.generateTag(args, responseCode)
	if err != nil {
		return err
	}
	stats.Record(ctx,
		requestCountM.M(1),
		requestLatencyM.M(float64(latency)/float64(time.Millisecond)))
	return nil
}

func (r *reporter) generateTag(args *ReportArgs, responseCode int) (context.Context, error) {
	return tag.New(
		emptyContext,
		tag.Insert(methodKey, args.Method),
		tag.Insert(serviceKey, args.Service),
		tag.Insert(projectKey, r.projectID),
		tag.Insert(responseCodeKey, strconv.Itoa(responseCode)),
		tag.Insert(responseCodeClassKey, responseCodeClass(responseCode)))
}

func (r *reporter) register() error {
	tagKeys := []tag.Key{
		methodKey,
		serviceKey,
		projectKey,
		responseCodeKey,
		responseCodeClassKey}

	return view.Register(
		&view.View{
			Description: requestCountM.Description(),
			Measure:     requestCountM,
			Aggregation: view.Count(),
			TagKeys:     tagKeys,
		},
		&view.View{
			Description: requestLatencyM.Description(),
			Measure:     requestLatencyM,
			Aggregation: view.Distribution(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000),
			TagKeys:     tagKeys,
		},
	)
}

// responseCodeClass maps a status code to "2xx", "4xx" and so on. Requests
// that never got a response are classed "none".
func responseCodeClass(code int) string {
	if code <= 0 {
		return "none"
	}
	return fmt.Sprintf("%dxx", code/100)
}
