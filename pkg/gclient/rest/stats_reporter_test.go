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
	"testing"
	"time"

	"go.opencensus.io/stats/view"
)

func TestReportRequest(t *testing.T) {
	r, err := NewStatsReporter("proj")
	if err != nil {
		t.Fatalf("NewStatsReporter() = %v", err)
	}
	defer view.Unregister(view.Find(requestCountM.Name()), view.Find(requestLatencyM.Name()))

	args := &ReportArgs{Method: "POST", Service: "pubsub.googleapis.com"}
	if err := r.ReportRequest(args, 200, 15*time.Millisecond); err != nil {
		t.Fatalf("ReportRequest() = %v", err)
	}
	if err := r.ReportRequest(args, 0, time.Millisecond); err != nil {
		t.Fatalf("ReportRequest() = %v", err)
	}

	rows, err := view.RetrieveData(requestCountM.Name())
	if err != nil {
		t.Fatalf("RetrieveData() = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2 (one per response code)", len(rows))
	}
}

func TestResponseCodeClass(t *testing.T) {
	for code, want := range map[int]string{0: "none", 200: "2xx", 404: "4xx", 503: "5xx"} {
		if got := responseCodeClass(code); got != want {
			t.Errorf("responseCodeClass(%d) got=%q, want=%q", code, got, want)
		}
	}
}
