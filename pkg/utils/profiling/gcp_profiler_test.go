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

package profiling

import (
	"testing"

	"cloud.google.com/go/profiler"
	"github.com/google/go-cmp/cmp"
)

func TestStartGCPProfiler(t *testing.T) {
	testCases := map[string]struct {
		service     string
		env         GCPProfilerEnvConfig
		wantStarted bool
		wantErr     bool
	}{
		"disabled": {
			service: "",
			env:     GCPProfilerEnvConfig{},
		},
		// The agent cannot be stopped once started, so only the failure path
		// is exercised for an enabled config.
		"enabled without service": {
			service: "",
			env:     GCPProfilerEnvConfig{GCPProfiler: true},
			wantErr: true,
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			started, err := StartGCPProfiler(tc.service, "proj", tc.env)
			if (err != nil) != tc.wantErr {
				t.Errorf("StartGCPProfiler() error = %v, wantErr %v", err, tc.wantErr)
			}
			if started != tc.wantStarted {
				t.Errorf("StartGCPProfiler() started = %v, want %v", started, tc.wantStarted)
			}
		})
	}
}

func TestProfilerConfig(t *testing.T) {
	testCases := map[string]struct {
		env  GCPProfilerEnvConfig
		want profiler.Config
	}{
		"client project": {
			env:  GCPProfilerEnvConfig{GCPProfiler: true, GCPProfilerServiceVersion: "0.1"},
			want: profiler.Config{Service: "receiver", ServiceVersion: "0.1", ProjectID: "proj"},
		},
		"override project": {
			env: GCPProfilerEnvConfig{
				GCPProfiler:               true,
				GCPProfilerProject:        "other",
				GCPProfilerServiceVersion: "2",
				GCPProfilerDebugLogging:   true,
				GCPProfilerMutexProfiling: true,
			},
			want: profiler.Config{Service: "receiver", ServiceVersion: "2", ProjectID: "other", DebugLogging: true, MutexProfiling: true},
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			got := tc.env.ProfilerConfig("receiver", "proj")
			// profiler.Config carries unexported fields, so compare the ones set here.
			type fields struct {
				Service, ServiceVersion, ProjectID string
				DebugLogging, MutexProfiling       bool
			}
			project := func(c profiler.Config) fields {
				return fields{c.Service, c.ServiceVersion, c.ProjectID, c.DebugLogging, c.MutexProfiling}
			}
			if diff := cmp.Diff(project(tc.want), project(got)); diff != "" {
				t.Error("unexpected config (-want, +got) = ", diff)
			}
		})
	}
}
