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

// Package profiling starts the Cloud Profiler agent when the environment
// asks for it.
package profiling

import (
	"errors"
	"fmt"

	"cloud.google.com/go/profiler"
)

// GCPProfilerEnvConfig is embedded in per-binary envconfig structs.
type GCPProfilerEnvConfig struct {
	// GCPProfiler accepts any value strconv.ParseBool does.
	GCPProfiler bool `envconfig:"GCP_PROFILER"`
	// GCPProfilerProject overrides the project the client resolved.
	GCPProfilerProject        string `envconfig:"GCP_PROFILER_PROJECT"`
	GCPProfilerServiceVersion string `envconfig:"GCP_PROFILER_SERVICE_VERSION" default:"0.1"`
	GCPProfilerDebugLogging   bool   `envconfig:"GCP_PROFILER_DEBUG_LOGGING"`
	GCPProfilerMutexProfiling bool   `envconfig:"GCP_PROFILER_MUTEX_PROFILING"`
}

// GCPProfilerEnabled returns true if the config enables the GCP Profiler.
func (c GCPProfilerEnvConfig) GCPProfilerEnabled() bool {
	return c.GCPProfiler
}

// ProfilerConfig returns the agent configuration for service. projectID is
// used unless GCP_PROFILER_PROJECT is set.
func (c GCPProfilerEnvConfig) ProfilerConfig(service, projectID string) profiler.Config {
	project := c.GCPProfilerProject
	if project == "" {
		project = projectID
	}
	return profiler.Config{
		Service:        service,
		ServiceVersion: c.GCPProfilerServiceVersion,
		ProjectID:      project,
		DebugLogging:   c.GCPProfilerDebugLogging,
		MutexProfiling: c.GCPProfilerMutexProfiling,
	}
}

// StartGCPProfiler starts the agent if env enables it and reports whether it
// did.
func StartGCPProfiler(service, projectID string, env GCPProfilerEnvConfig) (bool, error) {
	if !env.GCPProfilerEnabled() {
		return false, nil
	}
	if service == "" {
		return false, errors.New("profiler service name is empty")
	}
	if err := profiler.Start(env.ProfilerConfig(service, projectID)); err != nil {
		return false, fmt.Errorf("starting profiler: %w", err)
	}
	return true, nil
}
