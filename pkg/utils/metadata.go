/*
Copyright 2019 Google LLC

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

package utils

import (
	"errors"
	"os"

	"github.com/google/gcp-rest-client/pkg/gclient/metadata"
)

// ProjectIDEnvKey is the name of environmental variable for project ID
const ProjectIDEnvKey = "PROJECT_ID"

// ErrNoProjectID is returned when no source yields a project ID.
var ErrNoProjectID = errors.New("project ID is not set and no metadata server is reachable")

// defaultMetadataClientCreator can be swapped during testing.
var defaultMetadataClientCreator func() metadata.Client = metadata.NewDefaultClient

// ProjectIDOrDefault resolves the project ID with the default metadata client.
func ProjectIDOrDefault(projectID string) (string, error) {
	return ProjectID(projectID, defaultMetadataClientCreator())
}

// ProjectID returns the project ID by performing the following order:
// 1) if the input project ID is valid, simply use it.
// 2) if there is a PROJECT_ID environmental variable, use it.
// 3) ask the metadata server through client.
func ProjectID(projectID string, client metadata.Client) (string, error) {
	if projectID != "" {
		return projectID, nil
	}
	if env := os.Getenv(ProjectIDEnvKey); env != "" {
		return env, nil
	}
	if !client.OnGCE() {
		return "", ErrNoProjectID
	}
	return client.ProjectID()
}
