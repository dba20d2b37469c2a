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

package utils

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/google/gcp-rest-client/pkg/gclient/metadata"
	testingMetadataClient "github.com/google/gcp-rest-client/pkg/gclient/metadata/testing"
)

func TestProjectID(t *testing.T) {
	lookupErr := errors.New("metadata unavailable")
	testCases := map[string]struct {
		input   string
		env     string
		client  *testingMetadataClient.FakeClient
		want    string
		wantErr error
	}{
		"explicit project": {
			input:  "testing-project",
			env:    "env-project",
			client: testingMetadataClient.NewTestClient(),
			want:   "testing-project",
		},
		"env project": {
			env:    "env-project",
			client: testingMetadataClient.NewTestClient(),
			want:   "env-project",
		},
		"metadata project": {
			client: testingMetadataClient.NewTestClient(),
			want:   testingMetadataClient.FakeProjectID,
		},
		"not on GCE": {
			client:  &testingMetadataClient.FakeClient{},
			wantErr: ErrNoProjectID,
		},
		"metadata failure": {
			client:  &testingMetadataClient.FakeClient{GCE: true, Err: lookupErr},
			wantErr: lookupErr,
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			t.Setenv(ProjectIDEnvKey, tc.env)
			got, err := ProjectID(tc.input, tc.client)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ProjectID() error = %v, want %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Unexpected differences (-want +got): %v", diff)
			}
		})
	}
}

func TestProjectIDOrDefault(t *testing.T) {
	orig := defaultMetadataClientCreator
	defer func() { defaultMetadataClientCreator = orig }()
	defaultMetadataClientCreator = func() metadata.Client { return testingMetadataClient.NewTestClient() }
	t.Setenv(ProjectIDEnvKey, "")

	got, err := ProjectIDOrDefault("")
	if err != nil {
		t.Fatalf("ProjectIDOrDefault() = %v", err)
	}
	if diff := cmp.Diff(testingMetadataClient.FakeProjectID, got); diff != "" {
		t.Errorf("Unexpected differences (-want +got): %v", diff)
	}
}
