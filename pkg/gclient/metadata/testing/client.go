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

package testing

import (
	"github.com/google/gcp-rest-client/pkg/gclient/metadata"
)

const FakeProjectID = "fake-project-id"

// FakeClient is an in-memory metadata.Client. Lookups fail with Err when it
// is set.
type FakeClient struct {
	Project string
	GCE     bool
	Err     error
}

var _ metadata.Client = (*FakeClient)(nil)

// NewTestClient returns a FakeClient that behaves like a GCE instance.
func NewTestClient() *FakeClient {
	return &FakeClient{Project: FakeProjectID, GCE: true}
}

func (c *FakeClient) ProjectID() (string, error) {
	if c.Err != nil {
		return "", c.Err
	}
	return c.Project, nil
}

func (c *FakeClient) OnGCE() bool {
	return c.GCE
}
