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

// Package metadata wraps the GCE metadata server client used to discover the
// project a process runs in.
package metadata

import (
	"net"
	"net/http"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// Client is the subset of metadata.Client this module relies on.
type Client interface {
	// ProjectID returns the project ID of the instance.
	ProjectID() (string, error)
	// OnGCE reports whether a metadata server is reachable.
	OnGCE() bool
}

// defaultClient fails fast off GCE instead of waiting on the default
// transport timeouts.
var defaultClient = &http.Client{
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: 2 * time.Second,
	},
}

type metadataClient struct {
	metadata *metadata.Client
}

// NewClient returns a Client that queries the metadata server over hc.
func NewClient(hc *http.Client) Client {
	return &metadataClient{metadata: metadata.NewClient(hc)}
}

// NewDefaultClient returns a Client with short dial and header timeouts.
func NewDefaultClient() Client {
	return NewClient(defaultClient)
}

func (m *metadataClient) ProjectID() (string, error) {
	return m.metadata.ProjectID()
}

func (m *metadataClient) OnGCE() bool {
	return metadata.OnGCE()
}
