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

package clients

import (
	"context"
	nethttp "net/http"
	"time"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/plugin/ochttp/propagation/tracecontext"
)

type MaxConnsPerHost int

// DefaultMaxConnsPerHost bounds connections to a single service endpoint.
const DefaultMaxConnsPerHost MaxConnsPerHost = 100

// NewHTTPClient returns a pooled client whose transport records opencensus
// spans and propagates W3C trace context.
func NewHTTPClient(_ context.Context, maxConnsPerHost MaxConnsPerHost) *nethttp.Client {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = DefaultMaxConnsPerHost
	}
	return &nethttp.Client{
		Transport: &ochttp.Transport{
			Base: &nethttp.Transport{
				Proxy:               nethttp.ProxyFromEnvironment,
				MaxIdleConns:        1000,
				MaxIdleConnsPerHost: int(maxConnsPerHost),
				MaxConnsPerHost:     int(maxConnsPerHost),
				IdleConnTimeout:     30 * time.Second,
			},
			Propagation: &tracecontext.HTTPFormat{},
		},
	}
}
