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

// Package rest executes authenticated JSON requests against Google Cloud REST
// endpoints and classifies their outcomes into a small set of typed errors.
package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	// DefaultPubSubEndpoint is the base URI of the Pub/Sub v1 REST API.
	DefaultPubSubEndpoint = "https://pubsub.googleapis.com/v1"
	// DefaultStorageEndpoint is the base URI of the Cloud Storage JSON API.
	DefaultStorageEndpoint = "https://storage.googleapis.com/storage/v1"
)

// TokenProvider supplies bearer tokens for outbound requests. Implementations
// must be safe for concurrent use; refreshing is their own concern.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to a TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token implements TokenProvider.
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client holds the configuration shared by every resource handle. It is
// immutable after NewClient returns and safe for concurrent use.
type Client struct {
	projectID       string
	httpClient      *http.Client
	tokens          TokenProvider
	pubsubEndpoint  string
	storageEndpoint string
	reporter        StatsReporter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenProvider sets the source of bearer tokens.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) {
		c.tokens = tp
	}
}

// WithPubSubEndpoint overrides the Pub/Sub base URI, e.g. to target an emulator.
func WithPubSubEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.pubsubEndpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithStorageEndpoint overrides the Cloud Storage base URI.
func WithStorageEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.storageEndpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithStatsReporter records one measurement per executed request.
func WithStatsReporter(r StatsReporter) Option {
	return func(c *Client) {
		c.reporter = r
	}
}

// NewClient creates a Client for the given project.
func NewClient(projectID string, opts ...Option) (*Client, error) {
	if projectID == "" {
		return nil, errors.New("project ID must not be empty")
	}
	c := &Client{
		projectID:       projectID,
		httpClient:      http.DefaultClient,
		pubsubEndpoint:  DefaultPubSubEndpoint,
		storageEndpoint: DefaultStorageEndpoint,
		reporter:        nopReporter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tokens == nil {
		return nil, errors.New("a token provider is required")
	}
	return c, nil
}

// ProjectID returns the project the client was created for.
func (c *Client) ProjectID() string {
	return c.projectID
}

// PubSubEndpoint returns the Pub/Sub base URI without a trailing slash.
func (c *Client) PubSubEndpoint() string {
	return c.pubsubEndpoint
}

// StorageEndpoint returns the Cloud Storage base URI without a trailing slash.
func (c *Client) StorageEndpoint() string {
	return c.storageEndpoint
}
