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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/logging"
)

// Do sends req over the client's transport and classifies the response.
// resource names the target for not-found diagnostics. When out is non-nil
// and the response carries a body, the body is decoded into out.
//
// Nothing is retried here; every failure is returned to the caller.
func (c *Client) Do(req *http.Request, resource string, out interface{}) error {
	ctx := req.Context()
	logger := logging.FromContext(ctx).With(
		zap.String("method", req.Method),
		zap.String("resource", resource))
	args := &ReportArgs{Method: req.Method, Service: req.URL.Host}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.report(ctx, args, 0, start)
		logger.Debug("Request failed", zap.Error(err))
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	c.report(ctx, args, resp.StatusCode, start)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: fmt.Errorf("reading response body: %w", err)}
	}
	logger.Debug("Request completed", zap.Int("statusCode", resp.StatusCode))

	return decodeResponse(resp.StatusCode, resp.Status, body, resource, out)
}

// Call builds an authenticated request and executes it.
func (c *Client) Call(ctx context.Context, method, uri, resource string, in, out interface{}) error {
	req, err := c.NewRequest(ctx, method, uri, in)
	if err != nil {
		return err
	}
	return c.Do(req, resource, out)
}

func decodeResponse(code int, status string, body []byte, resource string, out interface{}) error {
	switch {
	case code == http.StatusNotFound:
		return &NotFoundError{Resource: resource, Body: string(body)}
	case code < 200 || code > 299:
		return &RemoteError{Code: code, Status: status, Body: string(body)}
	case out == nil || len(body) == 0:
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &SerializationError{Op: "decode response body", Err: err}
	}
	return nil
}

func (c *Client) report(ctx context.Context, args *ReportArgs, code int, start time.Time) {
	if err := c.reporter.ReportRequest(args, code, time.Since(start)); err != nil {
		logging.FromContext(ctx).Debug("Failed to report request stats", zap.Error(err))
	}
}
