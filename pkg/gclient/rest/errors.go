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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrNotBound is returned by any operation invoked on a resource handle that
// was not obtained through a client, or whose remote resource was destroyed.
// It indicates caller misuse and is never retryable.
var ErrNotBound = errors.New("resource handle is not bound to a client")

// TransportError reports a failure to exchange a request with the remote
// service: connection, TLS, timeout, cancellation, or token acquisition.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a 404 response. Resource names what was requested.
type NotFoundError struct {
	Resource string
	Body     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// RemoteError reports any non-2xx response other than 404. Body holds the
// complete response body as returned by the service.
type RemoteError struct {
	Code   int
	Status string
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote service error: status %d: %s", e.Code, e.Body)
}

// APIError decodes the Google JSON error envelope carried in Body. It returns
// nil when the body is not such an envelope.
func (e *RemoteError) APIError() *googleapi.Error {
	var reply struct {
		Error *googleapi.Error `json:"error"`
	}
	if err := json.Unmarshal([]byte(e.Body), &reply); err != nil || reply.Error == nil {
		return nil
	}
	reply.Error.Body = e.Body
	if reply.Error.Code == 0 {
		reply.Error.Code = e.Code
	}
	return reply.Error
}

// Temporary reports whether the status code suggests the call may succeed if
// repeated.
func (e *RemoteError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// SerializationError reports a local failure to encode a request body or to
// decode a response body.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransport reports whether err is, or wraps, a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemote reports whether err is, or wraps, a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// IsSerialization reports whether err is, or wraps, a SerializationError.
func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}
