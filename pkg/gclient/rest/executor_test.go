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
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type record struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func staticToken(token string) TokenProvider {
	return TokenProviderFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{
		WithHTTPClient(srv.Client()),
		WithTokenProvider(staticToken("tok")),
		WithPubSubEndpoint(srv.URL),
		WithStorageEndpoint(srv.URL + "/"),
	}, opts...)
	c, err := NewClient("proj", opts...)
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	return c, srv
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient("", WithTokenProvider(staticToken("t"))); err == nil {
		t.Error("NewClient with empty project succeeded, want error")
	}
	if _, err := NewClient("proj"); err == nil {
		t.Error("NewClient without token provider succeeded, want error")
	}
	c, err := NewClient("proj", WithTokenProvider(staticToken("t")), WithStorageEndpoint("http://localhost:9000/storage/v1/"))
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	if diff := cmp.Diff("http://localhost:9000/storage/v1", c.StorageEndpoint()); diff != "" {
		t.Error("unexpected storage endpoint (-want, +got) = ", diff)
	}
	if diff := cmp.Diff(DefaultPubSubEndpoint, c.PubSubEndpoint()); diff != "" {
		t.Error("unexpected pubsub endpoint (-want, +got) = ", diff)
	}
}

func TestNewRequestHeaders(t *testing.T) {
	c, err := NewClient("proj", WithTokenProvider(staticToken("secret")))
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}

	testCases := []struct {
		name            string
		body            interface{}
		wantContentType string
		wantBody        string
	}{{
		name: "no body",
	}, {
		name:            "json body",
		body:            record{Bucket: "b1", Name: "n1"},
		wantContentType: "application/json",
		wantBody:        `{"bucket":"b1","name":"n1"}`,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := c.NewRequest(context.Background(), http.MethodPost, "https://example.com/x", tc.body)
			if err != nil {
				t.Fatalf("NewRequest() = %v", err)
			}
			if diff := cmp.Diff("Bearer secret", req.Header.Get("Authorization")); diff != "" {
				t.Error("unexpected authorization (-want, +got) = ", diff)
			}
			if diff := cmp.Diff(tc.wantContentType, req.Header.Get("Content-Type")); diff != "" {
				t.Error("unexpected content type (-want, +got) = ", diff)
			}
			var got string
			if req.Body != nil {
				b, _ := ioutil.ReadAll(req.Body)
				got = string(b)
			}
			if diff := cmp.Diff(tc.wantBody, got); diff != "" {
				t.Error("unexpected body (-want, +got) = ", diff)
			}
		})
	}
}

func TestNewRequestEncodeFailure(t *testing.T) {
	c, _ := NewClient("proj", WithTokenProvider(staticToken("t")))
	_, err := c.NewRequest(context.Background(), http.MethodPost, "https://example.com", make(chan int))
	if !IsSerialization(err) {
		t.Errorf("NewRequest error got=%v, want SerializationError", err)
	}
}

func TestNewRequestInvalidURI(t *testing.T) {
	c, _ := NewClient("proj", WithTokenProvider(staticToken("t")))
	_, err := c.NewRequest(context.Background(), http.MethodGet, "https://example.com/b/b1/o/a%zz", nil)
	if !IsSerialization(err) {
		t.Errorf("NewRequest error got=%v, want SerializationError", err)
	}
	if IsTransport(err) || IsRemote(err) || IsNotFound(err) {
		t.Errorf("NewRequest error got=%v, classified as more than one kind", err)
	}
}

func TestNewRequestTokenFailure(t *testing.T) {
	tokenErr := errors.New("no credentials")
	c, _ := NewClient("proj", WithTokenProvider(TokenProviderFunc(func(context.Context) (string, error) {
		return "", tokenErr
	})))
	_, err := c.NewRequest(context.Background(), http.MethodGet, "https://example.com", nil)
	if !IsTransport(err) {
		t.Errorf("NewRequest error got=%v, want TransportError", err)
	}
	if !errors.Is(err, tokenErr) {
		t.Errorf("NewRequest error got=%v, want wrapped %v", err, tokenErr)
	}
}

func TestCallClassification(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		check    func(error) bool
		wantRec  *record
		wantCode int
	}{{
		name:    "ok decodes",
		status:  http.StatusOK,
		body:    `{"bucket":"b1","name":"n2"}`,
		check:   func(err error) bool { return err == nil },
		wantRec: &record{Bucket: "b1", Name: "n2"},
	}, {
		name:    "no content is success",
		status:  http.StatusNoContent,
		check:   func(err error) bool { return err == nil },
		wantRec: &record{},
	}, {
		name:    "not found with json body",
		status:  http.StatusNotFound,
		body:    `{"error":{"code":404,"message":"gone"}}`,
		check:   IsNotFound,
		wantRec: &record{},
	}, {
		name:    "not found with garbage body",
		status:  http.StatusNotFound,
		body:    `<html>`,
		check:   IsNotFound,
		wantRec: &record{},
	}, {
		name:    "malformed success body",
		status:  http.StatusOK,
		body:    `{"bucket":5}`,
		check:   IsSerialization,
		wantRec: &record{},
	}, {
		name:    "non json success body",
		status:  http.StatusOK,
		body:    `not json`,
		check:   IsSerialization,
		wantRec: &record{},
	}, {
		name:     "server error",
		status:   http.StatusServiceUnavailable,
		body:     strings.Repeat("x", 10000),
		check:    IsRemote,
		wantRec:  &record{},
		wantCode: http.StatusServiceUnavailable,
	}, {
		name:     "forbidden",
		status:   http.StatusForbidden,
		body:     "denied",
		check:    IsRemote,
		wantRec:  &record{},
		wantCode: http.StatusForbidden,
	}}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			got := &record{}
			err := c.Call(context.Background(), http.MethodGet, srv.URL+"/o/n1", "n1", nil, got)
			if !tc.check(err) {
				t.Fatalf("Call error got=%v, unexpected classification", err)
			}
			if diff := cmp.Diff(tc.wantRec, got); diff != "" {
				t.Error("unexpected result (-want, +got) = ", diff)
			}
			var re *RemoteError
			if errors.As(err, &re) {
				if re.Code != tc.wantCode {
					t.Errorf("RemoteError code got=%d, want=%d", re.Code, tc.wantCode)
				}
				if diff := cmp.Diff(tc.body, re.Body); diff != "" {
					t.Error("RemoteError body truncated (-want, +got) = ", diff)
				}
			}
			var nf *NotFoundError
			if errors.As(err, &nf) && nf.Resource != "n1" {
				t.Errorf("NotFoundError resource got=%q, want=n1", nf.Resource)
			}
		})
	}
}

func TestCallTransportError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	url := srv.URL
	srv.Close()

	err := c.Call(context.Background(), http.MethodGet, url, "thing", nil, nil)
	if !IsTransport(err) {
		t.Errorf("Call error got=%v, want TransportError", err)
	}
}

func TestCallSendsBody(t *testing.T) {
	var gotBody, gotAuth, gotType string
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	})
	if err := c.Call(context.Background(), http.MethodPost, srv.URL, "x", record{Bucket: "b", Name: "n"}, nil); err != nil {
		t.Fatalf("Call() = %v", err)
	}
	want := []string{`{"bucket":"b","name":"n"}`, "Bearer tok", "application/json"}
	if diff := cmp.Diff(want, []string{gotBody, gotAuth, gotType}); diff != "" {
		t.Error("unexpected request (-want, +got) = ", diff)
	}
}

func TestRemoteErrorAPIError(t *testing.T) {
	re := &RemoteError{Code: 400, Body: `{"error":{"code":400,"message":"bad ack id","status":"INVALID_ARGUMENT"}}`}
	apiErr := re.APIError()
	if apiErr == nil {
		t.Fatal("APIError() = nil, want parsed error")
	}
	if diff := cmp.Diff([]interface{}{400, "bad ack id"}, []interface{}{apiErr.Code, apiErr.Message}); diff != "" {
		t.Error("unexpected api error (-want, +got) = ", diff)
	}
	if got := (&RemoteError{Code: 502, Body: "bad gateway"}).APIError(); got != nil {
		t.Errorf("APIError() on plain body = %v, want nil", got)
	}
}

func TestRemoteErrorTemporary(t *testing.T) {
	for code, want := range map[int]bool{429: true, 500: true, 503: true, 400: false, 403: false} {
		if got := (&RemoteError{Code: code}).Temporary(); got != want {
			t.Errorf("Temporary() for %d got=%v, want=%v", code, got, want)
		}
	}
}

type fakeReporter struct {
	mu    sync.Mutex
	codes []int
}

func (r *fakeReporter) ReportRequest(args *ReportArgs, code int, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return nil
}

func TestCallReportsStats(t *testing.T) {
	rep := &fakeReporter{}
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}, WithStatsReporter(rep))
	_ = c.Call(context.Background(), http.MethodDelete, srv.URL, "x", nil, nil)
	if diff := cmp.Diff([]int{http.StatusConflict}, rep.codes); diff != "" {
		t.Error("unexpected reported codes (-want, +got) = ", diff)
	}
}
