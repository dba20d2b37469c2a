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

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
	"github.com/google/gcp-rest-client/pkg/gclient/storage"
)

func newStorage(t *testing.T, h http.HandlerFunc) *storage.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := rest.NewClient("proj",
		rest.WithHTTPClient(srv.Client()),
		rest.WithTokenProvider(rest.TokenProviderFunc(func(context.Context) (string, error) { return "tok", nil })),
		rest.WithStorageEndpoint(srv.URL+"/storage/v1"))
	if err != nil {
		t.Fatal("NewClient() =", err)
	}
	return storage.NewClient(c)
}

func TestRun(t *testing.T) {
	testCases := map[string]struct {
		env      envConfig
		wantPath string
		reply    string
		want     string
		wantErr  bool
	}{
		"attrs": {
			env:      envConfig{Action: actionAttrs, Bucket: "b1", Object: "n1"},
			wantPath: "/storage/v1/b/b1/o/n1",
			reply:    `{"bucket":"b1","name":"n1","size":"3"}`,
			want:     "bucket: b1\nname: n1\nsize: \"3\"\n",
		},
		"copy within bucket": {
			env:      envConfig{Action: actionCopy, Bucket: "b1", Object: "n1", DstObject: "n2"},
			wantPath: "/storage/v1/b/b1/o/n1/copyTo/b/b1/o/n2",
			reply:    `{"bucket":"b1","name":"n2"}`,
			want:     "bucket: b1\nname: n2\n",
		},
		"destroy": {
			env:      envConfig{Action: actionDestroy, Bucket: "b1", Object: "n1"},
			wantPath: "/storage/v1/b/b1/o/n1",
			want:     "deleted:\n  bucket: b1\n  name: n1\n",
		},
		"copy without destination": {
			env:     envConfig{Action: actionCopy, Bucket: "b1", Object: "n1"},
			wantErr: true,
		},
		"unknown action": {
			env:     envConfig{Action: "rename", Bucket: "b1", Object: "n1"},
			wantErr: true,
		},
	}
	for n, tc := range testCases {
		t.Run(n, func(t *testing.T) {
			c := newStorage(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tc.wantPath {
					t.Errorf("request path = %q, want %q", r.URL.Path, tc.wantPath)
				}
				if tc.reply == "" {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				w.Write([]byte(tc.reply))
			})
			var buf bytes.Buffer
			err := run(context.Background(), c, tc.env, &buf)
			if (err != nil) != tc.wantErr {
				t.Fatalf("run() error = %v, wantErr %v", err, tc.wantErr)
			}
			if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
				t.Error("unexpected output (-want, +got) = ", diff)
			}
		})
	}
}
