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

// Package auth provides bearer token providers for the REST client. Token
// acquisition itself is delegated to golang.org/x/oauth2.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/google/gcp-rest-client/pkg/logging"
)

// CredentialsEnvKey names the env var pointing at a credentials JSON file.
const CredentialsEnvKey = "GOOGLE_APPLICATION_CREDENTIALS"

// DefaultScopes covers every API the REST client talks to.
var DefaultScopes = []string{pubsub.ScopePubSub, storage.ScopeFullControl}

// Static always returns the same token. It is meant for emulators and tests.
type Static string

// Token implements rest.TokenProvider.
func (s Static) Token(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("static token is empty")
	}
	return string(s), nil
}

// TokenSource adapts an oauth2.TokenSource. The source is wrapped with
// oauth2.ReuseTokenSource so concurrent callers share one cached token and
// refresh happens only once it expires.
type TokenSource struct {
	ts oauth2.TokenSource
}

// NewTokenSource returns a provider backed by ts.
func NewTokenSource(ts oauth2.TokenSource) *TokenSource {
	return &TokenSource{ts: oauth2.ReuseTokenSource(nil, ts)}
}

// Token implements rest.TokenProvider.
func (t *TokenSource) Token(context.Context) (string, error) {
	tok, err := t.ts.Token()
	if err != nil {
		return "", err
	}
	if !tok.Valid() {
		return "", errors.New("token is not valid")
	}
	return tok.AccessToken, nil
}

// FromCredentialsFile reads a service account or user credentials JSON file.
func FromCredentialsFile(ctx context.Context, file string, scopes ...string) (*TokenSource, error) {
	creds, err := credentialsFromFile(ctx, file, scopes...)
	if err != nil {
		return nil, err
	}
	return NewTokenSource(creds.TokenSource), nil
}

// Default finds application default credentials: the file named by
// GOOGLE_APPLICATION_CREDENTIALS, gcloud user credentials, or the metadata
// server.
func Default(ctx context.Context, scopes ...string) (*TokenSource, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	unsetMissingCredentialsFile()
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("error finding the default credential: %w", err)
	}
	return NewTokenSource(creds.TokenSource), nil
}

func credentialsFromFile(ctx context.Context, file string, scopes ...string) (*google.Credentials, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	bytes, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, bytes, scopes...)
	if err != nil {
		logging.FromContext(ctx).Error("Unable to create the GCP credential", zap.String("file", file), zap.Error(err))
		return nil, err
	}
	return creds, nil
}

// unsetMissingCredentialsFile unsets GOOGLE_APPLICATION_CREDENTIALS when the
// file it names does not exist, so default credential lookup falls through to
// the metadata server instead of failing. Mounted secrets are optional under
// workload identity.
func unsetMissingCredentialsFile() {
	path := os.Getenv(CredentialsEnvKey)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		os.Unsetenv(CredentialsEnvKey)
	}
}
