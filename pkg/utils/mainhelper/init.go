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

// Package mainhelper provides helper functions for common boilerplate code in
// writing a main function such as building the logger and the REST client.
package mainhelper

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/google/gcp-rest-client/pkg/gclient/auth"
	"github.com/google/gcp-rest-client/pkg/gclient/metadata"
	"github.com/google/gcp-rest-client/pkg/gclient/rest"
	"github.com/google/gcp-rest-client/pkg/logging"
	"github.com/google/gcp-rest-client/pkg/utils"
	"github.com/google/gcp-rest-client/pkg/utils/clients"
	"github.com/google/gcp-rest-client/pkg/utils/profiling"
)

// EnvConfig is the environment shared by every binary.
type EnvConfig struct {
	// ProjectID falls back to the metadata server when empty.
	ProjectID string `envconfig:"PROJECT_ID"`

	PubSubEndpoint  string `envconfig:"PUBSUB_ENDPOINT" default:"https://pubsub.googleapis.com/v1"`
	StorageEndpoint string `envconfig:"STORAGE_ENDPOINT" default:"https://storage.googleapis.com/storage/v1"`

	// CredentialsFile is watched and reloaded when it changes.
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	MaxConnsPerHost int `envconfig:"MAX_CONNS_PER_HOST" default:"100"`

	// BearerToken, when set, is sent as is. Meant for emulators.
	BearerToken string `envconfig:"BEARER_TOKEN"`

	profiling.GCPProfilerEnvConfig
}

// InitRes holds a collection of objects after init for convenient access by
// other custom logic in the main function.
type InitRes struct {
	Logger  *zap.Logger
	Client  *rest.Client
	Env     EnvConfig
	Cleanup func()
}

// Init runs common logic in starting a main function: it processes the env,
// builds a logger and an authenticated REST client, and returns a context
// carrying the logger that is cancelled on SIGINT or SIGTERM. Any failure is
// fatal.
func Init(component string, opts ...InitOption) (context.Context, *InitRes) {
	args := newInitArgs(component, opts...)

	var env EnvConfig
	ProcessEnvConfigOrDie(&env)
	ProcessEnvConfigOrDie(args.env)

	logger := args.logger
	if logger == nil {
		var err error
		if logger, err = NewLogger(component); err != nil {
			log.Fatalf("Unable to create logger: %v", err)
		}
	}
	ctx := logging.WithLogger(args.ctx, logger)
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	client, closeClient, err := NewRESTClient(ctx, env, args.metadataClient)
	if err != nil {
		logger.Fatal("Failed to create REST client", zap.Error(err))
	}
	logger.Info("Using project", zap.String("project", client.ProjectID()))

	started, err := profiling.StartGCPProfiler(component, client.ProjectID(), env.GCPProfilerEnvConfig)
	if err != nil {
		logger.Fatal("Failed to start GCP Profiler", zap.Error(err))
	}
	if started {
		logger.Info("GCP Profiler enabled", zap.Any("gcpProfilerConfig", env.GCPProfilerEnvConfig))
	}

	return ctx, &InitRes{
		Logger: logger,
		Client: client,
		Env:    env,
		Cleanup: func() {
			closeClient()
			cancel()
			_ = logger.Sync()
		},
	}
}

// NewLogger builds the production JSON logger used by every binary.
func NewLogger(component string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(component), nil
}

// NewRESTClient builds a REST client from env. The token provider is chosen
// in this order: a static bearer token, a watched credentials file, then
// application default credentials. A nil md resolves the project ID through
// the default metadata client. The returned func releases the provider.
func NewRESTClient(ctx context.Context, env EnvConfig, md metadata.Client) (*rest.Client, func(), error) {
	noop := func() {}
	projectID, err := resolveProjectID(env.ProjectID, md)
	if err != nil {
		return nil, noop, fmt.Errorf("resolving project ID: %w", err)
	}

	var (
		tokens  rest.TokenProvider
		release = noop
	)
	switch {
	case env.BearerToken != "":
		tokens = auth.Static(env.BearerToken)
	case env.CredentialsFile != "" && fileExists(env.CredentialsFile):
		p, err := auth.NewFileTokenProvider(ctx, env.CredentialsFile)
		if err != nil {
			return nil, noop, fmt.Errorf("loading credentials file: %w", err)
		}
		tokens = p
		release = func() { p.Close() }
	default:
		ts, err := auth.Default(ctx)
		if err != nil {
			return nil, noop, err
		}
		tokens = ts
	}

	reporter, err := rest.NewStatsReporter(projectID)
	if err != nil {
		release()
		return nil, noop, err
	}

	c, err := rest.NewClient(projectID,
		rest.WithHTTPClient(clients.NewHTTPClient(ctx, clients.MaxConnsPerHost(env.MaxConnsPerHost))),
		rest.WithTokenProvider(tokens),
		rest.WithPubSubEndpoint(env.PubSubEndpoint),
		rest.WithStorageEndpoint(env.StorageEndpoint),
		rest.WithStatsReporter(reporter))
	if err != nil {
		release()
		return nil, noop, err
	}
	return c, release, nil
}

func resolveProjectID(projectID string, md metadata.Client) (string, error) {
	if md == nil {
		return utils.ProjectIDOrDefault(projectID)
	}
	return utils.ProjectID(projectID, md)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ProcessEnvConfigOrDie retrieves environment variables.
func ProcessEnvConfigOrDie(env interface{}) {
	if env == nil {
		return
	}
	if err := envconfig.Process("", env); err != nil {
		log.Fatal("Failed to process env var: ", err)
	}
}
