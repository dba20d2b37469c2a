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

package mainhelper

import (
	"context"

	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/gclient/metadata"
)

type initArgs struct {
	component string

	ctx            context.Context
	env            interface{}
	logger         *zap.Logger
	metadataClient metadata.Client
}

// InitOption customizes Init.
type InitOption func(*initArgs)

func newInitArgs(component string, opts ...InitOption) initArgs {
	args := initArgs{
		component: component,
	}
	for _, opt := range opts {
		opt(&args)
	}
	if args.ctx == nil {
		args.ctx = context.Background()
	}
	return args
}

// WithContext specifies the context to use.
func WithContext(ctx context.Context) InitOption {
	return func(args *initArgs) {
		args.ctx = ctx
	}
}

// WithEnv specifies a pointer to an envConfig struct.
func WithEnv(env interface{}) InitOption {
	return func(args *initArgs) {
		args.env = env
	}
}

// WithLogger uses logger instead of building a production logger.
func WithLogger(logger *zap.Logger) InitOption {
	return func(args *initArgs) {
		args.logger = logger
	}
}

// WithMetadataClient resolves the project ID through c instead of the
// default metadata server client.
func WithMetadataClient(c metadata.Client) InitOption {
	return func(args *initArgs) {
		args.metadataClient = c
	}
}
