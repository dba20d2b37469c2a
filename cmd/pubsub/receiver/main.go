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

// Command receiver pulls messages from a Pub/Sub subscription, logs each one
// as a CloudEvent and acknowledges it.
package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/gclient/pubsub"
	"github.com/google/gcp-rest-client/pkg/gclient/pubsub/converters"
	"github.com/google/gcp-rest-client/pkg/logging"
	"github.com/google/gcp-rest-client/pkg/utils/mainhelper"
)

const component = "receiver"

type envConfig struct {
	// Subscription is the environment variable containing the name of the
	// subscription to pull from, unique within the project.
	Subscription string `envconfig:"PUBSUB_SUBSCRIPTION_ID" required:"true"`

	MaxOutstandingMessages int           `envconfig:"MAX_OUTSTANDING_MESSAGES" default:"100"`
	MaxExtension           time.Duration `envconfig:"MAX_EXTENSION" default:"10m"`
}

func main() {
	flag.Parse()

	var env envConfig
	ctx, res := mainhelper.Init(component, mainhelper.WithEnv(&env))
	defer res.Cleanup()

	sub := pubsub.NewClient(res.Client).Subscription(env.Subscription)
	if cfg, err := sub.Config(ctx); err == nil {
		sub = sub.WithAckDeadline(cfg.AckDeadline())
	} else {
		res.Logger.Warn("Failed to read subscription config, using default ack deadline", zap.Error(err))
	}

	settings := pubsub.DefaultReceiveSettings
	settings.MaxOutstandingMessages = env.MaxOutstandingMessages
	settings.MaxExtension = env.MaxExtension

	res.Logger.Info("Receiving", zap.Stringer("subscription", sub), zap.Duration("ackDeadline", sub.AckDeadline()))
	if err := sub.Receive(ctx, settings, handler(res.Client.ProjectID(), env.Subscription)); err != nil {
		res.Logger.Fatal("Receive stopped", zap.Error(err))
	}
	res.Logger.Info("Shutting down")
}

func handler(project, subscription string) func(context.Context, *pubsub.ReceivedMessage) {
	return func(ctx context.Context, m *pubsub.ReceivedMessage) {
		logger := logging.FromContext(ctx)
		event, err := converters.ToCloudEvent(ctx, m, project, subscription)
		if err != nil {
			logger.Error("Failed to convert message", zap.Error(err))
			if err := m.Nack(ctx); err != nil {
				logger.Warn("Failed to nack message", zap.Error(err))
			}
			return
		}
		logger.Info("Received event", zap.Stringer("event", event))
		if err := m.Ack(ctx); err != nil {
			logger.Error("Failed to ack message", zap.Error(err))
		}
	}
}
