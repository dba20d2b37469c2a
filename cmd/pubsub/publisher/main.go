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

// Command publisher publishes a single message to a Pub/Sub topic.
package main

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/gclient/pubsub"
	"github.com/google/gcp-rest-client/pkg/logging"
	"github.com/google/gcp-rest-client/pkg/utils"
	"github.com/google/gcp-rest-client/pkg/utils/mainhelper"
)

const component = "publisher"

type envConfig struct {
	// Topic is the environment variable containing the PubSub Topic being
	// published to. In the form that is unique within the project.
	// E.g. 'laconia', not 'projects/my-gcp-project/topics/laconia'.
	Topic string `envconfig:"PUBSUB_TOPIC_ID" required:"true"`

	Message     string `envconfig:"MESSAGE"`
	OrderingKey string `envconfig:"ORDERING_KEY"`

	// Attributes is a base64-encoded JSON object of string attributes.
	Attributes string `envconfig:"ATTRIBUTES"`
}

func main() {
	flag.Parse()

	var env envConfig
	ctx, res := mainhelper.Init(component, mainhelper.WithEnv(&env))
	defer res.Cleanup()

	topic := pubsub.NewClient(res.Client).Topic(env.Topic)
	id, err := publish(ctx, topic, env)
	if err != nil {
		res.Logger.Fatal("Failed to publish", zap.Stringer("topic", topic), zap.Error(err))
	}
	res.Logger.Info("Published message", zap.Stringer("topic", topic), zap.String("messageId", id))
}

func publish(ctx context.Context, topic *pubsub.Topic, env envConfig) (string, error) {
	msg := &pubsub.Message{
		Data:        []byte(env.Message),
		OrderingKey: env.OrderingKey,
	}
	if env.Attributes != "" {
		attrs, err := utils.Base64ToMap(env.Attributes)
		if err != nil {
			return "", err
		}
		msg.Attributes = attrs
	}
	logging.FromContext(ctx).Debug("Publishing", zap.Int("bytes", len(msg.Data)), zap.Int("attributes", len(msg.Attributes)))
	ids, err := topic.Publish(ctx, msg)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New("publish response carried no message ID")
	}
	return ids[0], nil
}
