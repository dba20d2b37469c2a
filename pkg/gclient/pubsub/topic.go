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

package pubsub

import (
	"context"
	"net/http"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

// Topic is a handle for a Pub/Sub topic. The zero value is not bound to a
// client; every operation on it returns rest.ErrNotBound.
type Topic struct {
	client  *rest.Client
	project string
	id      string
}

// TopicConfig is the topic resource as returned by the service.
type TopicConfig struct {
	Name                     string            `json:"name"`
	Labels                   map[string]string `json:"labels,omitempty"`
	KMSKeyName               string            `json:"kmsKeyName,omitempty"`
	MessageRetentionDuration string            `json:"messageRetentionDuration,omitempty"`
}

type publishRequest struct {
	Messages []EncodedMessage `json:"messages"`
}

type publishResponse struct {
	MessageIDs []string `json:"messageIds"`
}

// ID returns the topic ID.
func (t *Topic) ID() string {
	return t.id
}

// String returns the fully qualified topic name.
func (t *Topic) String() string {
	return TopicName(t.project, t.id)
}

func (t *Topic) uri() string {
	return TopicURI(t.client.PubSubEndpoint(), t.project, t.id)
}

// Publish publishes msgs in a single request and returns the server assigned
// message IDs in the same order. Publishing no messages is a no-op.
func (t *Topic) Publish(ctx context.Context, msgs ...*Message) ([]string, error) {
	if t.client == nil {
		return nil, rest.ErrNotBound
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	req := publishRequest{Messages: make([]EncodedMessage, 0, len(msgs))}
	for _, m := range msgs {
		req.Messages = append(req.Messages, m.Encode())
	}
	var resp publishResponse
	if err := t.client.Call(ctx, http.MethodPost, t.uri()+":publish", t.String(), req, &resp); err != nil {
		return nil, err
	}
	return resp.MessageIDs, nil
}

// PublishValue converts v and publishes it.
func (t *Topic) PublishValue(ctx context.Context, v ToPubSubMessage) (string, error) {
	if t.client == nil {
		return "", rest.ErrNotBound
	}
	msg, err := v.ToPubSubMessage()
	if err != nil {
		return "", &rest.SerializationError{Op: "convert message payload", Err: err}
	}
	ids, err := t.Publish(ctx, msg)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// Config fetches the topic resource.
func (t *Topic) Config(ctx context.Context) (*TopicConfig, error) {
	if t.client == nil {
		return nil, rest.ErrNotBound
	}
	cfg := &TopicConfig{}
	if err := t.client.Call(ctx, http.MethodGet, t.uri(), t.String(), nil, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether the topic exists.
func (t *Topic) Exists(ctx context.Context) (bool, error) {
	_, err := t.Config(ctx)
	if rest.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Delete deletes the topic. Subscriptions to it are detached, not deleted.
func (t *Topic) Delete(ctx context.Context) error {
	if t.client == nil {
		return rest.ErrNotBound
	}
	return t.client.Call(ctx, http.MethodDelete, t.uri(), t.String(), nil, nil)
}
