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

// Package pubsub provides topic and subscription handles over the Pub/Sub v1
// REST API.
package pubsub

import (
	"fmt"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

// Client creates topic and subscription handles bound to a REST client.
type Client struct {
	rest *rest.Client
}

// NewClient wraps c. Handles created from the returned Client share c.
func NewClient(c *rest.Client) *Client {
	return &Client{rest: c}
}

// Project returns the project topics and subscriptions belong to.
func (c *Client) Project() string {
	if c.rest == nil {
		return ""
	}
	return c.rest.ProjectID()
}

// Topic returns a handle for the topic with the given ID. No I/O happens.
func (c *Client) Topic(id string) *Topic {
	return &Topic{client: c.rest, project: c.Project(), id: id}
}

// Subscription returns a handle for the subscription with the given ID. No
// I/O happens.
func (c *Client) Subscription(id string) *Subscription {
	return &Subscription{client: c.rest, project: c.Project(), id: id, ackDeadline: DefaultAckDeadline}
}

// TopicName returns the fully qualified topic name.
func TopicName(project, topic string) string {
	return fmt.Sprintf("projects/%s/topics/%s", project, topic)
}

// SubscriptionName returns the fully qualified subscription name.
func SubscriptionName(project, subscription string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", project, subscription)
}

// TopicURI returns the REST URI of a topic. Names are appended verbatim and
// must already be valid resource IDs.
func TopicURI(endpoint, project, topic string) string {
	return endpoint + "/" + TopicName(project, topic)
}

// SubscriptionURI returns the REST URI of a subscription.
func SubscriptionURI(endpoint, project, subscription string) string {
	return endpoint + "/" + SubscriptionName(project, subscription)
}
