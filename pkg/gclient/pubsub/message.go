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
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

// Message is a Pub/Sub message with its payload in raw bytes.
type Message struct {
	// ID is assigned by the service and set only on received messages.
	ID string
	// Data is the message payload.
	Data []byte
	// Attributes are optional key-value labels.
	Attributes map[string]string
	// PublishTime is assigned by the service and set only on received messages.
	PublishTime time.Time
	// OrderingKey is passed through to the service as opaque metadata.
	OrderingKey string
}

// EncodedMessage is the JSON envelope of a message on the wire. Data is
// standard base64.
type EncodedMessage struct {
	Data        string            `json:"data,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime *time.Time        `json:"publishTime,omitempty"`
	OrderingKey string            `json:"orderingKey,omitempty"`
}

// Encode converts m into its wire envelope.
func (m *Message) Encode() EncodedMessage {
	e := EncodedMessage{
		Data:        base64.StdEncoding.EncodeToString(m.Data),
		Attributes:  m.Attributes,
		MessageID:   m.ID,
		OrderingKey: m.OrderingKey,
	}
	if !m.PublishTime.IsZero() {
		t := m.PublishTime
		e.PublishTime = &t
	}
	return e
}

// Decode converts the wire envelope back into a Message.
func (e EncodedMessage) Decode() (*Message, error) {
	data, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, &rest.SerializationError{Op: "decode message data", Err: err}
	}
	m := &Message{
		ID:          e.MessageID,
		Data:        data,
		Attributes:  e.Attributes,
		OrderingKey: e.OrderingKey,
	}
	if e.PublishTime != nil {
		m.PublishTime = *e.PublishTime
	}
	return m, nil
}

// FromPubSubMessage is implemented by payload types that can be built from a
// received message.
type FromPubSubMessage interface {
	FromPubSubMessage(msg *Message) error
}

// ToPubSubMessage is implemented by payload types that can be published.
type ToPubSubMessage interface {
	ToPubSubMessage() (*Message, error)
}

// EncodeJSON builds a message whose data is the JSON encoding of v.
func EncodeJSON(v interface{}, attributes map[string]string) (*Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &rest.SerializationError{Op: "encode message payload", Err: err}
	}
	return &Message{Data: data, Attributes: attributes}, nil
}

// DecodeJSON decodes the message data as JSON into v.
func DecodeJSON(msg *Message, v interface{}) error {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return &rest.SerializationError{Op: "decode message payload", Err: err}
	}
	return nil
}
