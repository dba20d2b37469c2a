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

// Package storage provides bucket and object handles over the Cloud Storage
// JSON API.
package storage

import (
	"context"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/google/gcp-rest-client/pkg/gclient/rest"
)

// Client creates bucket and object handles bound to a REST client.
type Client struct {
	rest *rest.Client
}

// NewClient wraps c. Handles created from the returned Client share c.
func NewClient(c *rest.Client) *Client {
	return &Client{rest: c}
}

// Bucket returns a handle for the named bucket. No I/O happens.
func (c *Client) Bucket(name string) *Bucket {
	return &Bucket{client: c.rest, name: name}
}

// Object returns a handle for the named object. No I/O happens.
func (c *Client) Object(bucket, name string) *Object {
	return ObjectRef{Bucket: bucket, Name: name}.Bind(c)
}

// Bucket is a handle for a bucket.
type Bucket struct {
	client *rest.Client
	name   string
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Object returns a handle for the named object in the bucket.
func (b *Bucket) Object(name string) *Object {
	o := &Object{ObjectRef: ObjectRef{Bucket: b.name, Name: name}}
	if b.client != nil {
		o.client.Store(b.client)
	}
	return o
}

// List returns the metadata of every object whose name starts with prefix,
// following pagination until the listing is exhausted.
func (b *Bucket) List(ctx context.Context, prefix string) ([]*ObjectResource, error) {
	if b.client == nil {
		return nil, rest.ErrNotBound
	}
	var all []*ObjectResource
	pageToken := ""
	for {
		q := url.Values{}
		if prefix != "" {
			q.Set("prefix", prefix)
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		uri := BucketURI(b.client.StorageEndpoint(), b.name) + "/o"
		if len(q) > 0 {
			uri += "?" + q.Encode()
		}
		var page objectList
		if err := b.client.Call(ctx, http.MethodGet, uri, b.name, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// ObjectRef identifies an object. It carries no client and can be freely
// copied and serialized.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// Bind returns a handle for the referenced object that uses c.
func (r ObjectRef) Bind(c *Client) *Object {
	o := &Object{ObjectRef: r}
	if c != nil && c.rest != nil {
		o.client.Store(c.rest)
	}
	return o
}

// Object is a handle for an object. A handle that was not created through a
// Client, or whose object was destroyed through it, is unbound: every
// operation on it returns rest.ErrNotBound without any I/O.
type Object struct {
	ObjectRef
	client atomic.Pointer[rest.Client]
}

func (o *Object) bound() (*rest.Client, error) {
	c := o.client.Load()
	if c == nil {
		return nil, rest.ErrNotBound
	}
	return c, nil
}

// Bound reports whether the handle can be used.
func (o *Object) Bound() bool {
	return o.client.Load() != nil
}

func (o *Object) resource() string {
	return o.Bucket + "/" + o.Name
}

// Attrs fetches the object's metadata.
func (o *Object) Attrs(ctx context.Context) (*ObjectResource, error) {
	c, err := o.bound()
	if err != nil {
		return nil, err
	}
	res := &ObjectResource{}
	if err := c.Call(ctx, http.MethodGet, ObjectURI(c.StorageEndpoint(), o.Bucket, o.Name), o.resource(), nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

// CopyTo copies the object to dst and returns the metadata of the new object.
// metadata, when non-nil, is sent as the request body and overrides fields of
// the destination object.
func (o *Object) CopyTo(ctx context.Context, dst ObjectRef, metadata interface{}) (*ObjectResource, error) {
	c, err := o.bound()
	if err != nil {
		return nil, err
	}
	uri := CopyURI(c.StorageEndpoint(), o.ObjectRef, dst)
	res := &ObjectResource{}
	if err := c.Call(ctx, http.MethodPost, uri, o.resource(), metadata, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Destroy deletes the object. Once the service confirms the deletion the
// handle is unbound and every further operation returns rest.ErrNotBound. A
// failed Destroy, including not found, leaves the handle usable.
func (o *Object) Destroy(ctx context.Context) error {
	c, err := o.bound()
	if err != nil {
		return err
	}
	if err := c.Call(ctx, http.MethodDelete, ObjectURI(c.StorageEndpoint(), o.Bucket, o.Name), o.resource(), nil, nil); err != nil {
		return err
	}
	o.client.CompareAndSwap(c, nil)
	return nil
}

// BucketURI returns the REST URI of a bucket.
func BucketURI(endpoint, bucket string) string {
	return endpoint + "/b/" + bucket
}

// ObjectURI returns the REST URI of an object. Names are appended verbatim
// and must already be valid path segments.
func ObjectURI(endpoint, bucket, object string) string {
	return BucketURI(endpoint, bucket) + "/o/" + object
}

// CopyURI returns the REST URI that copies src to dst.
func CopyURI(endpoint string, src, dst ObjectRef) string {
	return ObjectURI(endpoint, src.Bucket, src.Name) + "/copyTo/b/" + dst.Bucket + "/o/" + dst.Name
}
