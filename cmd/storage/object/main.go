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

// Command object inspects, copies or deletes a Cloud Storage object and
// prints the result as YAML.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/google/gcp-rest-client/pkg/gclient/storage"
	"github.com/google/gcp-rest-client/pkg/utils/mainhelper"
)

const component = "object"

const (
	actionAttrs   = "attrs"
	actionCopy    = "copy"
	actionDestroy = "destroy"
)

type envConfig struct {
	Action string `envconfig:"OBJECT_ACTION" default:"attrs"`
	Bucket string `envconfig:"BUCKET" required:"true"`
	Object string `envconfig:"OBJECT" required:"true"`

	// DstBucket defaults to Bucket.
	DstBucket string `envconfig:"DST_BUCKET"`
	DstObject string `envconfig:"DST_OBJECT"`
}

func main() {
	flag.Parse()

	var env envConfig
	ctx, res := mainhelper.Init(component, mainhelper.WithEnv(&env))
	defer res.Cleanup()

	if err := run(ctx, storage.NewClient(res.Client), env, os.Stdout); err != nil {
		res.Logger.Fatal("Object action failed", zap.String("action", env.Action), zap.Error(err))
	}
}

type destroyResult struct {
	Deleted storage.ObjectRef `json:"deleted"`
}

func run(ctx context.Context, c *storage.Client, env envConfig, w io.Writer) error {
	obj := c.Object(env.Bucket, env.Object)

	var out interface{}
	switch env.Action {
	case actionAttrs:
		attrs, err := obj.Attrs(ctx)
		if err != nil {
			return err
		}
		out = attrs
	case actionCopy:
		if env.DstObject == "" {
			return fmt.Errorf("%s requires DST_OBJECT", actionCopy)
		}
		dst := storage.ObjectRef{Bucket: env.DstBucket, Name: env.DstObject}
		if dst.Bucket == "" {
			dst.Bucket = env.Bucket
		}
		attrs, err := obj.CopyTo(ctx, dst, nil)
		if err != nil {
			return err
		}
		out = attrs
	case actionDestroy:
		if err := obj.Destroy(ctx); err != nil {
			return err
		}
		out = destroyResult{Deleted: obj.ObjectRef}
	default:
		return fmt.Errorf("unknown action %q, want one of %s, %s, %s", env.Action, actionAttrs, actionCopy, actionDestroy)
	}

	b, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
