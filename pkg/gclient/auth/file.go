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

package auth

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/google/gcp-rest-client/pkg/logging"
)

// FileTokenProvider serves tokens from a credentials file and reloads the
// file when it changes on disk, e.g. when a mounted secret is rotated.
type FileTokenProvider struct {
	file    string
	scopes  []string
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	current *TokenSource
}

// NewFileTokenProvider loads file and starts watching it. Watching stops when
// ctx is done or Close is called.
func NewFileTokenProvider(ctx context.Context, file string, scopes ...string) (*FileTokenProvider, error) {
	ts, err := FromCredentialsFile(ctx, file, scopes...)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: secret volumes replace the file through a symlink
	// swap, which never produces an event on the file itself.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		watcher.Close()
		return nil, err
	}
	p := &FileTokenProvider{
		file:    filepath.Clean(file),
		scopes:  scopes,
		watcher: watcher,
		current: ts,
	}
	go p.watch(ctx)
	return p, nil
}

// Token implements rest.TokenProvider.
func (p *FileTokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	ts := p.current
	p.mu.RUnlock()
	return ts.Token(ctx)
}

// Close stops watching the credentials file.
func (p *FileTokenProvider) Close() error {
	return p.watcher.Close()
}

func (p *FileTokenProvider) watch(ctx context.Context) {
	logger := logging.FromContext(ctx).With(zap.String("file", p.file))
	for {
		select {
		case <-ctx.Done():
			p.watcher.Close()
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !p.affects(event.Name) {
				continue
			}
			p.reload(ctx, logger)
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Credentials watcher error", zap.Error(err))
		}
	}
}

func (p *FileTokenProvider) affects(name string) bool {
	name = filepath.Clean(name)
	if name == p.file {
		return true
	}
	// Kubernetes secret mounts update through a "..data" symlink.
	return filepath.Base(name) == "..data"
}

func (p *FileTokenProvider) reload(ctx context.Context, logger *zap.Logger) {
	ts, err := FromCredentialsFile(ctx, p.file, p.scopes...)
	if err != nil {
		// Keep serving the previous credentials; the file may be mid-write.
		logger.Warn("Failed to reload credentials", zap.Error(err))
		return
	}
	p.mu.Lock()
	p.current = ts
	p.mu.Unlock()
	logger.Info("Reloaded credentials")
}
