// ServerPilot - Unattended Game Server Operations Agent
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/serverpilot

package search

import (
	"context"
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/serverpilot/internal/updater/remote"
)

// fakeGetter serves canned JSON documents by exact URL. Unknown URLs answer 404.
type fakeGetter struct {
	mu    sync.Mutex
	docs  map[string]string
	errs  map[string]error
	calls []string
}

func newFakeGetter(docs map[string]string) *fakeGetter {
	return &fakeGetter{docs: docs, errs: map[string]error{}}
}

func (f *fakeGetter) GetJSON(_ context.Context, url string, v any) error {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	doc, ok := f.docs[url]
	err := f.errs[url]
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return &remote.StatusError{URL: url, StatusCode: 404, Status: "404 Not Found"}
	}
	return json.Unmarshal([]byte(doc), v)
}

func (f *fakeGetter) called(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == url {
			return true
		}
	}
	return false
}

var errBoom = errors.New("connection reset")
