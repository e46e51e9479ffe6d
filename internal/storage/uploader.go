// Package storage uploads user media (profile avatars, recipe photos) to an
// external object store and returns publicly resolvable URLs.
//
// Uploads go through an ordered chain of strategies tried in sequence until
// one succeeds. The store occasionally rejects a path that is perfectly fine
// moments later (policy propagation, name collisions), so the chain retries
// under alternate path/naming schemes rather than hammering the same request.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrAllStrategiesFailed is returned when every strategy in the chain failed.
// The last strategy's error is wrapped and available via errors.Unwrap.
var ErrAllStrategiesFailed = errors.New("all upload strategies failed")

// File is an in-memory object to upload.
type File struct {
	// Name is the client-supplied file name; strategies may rename it.
	Name string
	// ContentType is the MIME type sent to the store.
	ContentType string
	// Data is the raw content.
	Data []byte
}

// Strategy is one way of placing a file into the object store. Upload returns
// the public URL of the stored object on success.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Upload stores the file under a path namespaced by userID.
	Upload(ctx context.Context, userID string, f File) (string, error)
}

// Uploader tries an ordered list of strategies, stopping at the first
// success.
type Uploader struct {
	strategies []Strategy
}

// NewUploader builds an Uploader over the given chain. Order matters: the
// preferred strategy goes first.
func NewUploader(strategies ...Strategy) *Uploader {
	return &Uploader{strategies: strategies}
}

// Upload runs the chain. It returns the first successful URL, or
// ErrAllStrategiesFailed (wrapping the final attempt's error) when the whole
// chain is exhausted.
func (u *Uploader) Upload(ctx context.Context, userID string, f File) (string, error) {
	if len(u.strategies) == 0 {
		return "", ErrAllStrategiesFailed
	}
	var lastErr error
	for _, s := range u.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		url, err := s.Upload(ctx, userID, f)
		if err == nil {
			return url, nil
		}
		lastErr = fmt.Errorf("%s: %w", s.Name(), err)
	}
	return "", fmt.Errorf("%w: %w", ErrAllStrategiesFailed, lastErr)
}
