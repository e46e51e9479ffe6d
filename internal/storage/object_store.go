// Package storage uploads user media to an external object store.
// This file implements the HTTP strategies for a Supabase-storage-compatible
// API: binary POST to /object/{bucket}/{path}, public URL under
// /object/public/{bucket}/{path}. Paths are prefixed with the owning user's
// ID so the store's per-identity access policies apply.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore is a minimal client for the store's object API, shared by the
// concrete strategies below.
type ObjectStore struct {
	baseURL string
	bucket  string
	apiKey  string
	http    *http.Client
}

// NewObjectStore returns a client for the given endpoint and bucket. A nil
// httpClient falls back to a client with a 30s timeout (uploads are slow on
// mobile links).
func NewObjectStore(baseURL, bucket, apiKey string, httpClient *http.Client) *ObjectStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ObjectStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// put uploads the file bytes to objectPath. When upsert is set, an existing
// object at the same path is overwritten instead of rejected.
func (s *ObjectStore) put(ctx context.Context, objectPath string, f File, upsert bool) (string, error) {
	u := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(f.Data))
	if err != nil {
		return "", err
	}
	if f.ContentType != "" {
		req.Header.Set("Content-Type", f.ContentType)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	if upsert {
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("object store: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

// NamedUpload stores the file under its client-supplied name inside the
// user's folder. Fails if an object with that name already exists.
type NamedUpload struct {
	Store *ObjectStore
}

// Name implements Strategy.
func (NamedUpload) Name() string { return "named" }

// Upload implements Strategy.
func (s NamedUpload) Upload(ctx context.Context, userID string, f File) (string, error) {
	name := sanitizeName(f.Name)
	if name == "" {
		name = "upload"
	}
	return s.Store.put(ctx, path.Join(userID, name), f, false)
}

// UniqueUpload stores the file under a generated unique name inside the
// user's folder, with upsert enabled. Used as the fallback when the named
// path is rejected (collision, stale policy).
type UniqueUpload struct {
	Store *ObjectStore
}

// Name implements Strategy.
func (UniqueUpload) Name() string { return "unique" }

// Upload implements Strategy.
func (s UniqueUpload) Upload(ctx context.Context, userID string, f File) (string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UTC().Unix(), uuid.NewString()[:8], extOf(f.Name))
	return s.Store.put(ctx, path.Join(userID, name), f, true)
}

// sanitizeName strips path separators and whitespace from a client-supplied
// file name.
func sanitizeName(name string) string {
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t':
			return '_'
		}
		return r
	}, name)
}

// extOf returns the extension of name including the dot, or "".
func extOf(name string) string {
	return path.Ext(sanitizeName(name))
}
