package blob

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// URLPrefix marks references handed out by a Registry
const URLPrefix = "blob:"

// ErrURLNotFound is returned for unknown or revoked URLs
var ErrURLNotFound = errors.New("blob URL not found or revoked")

// File is a user-selected file
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// Size returns the file length in bytes
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Registry hands out revocable URLs for files. Every Create must be paired
// with a Revoke by whoever owns the URL.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*File
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*File)}
}

// Create registers f and returns a new URL for it
func (r *Registry) Create(f *File) string {
	url := URLPrefix + uuid.NewString()

	r.mu.Lock()
	r.entries[url] = f
	r.mu.Unlock()

	return url
}

// Resolve returns the file behind url
func (r *Registry) Resolve(url string) (*File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.entries[url]
	if !ok {
		return nil, ErrURLNotFound
	}
	return f, nil
}

// Revoke releases url. Revoking twice is harmless.
func (r *Registry) Revoke(url string) {
	if url == "" {
		return
	}
	r.mu.Lock()
	delete(r.entries, url)
	r.mu.Unlock()
}

// Len returns the number of live URLs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ID strips the URL prefix, giving the path-safe identifier
func ID(url string) string {
	return strings.TrimPrefix(url, URLPrefix)
}

// URL rebuilds a registry URL from an identifier
func URL(id string) string {
	return URLPrefix + id
}
