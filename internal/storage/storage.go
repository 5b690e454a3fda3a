// Package storage abstracts the blob store holding ticket photos.
package storage

import "context"

// BlobStore is the contract the photo pipeline needs from object storage.
type BlobStore interface {
	// Upload stores data under key with no-overwrite semantics: an existing
	// object under the same key must never be replaced.
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// PublicURL resolves a durable display address for an uploaded key.
	PublicURL(key string) string

	// Delete removes the object under key. Callers treat failures as
	// best-effort; an orphaned blob is harmless.
	Delete(ctx context.Context, key string) error

	// KeyFromURL recovers the storage key out of an address previously
	// produced by PublicURL.
	KeyFromURL(url string) (string, error)
}
