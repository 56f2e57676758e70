// Package store defines the minimal document-store contract the game core
// needs: document CRUD, collection listing and clearing, change
// subscriptions and batched writes. Any document database or bespoke
// realtime server satisfying these semantics is a valid backend.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrExists    = errors.New("document already exists")
	ErrMalformed = errors.New("malformed document")
)

// Document is a stored record plus its path. Payloads are kept as raw JSON
// so each backend can validate on decode and fail closed on junk.
type Document struct {
	Path string
	Data []byte
}

// Decode unmarshals the document into out. A record that does not match
// the expected schema is an ErrMalformed, never a silently defaulted value.
func (d Document) Decode(out any) error {
	if err := json.Unmarshal(d.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, d.Path, err)
	}
	return nil
}

// EventKind classifies a change notification.
type EventKind int

const (
	EventSet EventKind = iota
	EventDelete
)

// Event is delivered to subscribers when a document under their prefix
// changes.
type Event struct {
	Path string
	Kind EventKind
}

// Unsubscribe detaches a subscription. Safe to call more than once.
type Unsubscribe func()

// OpKind is the type of a batched operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// Op is one operation inside a batch. Batches apply atomically with
// respect to readers.
type Op struct {
	Kind  OpKind
	Path  string
	Data  any
	Merge bool
}

type Store interface {
	// CreateDocument writes a new document and fails with ErrExists if the
	// path is already occupied.
	CreateDocument(ctx context.Context, path string, data any) error

	// GetDocument decodes the document at path into out, or ErrNotFound.
	GetDocument(ctx context.Context, path string, out any) error

	// SetDocument upserts. With merge=true, top-level fields of data are
	// overlaid onto the existing document instead of replacing it.
	SetDocument(ctx context.Context, path string, data any, merge bool) error

	// DeleteDocument removes the document at path. Deleting a missing
	// document is not an error.
	DeleteDocument(ctx context.Context, path string) error

	// ListCollection returns the direct children of a collection path.
	// A missing collection yields an empty slice.
	ListCollection(ctx context.Context, path string) ([]Document, error)

	// DeleteCollection removes every document in the collection. Clearing
	// an already-empty collection succeeds (idempotent cleanup).
	DeleteCollection(ctx context.Context, path string) error

	// Subscribe registers fn for change events on any path with the given
	// prefix. fn must not block.
	Subscribe(pathPrefix string, fn func(Event)) Unsubscribe

	// RunBatch applies the operations as one atomic write.
	RunBatch(ctx context.Context, ops []Op) error
}
