// Package memory implements the store contract with in-process maps. It is
// the reference backend for tests and single-box deployments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/haptiq/haptiq-server/internal/store"
)

type subscriber struct {
	id     uint64
	prefix string
	fn     func(store.Event)
}

type Memory struct {
	mu     sync.RWMutex
	docs   map[string][]byte
	subs   map[uint64]subscriber
	nextID uint64
}

func New() *Memory {
	return &Memory{
		docs: make(map[string][]byte),
		subs: make(map[uint64]subscriber),
	}
}

func encode(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
	}
	return raw, nil
}

func (m *Memory) CreateDocument(ctx context.Context, path string, data any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.docs[path]; exists {
		m.mu.Unlock()
		return store.ErrExists
	}
	m.docs[path] = raw
	m.mu.Unlock()

	m.notify(store.Event{Path: path, Kind: store.EventSet})
	return nil
}

func (m *Memory) GetDocument(ctx context.Context, path string, out any) error {
	m.mu.RLock()
	raw, ok := m.docs[path]
	m.mu.RUnlock()

	if !ok {
		return store.ErrNotFound
	}

	return store.Document{Path: path, Data: raw}.Decode(out)
}

func (m *Memory) SetDocument(ctx context.Context, path string, data any, merge bool) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if merge {
		if existing, ok := m.docs[path]; ok {
			merged, err := mergeJSON(existing, raw)
			if err != nil {
				m.mu.Unlock()
				return err
			}
			raw = merged
		}
	}
	m.docs[path] = raw
	m.mu.Unlock()

	m.notify(store.Event{Path: path, Kind: store.EventSet})
	return nil
}

func (m *Memory) DeleteDocument(ctx context.Context, path string) error {
	m.mu.Lock()
	_, existed := m.docs[path]
	delete(m.docs, path)
	m.mu.Unlock()

	if existed {
		m.notify(store.Event{Path: path, Kind: store.EventDelete})
	}
	return nil
}

func (m *Memory) ListCollection(ctx context.Context, path string) ([]store.Document, error) {
	prefix := path + "/"

	m.mu.RLock()
	docs := make([]store.Document, 0)
	for p, raw := range m.docs {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		// Direct children only, no nested collections.
		if strings.Contains(p[len(prefix):], "/") {
			continue
		}
		data := make([]byte, len(raw))
		copy(data, raw)
		docs = append(docs, store.Document{Path: p, Data: data})
	}
	m.mu.RUnlock()

	return docs, nil
}

func (m *Memory) DeleteCollection(ctx context.Context, path string) error {
	prefix := path + "/"

	m.mu.Lock()
	deleted := make([]string, 0)
	for p := range m.docs {
		if strings.HasPrefix(p, prefix) {
			delete(m.docs, p)
			deleted = append(deleted, p)
		}
	}
	m.mu.Unlock()

	for _, p := range deleted {
		m.notify(store.Event{Path: p, Kind: store.EventDelete})
	}
	return nil
}

func (m *Memory) Subscribe(pathPrefix string, fn func(store.Event)) store.Unsubscribe {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[id] = subscriber{id: id, prefix: pathPrefix, fn: fn}
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

func (m *Memory) RunBatch(ctx context.Context, ops []store.Op) error {
	// Encode everything first so a marshal failure leaves no partial state.
	encoded := make([][]byte, len(ops))
	for i, op := range ops {
		if op.Kind != store.OpSet {
			continue
		}
		raw, err := encode(op.Data)
		if err != nil {
			return err
		}
		encoded[i] = raw
	}

	events := make([]store.Event, 0, len(ops))

	m.mu.Lock()
	for i, op := range ops {
		switch op.Kind {
		case store.OpSet:
			raw := encoded[i]
			if op.Merge {
				if existing, ok := m.docs[op.Path]; ok {
					merged, err := mergeJSON(existing, raw)
					if err != nil {
						m.mu.Unlock()
						return err
					}
					raw = merged
				}
			}
			m.docs[op.Path] = raw
			events = append(events, store.Event{Path: op.Path, Kind: store.EventSet})
		case store.OpDelete:
			if _, ok := m.docs[op.Path]; ok {
				delete(m.docs, op.Path)
				events = append(events, store.Event{Path: op.Path, Kind: store.EventDelete})
			}
		}
	}
	m.mu.Unlock()

	for _, ev := range events {
		m.notify(ev)
	}
	return nil
}

func (m *Memory) notify(ev store.Event) {
	m.mu.RLock()
	targets := make([]func(store.Event), 0, len(m.subs))
	for _, s := range m.subs {
		if strings.HasPrefix(ev.Path, s.prefix) {
			targets = append(targets, s.fn)
		}
	}
	m.mu.RUnlock()

	for _, fn := range targets {
		fn(ev)
	}
}

func mergeJSON(existing, incoming []byte) ([]byte, error) {
	var base, overlay map[string]any
	if err := json.Unmarshal(existing, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
	}
	if err := json.Unmarshal(incoming, &overlay); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
	}

	for k, v := range overlay {
		base[k] = v
	}

	return json.Marshal(base)
}
