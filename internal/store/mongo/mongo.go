// Package mongo backs the store contract with a MongoDB collection. Every
// document lives in one collection keyed by its path, with the payload
// kept as raw JSON so decode semantics match the in-memory backend
// exactly. Change notifications are in-process: they cover mutations that
// went through this instance, which is the deployment model of a single
// game server in front of the database.
package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haptiq/haptiq-server/internal/persistence/db"
	"github.com/haptiq/haptiq-server/internal/store"
)

type record struct {
	ID     string `bson:"_id"`
	Parent string `bson:"parent"`
	Data   []byte `bson:"data"`
}

type subscriber struct {
	prefix string
	fn     func(store.Event)
}

type Mongo struct {
	coll *mongodrv.Collection

	mu     sync.RWMutex
	subs   map[uint64]subscriber
	nextID uint64
}

func New(database *mongodrv.Database) *Mongo {
	return &Mongo{
		coll: database.Collection(db.GameDocumentsCollection),
		subs: make(map[uint64]subscriber),
	}
}

func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

func encode(data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrMalformed, err)
	}
	return raw, nil
}

func (m *Mongo) CreateDocument(ctx context.Context, path string, data any) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	_, err = m.coll.InsertOne(ctx, record{ID: path, Parent: parentOf(path), Data: raw})
	if mongodrv.IsDuplicateKeyError(err) {
		return store.ErrExists
	}
	if err != nil {
		return err
	}

	m.notify(store.Event{Path: path, Kind: store.EventSet})
	return nil
}

func (m *Mongo) GetDocument(ctx context.Context, path string, out any) error {
	var rec record
	err := m.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&rec)
	if err == mongodrv.ErrNoDocuments {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	return store.Document{Path: path, Data: rec.Data}.Decode(out)
}

func (m *Mongo) SetDocument(ctx context.Context, path string, data any, merge bool) error {
	raw, err := encode(data)
	if err != nil {
		return err
	}

	if merge {
		var existing record
		err := m.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&existing)
		if err == nil {
			raw, err = mergeJSON(existing.Data, raw)
			if err != nil {
				return err
			}
		} else if err != mongodrv.ErrNoDocuments {
			return err
		}
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": path},
		record{ID: path, Parent: parentOf(path), Data: raw}, opts); err != nil {
		return err
	}

	m.notify(store.Event{Path: path, Kind: store.EventSet})
	return nil
}

func (m *Mongo) DeleteDocument(ctx context.Context, path string) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": path})
	if err != nil {
		return err
	}

	if res.DeletedCount > 0 {
		m.notify(store.Event{Path: path, Kind: store.EventDelete})
	}
	return nil
}

func (m *Mongo) ListCollection(ctx context.Context, path string) ([]store.Document, error) {
	cursor, err := m.coll.Find(ctx, bson.M{"parent": path})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, store.Document{Path: rec.ID, Data: rec.Data})
	}
	return docs, nil
}

func (m *Mongo) DeleteCollection(ctx context.Context, path string) error {
	prefix := path + "/"

	cursor, err := m.coll.Find(ctx, bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}})
	if err != nil {
		return err
	}
	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return err
	}

	if len(recs) == 0 {
		return nil
	}

	if _, err := m.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}); err != nil {
		return err
	}

	for _, rec := range recs {
		m.notify(store.Event{Path: rec.ID, Kind: store.EventDelete})
	}
	return nil
}

func (m *Mongo) Subscribe(pathPrefix string, fn func(store.Event)) store.Unsubscribe {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[id] = subscriber{prefix: pathPrefix, fn: fn}
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

// RunBatch applies operations in order. Multi-document atomicity would
// need a replica set transaction; a failed batch can leave a prefix of
// its writes applied, which every batch in the game core tolerates.
func (m *Mongo) RunBatch(ctx context.Context, ops []store.Op) error {
	events := make([]store.Event, 0, len(ops))

	for _, op := range ops {
		switch op.Kind {
		case store.OpSet:
			raw, err := encode(op.Data)
			if err != nil {
				return err
			}

			if op.Merge {
				var existing record
				err := m.coll.FindOne(ctx, bson.M{"_id": op.Path}).Decode(&existing)
				if err == nil {
					raw, err = mergeJSON(existing.Data, raw)
					if err != nil {
						return err
					}
				} else if err != mongodrv.ErrNoDocuments {
					return err
				}
			}

			opts := options.Replace().SetUpsert(true)
			if _, err := m.coll.ReplaceOne(ctx, bson.M{"_id": op.Path},
				record{ID: op.Path, Parent: parentOf(op.Path), Data: raw}, opts); err != nil {
				return err
			}
			events = append(events, store.Event{Path: op.Path, Kind: store.EventSet})

		case store.OpDelete:
			res, err := m.coll.DeleteOne(ctx, bson.M{"_id": op.Path})
			if err != nil {
				return err
			}
			if res.DeletedCount > 0 {
				events = append(events, store.Event{Path: op.Path, Kind: store.EventDelete})
			}
		}
	}

	for _, ev := range events {
		m.notify(ev)
	}
	return nil
}

func (m *Mongo) notify(ev store.Event) {
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
