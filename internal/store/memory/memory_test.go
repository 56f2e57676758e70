package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haptiq/haptiq-server/internal/store"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCreateThenGet(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.CreateDocument(ctx, "rooms/123456", testDoc{Name: "a", Count: 2}))

	var got testDoc
	require.NoError(t, m.GetDocument(ctx, "rooms/123456", &got))
	assert.Equal(t, testDoc{Name: "a", Count: 2}, got)
}

func TestCreateExisting(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.CreateDocument(ctx, "rooms/1", testDoc{}))
	err := m.CreateDocument(ctx, "rooms/1", testDoc{})
	assert.ErrorIs(t, err, store.ErrExists)
}

func TestGetMissing(t *testing.T) {
	m := New()

	var got testDoc
	err := m.GetDocument(context.Background(), "rooms/nope", &got)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetMerge(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.SetDocument(ctx, "rooms/1", map[string]any{"name": "a", "count": 1}, false))
	require.NoError(t, m.SetDocument(ctx, "rooms/1", map[string]any{"count": 9}, true))

	var got testDoc
	require.NoError(t, m.GetDocument(ctx, "rooms/1", &got))
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 9, got.Count)
}

func TestListCollectionDirectChildrenOnly(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.SetDocument(ctx, "rooms/1/players/p1", testDoc{Name: "p1"}, false))
	require.NoError(t, m.SetDocument(ctx, "rooms/1/players/p2", testDoc{Name: "p2"}, false))
	require.NoError(t, m.SetDocument(ctx, "rooms/1/guesses/p1", testDoc{Name: "g"}, false))

	docs, err := m.ListCollection(ctx, "rooms/1/players")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestDeleteCollectionIdempotent(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.SetDocument(ctx, "rooms/1/votes/p1", testDoc{}, false))
	require.NoError(t, m.SetDocument(ctx, "rooms/1/votes/p2", testDoc{}, false))

	require.NoError(t, m.DeleteCollection(ctx, "rooms/1/votes"))
	docs, err := m.ListCollection(ctx, "rooms/1/votes")
	require.NoError(t, err)
	assert.Empty(t, docs)

	// Clearing an empty collection is not an error.
	require.NoError(t, m.DeleteCollection(ctx, "rooms/1/votes"))
}

func TestSubscribePrefix(t *testing.T) {
	m := New()
	ctx := context.Background()

	var events []store.Event
	unsub := m.Subscribe("rooms/1", func(ev store.Event) {
		events = append(events, ev)
	})
	defer unsub()

	require.NoError(t, m.SetDocument(ctx, "rooms/1/players/p1", testDoc{}, false))
	require.NoError(t, m.SetDocument(ctx, "rooms/2/players/p1", testDoc{}, false))
	require.NoError(t, m.DeleteDocument(ctx, "rooms/1/players/p1"))

	require.Len(t, events, 2)
	assert.Equal(t, store.EventSet, events[0].Kind)
	assert.Equal(t, store.EventDelete, events[1].Kind)

	unsub()
	require.NoError(t, m.SetDocument(ctx, "rooms/1/players/p2", testDoc{}, false))
	assert.Len(t, events, 2)
}

func TestRunBatchAtomic(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.SetDocument(ctx, "rooms/1/votes/p1", testDoc{}, false))

	err := m.RunBatch(ctx, []store.Op{
		{Kind: store.OpSet, Path: "rooms/1", Data: testDoc{Name: "room"}},
		{Kind: store.OpSet, Path: "rooms/1/players/host", Data: testDoc{Name: "host"}},
		{Kind: store.OpDelete, Path: "rooms/1/votes/p1"},
	})
	require.NoError(t, err)

	var room testDoc
	require.NoError(t, m.GetDocument(ctx, "rooms/1", &room))
	assert.Equal(t, "room", room.Name)

	var gone testDoc
	assert.ErrorIs(t, m.GetDocument(ctx, "rooms/1/votes/p1", &gone), store.ErrNotFound)
}

func TestDecodeMalformedFailsClosed(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.SetDocument(ctx, "rooms/1", map[string]any{"count": "not-a-number"}, false))

	var got testDoc
	err := m.GetDocument(ctx, "rooms/1", &got)
	assert.ErrorIs(t, err, store.ErrMalformed)
}
