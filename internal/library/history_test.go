package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_FilterAndOrder(t *testing.T) {
	store := setupStore(t)

	rows := []*HistoryEntry{
		{EntityType: MediaTypeMovie, EntityKey: "tt0000001", Action: ActionInsert, Actor: ActorPopulation},
		{EntityType: MediaTypeMovie, EntityKey: "tt0000001", Action: ActionUpdate, Actor: ActorWebhook},
		{EntityType: MediaTypeMovie, EntityKey: "tt0000002", Action: ActionInsert, Actor: ActorPopulation},
		{EntityType: MediaTypeSeries, EntityKey: "tt0000003", Action: ActionInsert, Actor: ActorManual},
	}
	for _, h := range rows {
		require.NoError(t, store.AppendHistory(h))
	}

	byKey, total, err := store.History(HistoryFilter{EntityKey: ptr("tt0000001")})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, byKey, 2)
	// Newest first.
	assert.Equal(t, ActionUpdate, byKey[0].Action)
	assert.Equal(t, ActionInsert, byKey[1].Action)

	byActor, total, err := store.History(HistoryFilter{Actor: ptr(ActorPopulation)})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_ = byActor

	byType, total, err := store.History(HistoryFilter{EntityType: ptr(MediaTypeSeries)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	_ = byType

	page, total, err := store.History(HistoryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page, 2)
}

func TestHistory_OccurredAtDefaulted(t *testing.T) {
	store := setupStore(t)

	h := &HistoryEntry{EntityType: MediaTypeMovie, EntityKey: "tt0000001", Action: ActionInsert}
	require.NoError(t, store.AppendHistory(h))
	assert.False(t, h.OccurredAt.IsZero())
	assert.NotZero(t, h.ID)
}
