package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/pantry-service/internal/database"
	"github.com/fekuna/pantry-service/internal/ledger/dto"
	"github.com/fekuna/pantry-service/internal/model"
)

func seedItem(t *testing.T, db *sqlx.DB, owner, name string) string {
	t.Helper()
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := db.Exec(db.Rebind(`INSERT INTO inventory_items (id, owner_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		id, owner, name, now, now)
	require.NoError(t, err)
	return id
}

func event(owner, itemID string, action model.EventAction, delta int64, at time.Time) *model.ConsumptionEvent {
	return &model.ConsumptionEvent{
		ID:        uuid.New().String(),
		OwnerID:   owner,
		ItemID:    itemID,
		Action:    action,
		Delta:     decimal.NewFromInt(delta),
		CreatedAt: at.UTC(),
	}
}

func TestPGRepository_RecordRejectsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	itemID := seedItem(t, db, "u1", "Milk")

	assert.Error(t, repo.Record(ctx, event("u1", itemID, "spill", -1, time.Now())))
	assert.Error(t, repo.Record(ctx, event("u1", itemID, model.ActionAdd, 0, time.Now())))
	assert.NoError(t, repo.Record(ctx, event("u1", itemID, model.ActionAdd, 2, time.Now())))
}

func TestPGRepository_RecentDeltas(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	itemID := seedItem(t, db, "u1", "Yogurt")
	otherID := seedItem(t, db, "u2", "Yogurt")

	now := time.Now().UTC()
	require.NoError(t, repo.Record(ctx, event("u1", itemID, model.ActionAdd, 10, now.AddDate(0, 0, -30))))
	require.NoError(t, repo.Record(ctx, event("u1", itemID, model.ActionConsume, -3, now.AddDate(0, 0, -2))))
	require.NoError(t, repo.Record(ctx, event("u1", itemID, model.ActionConsume, -4, now.AddDate(0, 0, -5))))
	require.NoError(t, repo.Record(ctx, event("u2", otherID, model.ActionConsume, -1, now.AddDate(0, 0, -1))))

	deltas, err := repo.RecentDeltas(ctx, "u1", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, deltas, 2)
	assert.True(t, deltas[0].Delta.Equal(decimal.NewFromInt(-4)))
	assert.True(t, deltas[1].Delta.Equal(decimal.NewFromInt(-3)))
	assert.Equal(t, itemID, deltas[0].ItemID)
}

func TestPGRepository_FindAllAndSum(t *testing.T) {
	ctx := context.Background()
	db := database.NewTestDB(t)
	repo := NewPGRepository(db)
	milk := seedItem(t, db, "u1", "Milk")
	eggs := seedItem(t, db, "u1", "Eggs")

	now := time.Now().UTC()
	require.NoError(t, repo.Record(ctx, event("u1", milk, model.ActionAdd, 3, now.Add(-2*time.Hour))))
	require.NoError(t, repo.Record(ctx, event("u1", milk, model.ActionConsume, -1, now.Add(-time.Hour))))
	require.NoError(t, repo.Record(ctx, event("u1", eggs, model.ActionAdd, 12, now)))

	events, total, err := repo.FindAll(ctx, &dto.EventFilters{OwnerID: "u1", ItemID: milk})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.Equal(t, model.ActionConsume, events[0].Action)
	assert.Equal(t, "Milk", events[0].ItemName)

	consumed, _, err := repo.FindAll(ctx, &dto.EventFilters{OwnerID: "u1", Action: string(model.ActionAdd), PageSize: 1})
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.Equal(t, "Eggs", consumed[0].ItemName)

	sum, err := repo.SumByItem(ctx, "u1", milk)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(2)))

	require.NoError(t, repo.DeleteByItem(ctx, "u1", milk))
	sum, err = repo.SumByItem(ctx, "u1", milk)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}
