package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/testutil"
)

func TestAuditService_QueryNewestFirstWithResolvedRefs(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	audit := NewAuditService(store)

	alice := testutil.CreateUser(t, db, "alice", models.RoleLead)
	bob := testutil.CreateUser(t, db, "bob", models.RoleTeam)
	live := testutil.CreateTask(t, db, "live task", alice.ID, nil)
	gone := testutil.CreateTask(t, db, "gone task", alice.ID, nil)
	require.NoError(t, db.Delete(&models.Task{}, gone.ID).Error)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	record := func(at time.Time, table string, recordID uint64, action models.AuditAction) {
		audit.clock = func() time.Time { return at }
		require.NoError(t, audit.Record(ctx, store, RecordInput{
			TableName: table,
			RecordID:  recordID,
			Action:    action,
			NewData:   map[string]any{"id": recordID},
			ActorID:   alice.ID,
		}))
	}

	record(base.Add(2*time.Minute), "Task", live.ID, models.AuditActionUpdate)
	record(base, "Task", live.ID, models.AuditActionInsert)
	record(base.Add(time.Minute), "Task", gone.ID, models.AuditActionDelete)
	record(base.Add(3*time.Minute), "Comment", live.ID, models.AuditActionInsert)

	entries, total, err := audit.Query(ctx, alice, AuditQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, entries, 4)

	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].ChangedAt.After(entries[i-1].ChangedAt), "entries must be newest first")
	}

	assert.Equal(t, "Comment", entries[0].TableName)
	assert.Nil(t, entries[0].Task, "non-task entries are not resolved")
	assert.Equal(t, "alice", entries[0].ChangedBy.Username)
	assert.Equal(t, "alice@example.com", entries[0].ChangedBy.Email)

	require.NotNil(t, entries[1].Task)
	assert.Equal(t, "live task", entries[1].Task.Title)
	assert.Nil(t, entries[2].Task, "deleted tasks are not resolved")

	filtered, total, err := audit.Query(ctx, alice, AuditQuery{TableName: "tas"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, filtered, 3)

	page, total, err := audit.Query(ctx, alice, AuditQuery{Offset: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, page, 2)
	assert.Equal(t, entries[1].ID, page[0].ID)

	_, _, err = audit.Query(ctx, bob, AuditQuery{})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuditService_RecordLeavesAbsentImageNull(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	store := repository.NewStore(db)
	audit := NewAuditService(store)
	alice := testutil.CreateUser(t, db, "alice", models.RoleLead)

	require.NoError(t, audit.Record(ctx, store, RecordInput{
		TableName: "Task",
		RecordID:  1,
		Action:    models.AuditActionDelete,
		OldData:   TaskSnapshot{ID: 1, Title: "x"},
		ActorID:   alice.ID,
	}))

	var entry models.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.True(t, absent(entry.NewData))
	assert.JSONEq(t, `{"id":1,"title":"x","description":"","status":"","created_by_id":0,"assigned_to_id":null,"created_at":"0001-01-01T00:00:00Z","updated_at":"0001-01-01T00:00:00Z"}`, string(entry.OldData))
}

func TestUserService_ListTeamMembers(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	service := NewUserService(repository.NewUserRepository(db))

	alice := testutil.CreateUser(t, db, "alice", models.RoleLead)
	testutil.CreateUser(t, db, "dave", models.RoleTeam)
	bob := testutil.CreateUser(t, db, "bob", models.RoleTeam)

	users, err := service.ListTeamMembers(ctx, alice)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "dave", users[1].Username)

	_, err = service.ListTeamMembers(ctx, bob)
	assert.ErrorIs(t, err, ErrForbidden)
}
