package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/task-tracker/internal/models"
	"github.com/yukikurage/task-tracker/internal/policy"
	"github.com/yukikurage/task-tracker/internal/repository"
	"github.com/yukikurage/task-tracker/internal/testutil"
	"gorm.io/gorm"
)

type TaskServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *TaskService
	ctx     context.Context

	alice *models.User
	carol *models.User
	bob   *models.User
	dave  *models.User
}

func (suite *TaskServiceTestSuite) SetupTest() {
	suite.db = testutil.NewDB(suite.T())
	suite.ctx = context.Background()

	store := repository.NewStore(suite.db)
	suite.service = NewTaskService(store, NewAuditService(store))

	suite.alice = testutil.CreateUser(suite.T(), suite.db, "alice", models.RoleLead)
	suite.carol = testutil.CreateUser(suite.T(), suite.db, "carol", models.RoleLead)
	suite.bob = testutil.CreateUser(suite.T(), suite.db, "bob", models.RoleTeam)
	suite.dave = testutil.CreateUser(suite.T(), suite.db, "dave", models.RoleTeam)
}

func (suite *TaskServiceTestSuite) assignedTask(title string) *models.Task {
	return testutil.CreateTask(suite.T(), suite.db, title, suite.alice.ID, &suite.bob.ID)
}

func (suite *TaskServiceTestSuite) auditEntries() []models.AuditLog {
	var entries []models.AuditLog
	suite.Require().NoError(suite.db.Order("id ASC").Find(&entries).Error)
	return entries
}

func (suite *TaskServiceTestSuite) committed(id uint64) *models.Task {
	var task models.Task
	suite.Require().NoError(suite.db.First(&task, id).Error)
	return &task
}

func (suite *TaskServiceTestSuite) snapshotJSON(task *models.Task) string {
	raw, err := json.Marshal(SnapshotOf(task))
	suite.Require().NoError(err)
	return string(raw)
}

func (suite *TaskServiceTestSuite) decode(data []byte) TaskSnapshot {
	var snapshot TaskSnapshot
	suite.Require().NoError(json.Unmarshal(data, &snapshot))
	return snapshot
}

func (suite *TaskServiceTestSuite) countTasks() int64 {
	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&count).Error)
	return count
}

func absent(data []byte) bool {
	return len(data) == 0 || string(data) == "null"
}

func statusPtr(s models.TaskStatus) *models.TaskStatus {
	return &s
}

func strPtr(s string) *string {
	return &s
}

func (suite *TaskServiceTestSuite) TestCreate_Defaults() {
	task, err := suite.service.Create(suite.ctx, suite.alice, CreateTaskInput{Title: "  Ship v1 ", Description: "first release"})
	suite.Require().NoError(err)

	suite.Equal("Ship v1", task.Title)
	suite.Equal(models.TaskStatusNotStarted, task.Status)
	suite.Equal(suite.alice.ID, task.CreatedByID)
	suite.Equal("alice", task.CreatedBy.Username)
	suite.Nil(task.AssignedToID)
	suite.Nil(task.AssignedTo)

	entries := suite.auditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal("Task", entries[0].TableName)
	suite.Equal(task.ID, entries[0].RecordID)
	suite.Equal(models.AuditActionInsert, entries[0].Action)
	suite.Equal(suite.alice.ID, entries[0].ChangedByID)
	suite.True(absent(entries[0].OldData))
	suite.JSONEq(suite.snapshotJSON(suite.committed(task.ID)), string(entries[0].NewData))
}

func (suite *TaskServiceTestSuite) TestCreate_WithTeamAssignee() {
	task, err := suite.service.Create(suite.ctx, suite.alice, CreateTaskInput{Title: "Ship v1", AssignedTo: &suite.bob.ID})
	suite.Require().NoError(err)

	suite.Require().NotNil(task.AssignedToID)
	suite.Equal(suite.bob.ID, *task.AssignedToID)
	suite.Equal("bob", task.AssignedTo.Username)

	snapshot := suite.decode(suite.auditEntries()[0].NewData)
	suite.Require().NotNil(snapshot.AssignedToID)
	suite.Equal(suite.bob.ID, *snapshot.AssignedToID)
}

func (suite *TaskServiceTestSuite) TestCreate_Rejections() {
	missing := uint64(9999)
	tests := []struct {
		name  string
		actor *models.User
		input CreateTaskInput
		want  error
	}{
		{"lead assignee", suite.alice, CreateTaskInput{Title: "x", AssignedTo: &suite.carol.ID}, ErrInvalidAssignee},
		{"missing assignee", suite.alice, CreateTaskInput{Title: "x", AssignedTo: &missing}, ErrAssigneeNotFound},
		{"empty title", suite.alice, CreateTaskInput{Title: "   "}, ErrValidation},
		{"team actor", suite.bob, CreateTaskInput{Title: "x"}, ErrForbidden},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.Create(suite.ctx, tt.actor, tt.input)
			suite.ErrorIs(err, tt.want)
		})
	}

	suite.Zero(suite.countTasks())
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestGet() {
	task := suite.assignedTask("Ship v1")

	got, err := suite.service.Get(suite.ctx, suite.alice, task.ID)
	suite.Require().NoError(err)
	suite.Equal("bob", got.AssignedTo.Username)

	_, err = suite.service.Get(suite.ctx, suite.bob, task.ID)
	suite.NoError(err)

	_, err = suite.service.Get(suite.ctx, suite.carol, task.ID)
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.service.Get(suite.ctx, suite.dave, task.ID)
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.service.Get(suite.ctx, suite.alice, 9999)
	suite.ErrorIs(err, ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestUpdate_LeadChangesAnyField() {
	task := testutil.CreateTask(suite.T(), suite.db, "Draft", suite.alice.ID, nil)
	before := suite.snapshotJSON(suite.committed(task.ID))

	updated, err := suite.service.Update(suite.ctx, suite.alice, task.ID, UpdateTaskInput{
		Title:       strPtr("Final"),
		Description: strPtr("ready"),
		Status:      statusPtr(models.TaskStatusOnProgress),
		AssignedTo:  &suite.bob.ID,
	})
	suite.Require().NoError(err)

	suite.Equal("Final", updated.Title)
	suite.Equal("ready", updated.Description)
	suite.Equal(models.TaskStatusOnProgress, updated.Status)
	suite.Equal(suite.bob.ID, *updated.AssignedToID)
	suite.False(updated.UpdatedAt.Before(task.UpdatedAt))

	entries := suite.auditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal(models.AuditActionUpdate, entries[0].Action)
	suite.JSONEq(before, string(entries[0].OldData))
	suite.JSONEq(suite.snapshotJSON(suite.committed(task.ID)), string(entries[0].NewData))
}

func (suite *TaskServiceTestSuite) TestUpdate_LeadClearsAssignee() {
	task := suite.assignedTask("Ship v1")

	updated, err := suite.service.Update(suite.ctx, suite.alice, task.ID, UpdateTaskInput{ClearAssignee: true})
	suite.Require().NoError(err)
	suite.Nil(updated.AssignedToID)

	entry := suite.auditEntries()[0]
	suite.NotNil(suite.decode(entry.OldData).AssignedToID)
	suite.Nil(suite.decode(entry.NewData).AssignedToID)
}

func (suite *TaskServiceTestSuite) TestUpdate_LeadRejections() {
	task := suite.assignedTask("Ship v1")
	missing := uint64(9999)

	tests := []struct {
		name  string
		actor *models.User
		id    uint64
		input UpdateTaskInput
		want  error
	}{
		{"other lead", suite.carol, task.ID, UpdateTaskInput{Title: strPtr("Mine")}, ErrForbidden},
		{"lead assignee", suite.alice, task.ID, UpdateTaskInput{AssignedTo: &suite.carol.ID}, ErrInvalidAssignee},
		{"missing assignee", suite.alice, task.ID, UpdateTaskInput{AssignedTo: &missing}, ErrAssigneeNotFound},
		{"bad status", suite.alice, task.ID, UpdateTaskInput{Status: statusPtr("paused")}, ErrInvalidStatus},
		{"empty title", suite.alice, task.ID, UpdateTaskInput{Title: strPtr("")}, ErrValidation},
		{"unknown field", suite.alice, task.ID, UpdateTaskInput{Fields: []policy.Field{"created_by_id"}}, ErrFieldNotAllowed},
		{"missing task", suite.alice, 9999, UpdateTaskInput{Title: strPtr("x")}, ErrTaskNotFound},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.Update(suite.ctx, tt.actor, tt.id, tt.input)
			suite.ErrorIs(err, tt.want)
		})
	}

	suite.Equal("Ship v1", suite.committed(task.ID).Title)
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestUpdate_TeamMemberStatusAndDescription() {
	task := suite.assignedTask("Ship v1")

	updated, err := suite.service.Update(suite.ctx, suite.bob, task.ID, UpdateTaskInput{
		Description: strPtr("halfway"),
		Status:      statusPtr(models.TaskStatusOnProgress),
	})
	suite.Require().NoError(err)
	suite.Equal("halfway", updated.Description)
	suite.Equal(models.TaskStatusOnProgress, updated.Status)
	suite.Equal("Ship v1", updated.Title)

	entries := suite.auditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal(suite.bob.ID, entries[0].ChangedByID)
}

func (suite *TaskServiceTestSuite) TestUpdate_TeamMemberDisallowedFieldRejectsWholeRequest() {
	task := suite.assignedTask("Ship v1")

	_, err := suite.service.Update(suite.ctx, suite.bob, task.ID, UpdateTaskInput{
		Title:  strPtr("Renamed"),
		Status: statusPtr(models.TaskStatusDone),
	})
	suite.Require().ErrorIs(err, ErrFieldNotAllowed)

	var fieldErr *FieldNotAllowedError
	suite.Require().True(errors.As(err, &fieldErr))
	suite.Equal([]string{"title"}, fieldErr.Fields)

	committed := suite.committed(task.ID)
	suite.Equal("Ship v1", committed.Title)
	suite.Equal(models.TaskStatusNotStarted, committed.Status)
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestUpdate_TeamMemberNotAssigned() {
	task := suite.assignedTask("Ship v1")

	_, err := suite.service.Update(suite.ctx, suite.dave, task.ID, UpdateTaskInput{Status: statusPtr(models.TaskStatusDone)})
	suite.ErrorIs(err, ErrForbidden)
}

func (suite *TaskServiceTestSuite) TestUpdateStatus() {
	task := suite.assignedTask("Ship v1")

	updated, err := suite.service.UpdateStatus(suite.ctx, suite.bob, task.ID, models.TaskStatusDone)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, updated.Status)

	// Membership only: a finished task can be reopened.
	updated, err = suite.service.UpdateStatus(suite.ctx, suite.bob, task.ID, models.TaskStatusNotStarted)
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusNotStarted, updated.Status)

	entries := suite.auditEntries()
	suite.Require().Len(entries, 2)
	suite.Equal(models.TaskStatusNotStarted, suite.decode(entries[0].OldData).Status)
	suite.Equal(models.TaskStatusDone, suite.decode(entries[0].NewData).Status)
	suite.Equal(models.TaskStatusDone, suite.decode(entries[1].OldData).Status)
}

func (suite *TaskServiceTestSuite) TestUpdateStatus_Rejections() {
	task := suite.assignedTask("Ship v1")

	_, err := suite.service.UpdateStatus(suite.ctx, suite.dave, task.ID, models.TaskStatusDone)
	suite.ErrorIs(err, ErrForbidden)

	_, err = suite.service.UpdateStatus(suite.ctx, suite.bob, task.ID, "archived")
	suite.ErrorIs(err, ErrInvalidStatus)

	_, err = suite.service.UpdateStatus(suite.ctx, suite.bob, 9999, models.TaskStatusDone)
	suite.ErrorIs(err, ErrTaskNotFound)

	suite.Equal(models.TaskStatusNotStarted, suite.committed(task.ID).Status)
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestAssign() {
	task := testutil.CreateTask(suite.T(), suite.db, "Ship v1", suite.alice.ID, nil)

	updated, err := suite.service.Assign(suite.ctx, suite.alice, task.ID, suite.bob.ID)
	suite.Require().NoError(err)
	suite.Equal(suite.bob.ID, *updated.AssignedToID)

	entries := suite.auditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal(models.AuditActionUpdate, entries[0].Action)
	suite.Nil(suite.decode(entries[0].OldData).AssignedToID)
	suite.Equal(suite.bob.ID, *suite.decode(entries[0].NewData).AssignedToID)
}

func (suite *TaskServiceTestSuite) TestAssign_Rejections() {
	task := testutil.CreateTask(suite.T(), suite.db, "Ship v1", suite.alice.ID, nil)

	tests := []struct {
		name     string
		actor    *models.User
		taskID   uint64
		assignee uint64
		want     error
	}{
		{"lead assignee", suite.alice, task.ID, suite.carol.ID, ErrInvalidAssignee},
		{"missing assignee", suite.alice, task.ID, 9999, ErrAssigneeNotFound},
		{"missing task", suite.alice, 9999, suite.bob.ID, ErrTaskNotFound},
		{"other lead", suite.carol, task.ID, suite.bob.ID, ErrForbidden},
		{"other lead probing a lead", suite.carol, task.ID, suite.carol.ID, ErrForbidden},
		{"other lead probing a missing user", suite.carol, task.ID, 9999, ErrForbidden},
		{"team member", suite.bob, task.ID, suite.bob.ID, ErrForbidden},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := suite.service.Assign(suite.ctx, tt.actor, tt.taskID, tt.assignee)
			suite.ErrorIs(err, tt.want)
		})
	}

	suite.Nil(suite.committed(task.ID).AssignedToID)
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestDelete() {
	task := suite.assignedTask("Ship v1")
	before := suite.snapshotJSON(suite.committed(task.ID))

	suite.Require().NoError(suite.service.Delete(suite.ctx, suite.alice, task.ID))

	_, err := suite.service.Get(suite.ctx, suite.alice, task.ID)
	suite.ErrorIs(err, ErrTaskNotFound)

	entries := suite.auditEntries()
	suite.Require().Len(entries, 1)
	suite.Equal(models.AuditActionDelete, entries[0].Action)
	suite.JSONEq(before, string(entries[0].OldData))
	suite.True(absent(entries[0].NewData))

	suite.ErrorIs(suite.service.Delete(suite.ctx, suite.alice, task.ID), ErrTaskNotFound)
}

func (suite *TaskServiceTestSuite) TestDelete_Rejections() {
	task := suite.assignedTask("Ship v1")

	suite.ErrorIs(suite.service.Delete(suite.ctx, suite.carol, task.ID), ErrForbidden)
	suite.ErrorIs(suite.service.Delete(suite.ctx, suite.bob, task.ID), ErrForbidden)

	suite.Equal(int64(1), suite.countTasks())
	suite.Empty(suite.auditEntries())
}

func (suite *TaskServiceTestSuite) TestList() {
	first := suite.assignedTask("first")
	second := testutil.CreateTask(suite.T(), suite.db, "second", suite.alice.ID, nil)
	testutil.CreateTask(suite.T(), suite.db, "carol's", suite.carol.ID, &suite.dave.ID)

	leadTasks, err := suite.service.List(suite.ctx, suite.alice)
	suite.Require().NoError(err)
	suite.Require().Len(leadTasks, 2)
	suite.Equal(second.ID, leadTasks[0].ID)
	suite.Equal(first.ID, leadTasks[1].ID)
	suite.Nil(leadTasks[0].AssignedTo)
	suite.Equal("bob", leadTasks[1].AssignedTo.Username)

	teamTasks, err := suite.service.List(suite.ctx, suite.bob)
	suite.Require().NoError(err)
	suite.Require().Len(teamTasks, 1)
	suite.Equal(first.ID, teamTasks[0].ID)
	suite.Equal("alice", teamTasks[0].CreatedBy.Username)
}

func (suite *TaskServiceTestSuite) failAuditInserts() {
	err := suite.db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "audit_logs" {
			_ = tx.AddError(errors.New("audit store unavailable"))
		}
	})
	suite.Require().NoError(err)
}

func (suite *TaskServiceTestSuite) TestAuditFailureRollsBackMutation() {
	task := suite.assignedTask("Ship v1")
	suite.failAuditInserts()

	_, err := suite.service.Create(suite.ctx, suite.alice, CreateTaskInput{Title: "never stored"})
	suite.Error(err)
	suite.Equal(int64(1), suite.countTasks())

	_, err = suite.service.UpdateStatus(suite.ctx, suite.bob, task.ID, models.TaskStatusDone)
	suite.Error(err)
	suite.Equal(models.TaskStatusNotStarted, suite.committed(task.ID).Status)

	suite.Error(suite.service.Delete(suite.ctx, suite.alice, task.ID))
	suite.Equal(int64(1), suite.countTasks())

	suite.Empty(suite.auditEntries())
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}
