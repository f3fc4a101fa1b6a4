// Package policy decides which task operations an actor may perform.
//
// Every permit path is an explicit allow-list keyed by role and operation.
// Anything not listed is denied. Ownership is always compared by user id; the
// only role check on a third party is the one made when choosing an assignee.
package policy

import (
	"github.com/yukikurage/task-tracker/internal/models"
)

type Operation string

const (
	OpCreate           Operation = "create"
	OpRead             Operation = "read"
	OpUpdate           Operation = "update"
	OpDelete           Operation = "delete"
	OpAssign           Operation = "assign"
	OpStatusTransition Operation = "status_transition"
)

// Field names a task attribute a request may change. Values match the JSON keys
// accepted by the HTTP layer, so unknown keys can be passed through as Fields
// and denied like any other field outside the allow-list.
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldAssignedTo  Field = "assigned_to"
)

// Reason explains a deny.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonForbidden       Reason = "forbidden"
	ReasonFieldNotAllowed Reason = "field_not_allowed"
	ReasonInvalidAssignee Reason = "invalid_assignee"
	ReasonInvalidStatus   Reason = "invalid_status"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uint64
	Role models.Role
}

// ActorFrom builds an Actor from a user row.
func ActorFrom(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

// Request describes what the caller wants to change.
type Request struct {
	// Fields present in the request body
	Fields []Field

	// Assignee is the resolved target user when the request sets an assignee
	Assignee *models.User

	// Status is the requested status when the request sets one
	Status *models.TaskStatus
}

// Decision is the result of Decide.
type Decision struct {
	Permit bool
	Reason Reason

	// Allowed lists the fields the actor may change when Permit is true
	Allowed []Field

	// Disallowed lists offending fields when Reason is ReasonFieldNotAllowed
	Disallowed []Field
}

var (
	leadCreateFields = []Field{FieldTitle, FieldDescription, FieldAssignedTo}
	leadUpdateFields = []Field{FieldTitle, FieldDescription, FieldStatus, FieldAssignedTo}
	teamUpdateFields = []Field{FieldStatus, FieldDescription}
	assignFields     = []Field{FieldAssignedTo}
	statusFields     = []Field{FieldStatus}
)

// Decide renders a decision for actor performing op on task. task is nil for
// OpCreate. Decide never fails; a deny is a normal result.
func Decide(actor Actor, op Operation, task *models.Task, req Request) Decision {
	if op != OpCreate && task == nil {
		return deny(ReasonForbidden)
	}

	switch actor.Role {
	case models.RoleLead:
		return decideLead(actor, op, task, req)
	case models.RoleTeam:
		return decideTeam(actor, op, task, req)
	default:
		return deny(ReasonForbidden)
	}
}

func decideLead(actor Actor, op Operation, task *models.Task, req Request) Decision {
	switch op {
	case OpCreate:
		if req.Assignee != nil && req.Assignee.Role != models.RoleTeam {
			return deny(ReasonInvalidAssignee)
		}
		return permit(leadCreateFields)

	case OpRead:
		if canRead(actor, task) {
			return permit(nil)
		}
		return deny(ReasonForbidden)

	case OpUpdate:
		if task.CreatedByID != actor.ID {
			return deny(ReasonForbidden)
		}
		if d, ok := restrictFields(req.Fields, leadUpdateFields); !ok {
			return d
		}
		if req.Status != nil && !req.Status.Valid() {
			return deny(ReasonInvalidStatus)
		}
		if req.Assignee != nil && req.Assignee.Role != models.RoleTeam {
			return deny(ReasonInvalidAssignee)
		}
		return permit(leadUpdateFields)

	case OpDelete:
		if task.CreatedByID != actor.ID {
			return deny(ReasonForbidden)
		}
		return permit(nil)

	case OpAssign:
		if task.CreatedByID != actor.ID {
			return deny(ReasonForbidden)
		}
		if req.Assignee == nil || req.Assignee.Role != models.RoleTeam {
			return deny(ReasonInvalidAssignee)
		}
		return permit(assignFields)
	}

	return deny(ReasonForbidden)
}

func decideTeam(actor Actor, op Operation, task *models.Task, req Request) Decision {
	switch op {
	case OpRead:
		if canRead(actor, task) {
			return permit(nil)
		}
		return deny(ReasonForbidden)

	case OpUpdate:
		if !task.IsAssignedTo(actor.ID) {
			return deny(ReasonForbidden)
		}
		if d, ok := restrictFields(req.Fields, teamUpdateFields); !ok {
			return d
		}
		if req.Status != nil && !req.Status.Valid() {
			return deny(ReasonInvalidStatus)
		}
		return permit(teamUpdateFields)

	case OpStatusTransition:
		if !task.IsAssignedTo(actor.ID) {
			return deny(ReasonForbidden)
		}
		if req.Status == nil || !req.Status.Valid() {
			return deny(ReasonInvalidStatus)
		}
		return permit(statusFields)
	}

	return deny(ReasonForbidden)
}

func canRead(actor Actor, task *models.Task) bool {
	return task.CreatedByID == actor.ID || task.IsAssignedTo(actor.ID)
}

// restrictFields denies the whole request when any requested field falls
// outside allowed.
func restrictFields(requested, allowed []Field) (Decision, bool) {
	var disallowed []Field
	for _, f := range requested {
		if !contains(allowed, f) {
			disallowed = append(disallowed, f)
		}
	}
	if len(disallowed) > 0 {
		return Decision{Reason: ReasonFieldNotAllowed, Disallowed: disallowed}, false
	}
	return Decision{}, true
}

// Allows reports whether the decision lets the actor change f.
func (d Decision) Allows(f Field) bool {
	return d.Permit && contains(d.Allowed, f)
}

func contains(fields []Field, f Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}
	return false
}

func permit(allowed []Field) Decision {
	return Decision{Permit: true, Allowed: allowed}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}
