package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/task-tracker/internal/policy"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateIdentity  = errors.New("username or email already exists")
	ErrInvalidRole        = errors.New("role must be lead or team")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrAssigneeNotFound   = errors.New("assigned user not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidAssignee    = errors.New("tasks can only be assigned to team members")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrFieldNotAllowed    = errors.New("field not allowed")
)

// FieldNotAllowedError lists the request fields the actor may not change.
type FieldNotAllowedError struct {
	Fields []string
}

func (e *FieldNotAllowedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrFieldNotAllowed, strings.Join(e.Fields, ", "))
}

func (e *FieldNotAllowedError) Is(target error) bool {
	return target == ErrFieldNotAllowed
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// decisionError translates a policy deny into the service error taxonomy.
func decisionError(d policy.Decision) error {
	if d.Permit {
		return nil
	}

	switch d.Reason {
	case policy.ReasonFieldNotAllowed:
		fields := make([]string, len(d.Disallowed))
		for i, f := range d.Disallowed {
			fields[i] = string(f)
		}
		return &FieldNotAllowedError{Fields: fields}
	case policy.ReasonInvalidAssignee:
		return ErrInvalidAssignee
	case policy.ReasonInvalidStatus:
		return ErrInvalidStatus
	default:
		return ErrForbidden
	}
}
