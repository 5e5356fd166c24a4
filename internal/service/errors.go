package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a concurrent writer changed the bid first
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownStage is returned when a transition targets a stage missing
	// from the registry
	ErrUnknownStage = errors.New("unknown stage")

	// ErrStageAlreadyVisited is returned when a transition targets a stage
	// the bid has already passed through
	ErrStageAlreadyVisited = errors.New("stage already visited")

	// ErrBidClosed is returned when mutating a bid whose status is terminal
	ErrBidClosed = errors.New("bid already closed")

	// ErrInvalidStatus is returned when a status change is not allowed
	ErrInvalidStatus = errors.New("invalid status change")

	// ErrReasonRequired is returned when marking a bid lost without a reason
	ErrReasonRequired = errors.New("loss reason required")

	// ErrDuplicateUsername is returned when creating a user with a taken username
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")
)
