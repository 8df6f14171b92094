package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrElementNotFound    = errors.New("game element not found")
	ErrUnknownElementType = errors.New("unknown game element type")
	ErrUnknownParameter   = errors.New("unknown parameter name")
	ErrCourseRestoring    = errors.New("course restore in progress, attribution suppressed")
	ErrItemNotOwned       = errors.New("item not owned")
)
