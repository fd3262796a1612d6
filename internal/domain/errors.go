package domain

import "errors"

// Business-rule rejections shared by the backend and the till. The HTTP layer
// maps them to status codes and the client maps them back.
var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrShiftAlreadyOpen   = errors.New("user already has an open shift")
	ErrShiftClosed        = errors.New("shift is already closed")
	ErrDuplicate          = errors.New("already exists")
	ErrInUse              = errors.New("still referenced by other records")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)
