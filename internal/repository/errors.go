package repository

import "errors"

var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrInvalidRecord  = errors.New("invalid record")
	ErrStorageFailure = errors.New("storage operation failed")
)
