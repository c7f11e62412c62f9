package employee

import "errors"

var (
	ErrInvalidID             = errors.New("employee: invalid id")
	ErrInvalidName           = errors.New("employee: invalid name")
	ErrInvalidPageSize       = errors.New("employee: invalid page size")
	ErrInvalidPageToken      = errors.New("employee: invalid page token")
	ErrInvalidProjectID      = errors.New("employee: invalid project id")
	ErrEmployeeNotFound      = errors.New("employee: not found")
	ErrProjectNotFound       = errors.New("employee: project not found")
	ErrEmployeeAlreadyExists = errors.New("employee: name already exists")
)
