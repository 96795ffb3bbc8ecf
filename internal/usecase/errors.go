package usecase

import "errors"

// DomainError is a rejected request: bad input, a forbidden action or a
// missing record. Nothing was written.
type DomainError struct {
	Code    string
	Message string
	Fields  []ValidationError
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeForbidden  = "FORBIDDEN"
	CodeNotFound   = "NOT_FOUND"
)

// AuthError covers bad credentials and an invalid admin key. It is raised
// before any side effect.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// ProfileError means the identity is valid but its profile document could
// not be read or created. The session stays authenticated without a profile
// and protected views remain blocked.
type ProfileError struct {
	UID string
	Err error
}

func (e *ProfileError) Error() string {
	return "profile unavailable for " + e.UID + ": " + e.Err.Error()
}

func (e *ProfileError) Unwrap() error { return e.Err }

func IsProfileError(err error) bool {
	var pe *ProfileError
	return errors.As(err, &pe)
}

// StorageError is a failed create, update or subscription against the
// document store. It is never retried here.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// ErrScopeUnresolved is returned when a lead query is attempted before the
// caller's identity is known.
var ErrScopeUnresolved = errors.New("lead scope is not resolved yet")

var errFeedClosed = errors.New("lead change feed closed")
