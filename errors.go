package portal

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeUnauthenticated   = "UNAUTHENTICATED"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeDuplicateEmail    = "DUPLICATE_EMAIL"
	TextCodeDuplicateName     = "DUPLICATE_NAME"
	TextCodeInvalidResetToken = "INVALID_OR_EXPIRED_TOKEN"
	TextCodeSelfModification  = "SELF_MODIFICATION"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials is returned on login when the email does not
// resolve or the password does not verify; the two cases are
// indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrUnauthenticated is returned when a bearer token is missing,
// malformed, expired, or resolves to no user
var ErrUnauthenticated = errors.New("could not validate credentials", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthenticated)

// ErrForbidden is returned when an authenticated caller lacks the
// role, ownership, or membership an operation requires
var ErrForbidden = errors.New("insufficient privileges for this operation", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrDuplicateEmail is returned when a registration reuses an email
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateEmail)

// ErrDuplicateName is returned on unique name collisions (groups, companies)
var ErrDuplicateName = errors.New("name already in use", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeDuplicateName)

// ErrInvalidResetToken covers both a token that never existed and a
// token past its expiry window; callers must not be able to tell
// which case occurred.
var ErrInvalidResetToken = errors.New("invalid or expired token", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeInvalidResetToken)

// ErrSelfModification rejects admins changing their own role or
// status, or deleting their own account
var ErrSelfModification = errors.New("admins cannot modify their own account through this operation", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeSelfModification)

// ErrTokenExpired is the codec error for a token past its embedded expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is the codec error for bad signatures and garbled payloads
var ErrTokenMalformed = errors.New("token is malformed or has an invalid signature", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = errors.New("password does not match stored digest", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// NewNotFound builds a not-found error for a named entity
func NewNotFound(entity string) *errors.Error {
	return errors.New(entity+" not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
