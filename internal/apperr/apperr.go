// Package apperr defines the domain failures shared by every layer of the
// portal.  Each failure carries a Kind that the HTTP boundary maps to a
// status code, a stable machine readable Code and a human message.
package apperr

import "errors"

// Kind classifies a domain failure.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindValidation
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindIntegrity:
		return "integrity"
	}
	return "internal"
}

// Error is a classified domain failure.  Sentinels are compared with
// errors.Is; Is matches on Code so a copy with a different message still
// matches its sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Wrap returns a copy of e whose cause is err.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func newErr(k Kind, code, msg string) *Error {
	return &Error{Kind: k, Code: code, Message: msg}
}

// Validation builds an ad hoc validation failure.
func Validation(msg string) *Error {
	return ErrValidation.WithMessage(msg)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Authentication failures.
var (
	ErrInvalidCredentials = newErr(KindAuthentication, "invalid_credentials", "Invalid username or password")
	ErrNoActiveSession    = newErr(KindAuthentication, "no_active_session", "No active session found")
	ErrInvalidToken       = newErr(KindAuthentication, "invalid_token", "Not authorized, token failed")
	ErrSessionExpired     = newErr(KindAuthentication, "session_expired", "Session expired or logged out")
	ErrAccountMissing     = newErr(KindAuthentication, "account_missing", "User not found")
	ErrNoToken            = newErr(KindAuthentication, "no_token", "No token provided")
)

// Authorization failures.
var (
	ErrAccountInactive   = newErr(KindAuthorization, "account_inactive", "Account is inactive")
	ErrEntityDeactivated = newErr(KindAuthorization, "entity_deactivated", "Your account has been deactivated")
	ErrTenantNotSelected = newErr(KindAuthorization, "tenant_not_selected", "Entity not selected")
	ErrTenantForbidden   = newErr(KindAuthorization, "tenant_forbidden", "Entity not accessible")
	ErrForbiddenRole     = newErr(KindAuthorization, "forbidden_role", "Unauthorized role")
)

// Conflicts.
var (
	ErrAlreadyLoggedIn = newErr(KindConflict, "already_logged_in", "User is already logged in")
	ErrUsernameTaken   = newErr(KindConflict, "username_taken", "Username already exists")
)

// Not found.
var (
	ErrTenantNotFound  = newErr(KindNotFound, "tenant_not_found", "Entity not found")
	ErrEntityNotFound  = newErr(KindNotFound, "entity_not_found", "Entity not found")
	ErrBuyerNotFound   = newErr(KindNotFound, "buyer_not_found", "Buyer not found or inactive")
	ErrInvoiceNotFound = newErr(KindNotFound, "invoice_not_found", "Invoice not found")
	ErrNotFoundOrSent  = newErr(KindNotFound, "invoice_not_found_or_sent", "Invoice not found or already sent")
)

// Validation and integrity.
var (
	ErrValidation         = newErr(KindValidation, "validation_error", "Invalid request")
	ErrEmptyImport        = newErr(KindValidation, "empty_import", "Excel file is empty")
	ErrNoEntityForAccount = newErr(KindIntegrity, "no_entity_for_account", "Entity not found for user")
)
