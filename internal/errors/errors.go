// Package errors provides the application error taxonomy for the budget API.
// Every service-layer failure is an *AppError carrying a stable code, the
// caller-facing kind it belongs to, and the HTTP status used at the API boundary.
package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind groups error codes into the categories callers react to.
type Kind string

const (
	KindValidation           Kind = "ValidationError"
	KindConflict             Kind = "ConflictError"
	KindReferentialIntegrity Kind = "ReferentialIntegrityError"
	KindNotFound             Kind = "NotFoundError"
	KindInvalidTransition    Kind = "InvalidTransitionError"
	KindCycle                Kind = "CycleError"
	KindPrecondition         Kind = "PreconditionError"
	KindUnauthorized         Kind = "UnauthorizedError"
	KindForbidden            Kind = "ForbiddenError"
	KindRateLimited          Kind = "RateLimitedError"
	KindInternal             Kind = "InternalError"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches any AppError with the same code, so wrapped copies of a
// sentinel still satisfy errors.Is(err, ErrItemNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Kind:       sentinel.Kind,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Kind:       sentinel.Kind,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf reports the kind of err, or KindInternal when err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func newError(kind Kind, status int, code, message string) *AppError {
	return &AppError{Code: code, Kind: kind, Message: message, StatusCode: status}
}

// Generic errors, one per kind.
var (
	ErrInvalidInput       = newError(KindValidation, http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	ErrConflict           = newError(KindConflict, http.StatusConflict, "CONFLICT", "Resource already exists")
	ErrHasDependents      = newError(KindReferentialIntegrity, http.StatusConflict, "HAS_DEPENDENTS", "Resource is still referenced")
	ErrNotFound           = newError(KindNotFound, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInvalidTransition  = newError(KindInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "Invalid state transition")
	ErrCycle              = newError(KindCycle, http.StatusBadRequest, "TREE_CYCLE", "Operation would create a cycle")
	ErrPreconditionFailed = newError(KindPrecondition, http.StatusConflict, "PRECONDITION_FAILED", "Precondition failed")
	ErrInternalServer     = newError(KindInternal, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
)

// Authentication & authorization errors.
var (
	ErrUnauthorized  = newError(KindUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrInvalidToken  = newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	ErrInvalidAPIKey = newError(KindUnauthorized, http.StatusUnauthorized, "INVALID_API_KEY", "Invalid or missing API key")
	ErrForbidden     = newError(KindForbidden, http.StatusForbidden, "FORBIDDEN", "Access denied")
	ErrRateLimited   = newError(KindRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
)

// Category errors.
var (
	ErrCategoryNotFound      = newError(KindNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrDuplicateCategoryCode = newError(KindConflict, http.StatusConflict, "DUPLICATE_CATEGORY_CODE", "A category with this code already exists")
	ErrCategoryInactive      = newError(KindPrecondition, http.StatusConflict, "CATEGORY_INACTIVE", "Category is not active")
	ErrCategoryInUse         = newError(KindPrecondition, http.StatusConflict, "CATEGORY_IN_USE", "Category is referenced by items")
	ErrCategoryHasItems      = newError(KindReferentialIntegrity, http.StatusConflict, "CATEGORY_HAS_ITEMS", "Category still has items")
)

// Item errors.
var (
	ErrItemNotFound      = newError(KindNotFound, http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found")
	ErrParentNotFound    = newError(KindNotFound, http.StatusNotFound, "PARENT_ITEM_NOT_FOUND", "Parent item not found")
	ErrDuplicateItemCode = newError(KindConflict, http.StatusConflict, "DUPLICATE_ITEM_CODE", "An item with this code already exists in the category")
	ErrItemHasDependents = newError(KindReferentialIntegrity, http.StatusConflict, "ITEM_HAS_DEPENDENTS", "Item has children, budget entries or transactions")
	ErrItemCycle         = newError(KindCycle, http.StatusBadRequest, "ITEM_CYCLE", "An item cannot be moved under itself or its descendants")
	ErrItemTooDeep       = newError(KindValidation, http.StatusBadRequest, "ITEM_TOO_DEEP", "Item tree depth limit exceeded")
	ErrCrossCategory     = newError(KindValidation, http.StatusBadRequest, "CROSS_CATEGORY_PARENT", "Parent item belongs to a different category")
	ErrInvalidOrder      = newError(KindValidation, http.StatusBadRequest, "INVALID_ORDER", "Order is out of range")
	ErrOrderContention   = newError(KindConflict, http.StatusConflict, "ORDER_CONTENTION", "Sibling order changed concurrently, retry the request")
)

// Period errors.
var (
	ErrPeriodNotFound     = newError(KindNotFound, http.StatusNotFound, "PERIOD_NOT_FOUND", "Period not found")
	ErrInvalidPeriodRange = newError(KindValidation, http.StatusBadRequest, "INVALID_PERIOD_RANGE", "Start date must be before end date")
	ErrPeriodTransition   = newError(KindInvalidTransition, http.StatusConflict, "INVALID_PERIOD_TRANSITION", "Illegal period status change")
	ErrPeriodClosed       = newError(KindPrecondition, http.StatusConflict, "PERIOD_CLOSED", "Period is closed")
	ErrAlreadyPopulated   = newError(KindConflict, http.StatusConflict, "PERIOD_ALREADY_POPULATED", "Period already has budget entries")
	ErrItemNotInPeriod    = newError(KindNotFound, http.StatusNotFound, "ITEM_NOT_IN_PERIOD", "Item is not part of this period's budget")
)

// Transaction errors.
var (
	ErrTransactionNotFound = newError(KindNotFound, http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrKindMismatch        = newError(KindValidation, http.StatusBadRequest, "TRANSACTION_KIND_MISMATCH", "Transaction kind does not match the item's category")
	ErrDateOutOfPeriod     = newError(KindValidation, http.StatusBadRequest, "DATE_OUTSIDE_PERIOD", "Transaction date is outside the period")
	ErrInvalidAmount       = newError(KindValidation, http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero")
	ErrTransactionVoided   = newError(KindPrecondition, http.StatusConflict, "TRANSACTION_VOIDED", "Transaction has been voided")
)
