// Package errors provides structured application errors for the budgetbook API.
// All service-layer errors use AppError so that every rejected write returns a
// specific, human-readable reason without leaking internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrBudgetAccessDenied = &AppError{Code: "BUDGET_ACCESS_DENIED", Message: "User does not have access to Budget.", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Budget errors.
var (
	ErrBudgetNotFound      = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudgetName = &AppError{Code: "DUPLICATE_BUDGET_NAME", Message: "Budget with given name already exists for this owner", StatusCode: http.StatusBadRequest}
	ErrMemberNotFound      = &AppError{Code: "MEMBER_NOT_FOUND", Message: "User is not a member of this Budget", StatusCode: http.StatusNotFound}
	ErrOwnerRemoval        = &AppError{Code: "OWNER_REMOVAL", Message: "Budget owner cannot be removed from members", StatusCode: http.StatusBadRequest}
)

// Period errors.
var (
	ErrPeriodNotFound      = &AppError{Code: "PERIOD_NOT_FOUND", Message: "Period not found", StatusCode: http.StatusNotFound}
	ErrPeriodDateOrder     = &AppError{Code: "PERIOD_DATE_ORDER", Message: "Start date should be earlier than end date.", StatusCode: http.StatusBadRequest}
	ErrPeriodDateCollision = &AppError{Code: "PERIOD_DATE_COLLISION", Message: "Period date range collides with other period in Budget.", StatusCode: http.StatusBadRequest}
	ErrDuplicatePeriodName = &AppError{Code: "DUPLICATE_PERIOD_NAME", Message: "Period with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrPeriodClosed        = &AppError{Code: "PERIOD_CLOSED", Message: "Closed period cannot be changed.", StatusCode: http.StatusBadRequest}
	ErrPeriodStatusRegress = &AppError{Code: "PERIOD_STATUS_REGRESS", Message: "Active period cannot be moved back to Draft status.", StatusCode: http.StatusBadRequest}
	ErrActivePeriodExists  = &AppError{Code: "ACTIVE_PERIOD_EXISTS", Message: "Active period already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrPeriodInUse         = &AppError{Code: "PERIOD_IN_USE", Message: "Period is referenced by existing transfers", StatusCode: http.StatusConflict}
)

// Entity & deposit errors.
var (
	ErrEntityNotFound      = &AppError{Code: "ENTITY_NOT_FOUND", Message: "Entity not found", StatusCode: http.StatusNotFound}
	ErrDepositNotFound     = &AppError{Code: "DEPOSIT_NOT_FOUND", Message: "Deposit not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEntityName = &AppError{Code: "DUPLICATE_ENTITY_NAME", Message: "Entity with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrEntityInUse         = &AppError{Code: "ENTITY_IN_USE", Message: "Entity is referenced by existing transfers", StatusCode: http.StatusConflict}
	ErrNotADeposit         = &AppError{Code: "NOT_A_DEPOSIT", Message: "Value of deposit field has to be a Deposit.", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound        = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrInvalidPriorityForType  = &AppError{Code: "INVALID_PRIORITY_FOR_TYPE", Message: "Invalid priority selected for specified Category type.", StatusCode: http.StatusBadRequest}
	ErrReservedPriority        = &AppError{Code: "RESERVED_PRIORITY", Message: "Selected priority is reserved for internal deposit transfers.", StatusCode: http.StatusBadRequest}
	ErrDuplicateCategoryName   = &AppError{Code: "DUPLICATE_CATEGORY_NAME", Message: "Category with given name already exists in Budget.", StatusCode: http.StatusBadRequest}
	ErrCategoryOwnerNotMember  = &AppError{Code: "CATEGORY_OWNER_NOT_MEMBER", Message: "Category owner has to be a member of the Budget.", StatusCode: http.StatusBadRequest}
	ErrCategoryInUse           = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is referenced by existing transfers or predictions", StatusCode: http.StatusConflict}
	ErrDepositIncomeCatMissing = &AppError{Code: "DEPOSIT_INCOME_CATEGORY_MISSING", Message: "Reserved deposit income category does not exist in Budget.", StatusCode: http.StatusInternalServerError}
)

// Transfer errors.
var (
	ErrTransferNotFound      = &AppError{Code: "TRANSFER_NOT_FOUND", Message: "Transfer not found", StatusCode: http.StatusNotFound}
	ErrTransferValue         = &AppError{Code: "TRANSFER_VALUE", Message: "Value should be higher than 0.", StatusCode: http.StatusBadRequest}
	ErrSameEntityAndDeposit  = &AppError{Code: "SAME_ENTITY_AND_DEPOSIT", Message: "Entity and deposit fields cannot contain the same value.", StatusCode: http.StatusBadRequest}
	ErrDateNotInPeriod       = &AppError{Code: "DATE_NOT_IN_PERIOD", Message: "Transfer date not in period date range.", StatusCode: http.StatusBadRequest}
	ErrBudgetMismatch        = &AppError{Code: "BUDGET_MISMATCH", Message: "Budget for period, category, entity and deposit fields is not the same.", StatusCode: http.StatusBadRequest}
	ErrCategoryTypeMismatch  = &AppError{Code: "CATEGORY_TYPE_MISMATCH", Message: "Category type does not match transfer type.", StatusCode: http.StatusBadRequest}
	ErrCategoryDepositHolder = &AppError{Code: "CATEGORY_DEPOSIT_MISMATCH", Message: "Transfer deposit and category deposit have to be the same.", StatusCode: http.StatusBadRequest}
)

// Expense prediction errors.
var (
	ErrPredictionNotFound        = &AppError{Code: "PREDICTION_NOT_FOUND", Message: "Expense prediction not found", StatusCode: http.StatusNotFound}
	ErrPredictionCategoryType    = &AppError{Code: "PREDICTION_CATEGORY_TYPE", Message: "Incorrect category provided. Please provide expense category.", StatusCode: http.StatusBadRequest}
	ErrDuplicatePrediction       = &AppError{Code: "DUPLICATE_PREDICTION", Message: "Expense prediction for given period and category already exists.", StatusCode: http.StatusBadRequest}
	ErrPredictionPeriodActive    = &AppError{Code: "PREDICTION_PERIOD_ACTIVE", Message: "New expense prediction cannot be added to active period.", StatusCode: http.StatusBadRequest}
	ErrPredictionPeriodClosed    = &AppError{Code: "PREDICTION_PERIOD_CLOSED", Message: "Expense prediction cannot be changed when period is closed.", StatusCode: http.StatusBadRequest}
	ErrPredictionDepositMismatch = &AppError{Code: "PREDICTION_DEPOSIT_MISMATCH", Message: "Prediction deposit and category deposit have to be the same.", StatusCode: http.StatusBadRequest}
	ErrPredictionsAlreadyExist   = &AppError{Code: "PREDICTIONS_ALREADY_EXIST", Message: "Cannot copy predictions from previous period if any prediction for current period exists.", StatusCode: http.StatusBadRequest}
)
