package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs an error code with a user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError maps persistence-layer errors to a code and a message the client
// can act on, without leaking driver internals. context is a short free-form
// hint like "create product" or "delete category".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "An internal error occurred",
		}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// Unique constraint violation (postgres 23505, sqlite "UNIQUE constraint failed")
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "email") {
			return ErrorInfo{
				Code:    AuthEmailAlreadyExists,
				Message: "This email address is already in use",
			}
		}
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A record with these values already exists",
		}
	}

	// Foreign key constraint violation (postgres 23503)
	if strings.Contains(errStr, "foreign key constraint") {
		if strings.Contains(errStr, "still referenced") {
			return ErrorInfo{
				Code:    ResourceConflict,
				Message: "The record is referenced by other data and cannot be deleted",
			}
		}
		return ErrorInfo{
			Code:    ValidationInvalidRef,
			Message: "A referenced record does not exist",
		}
	}

	// Not null constraint violation (postgres 23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	// Check constraint violation (postgres 23514)
	if strings.Contains(errStr, "check constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidRange,
			Message: "A field value is out of range",
		}
	}

	// Connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "The database is temporarily unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "product") {
		return "Product not found"
	}
	if strings.Contains(contextLower, "category") {
		return "Category not found"
	}
	if strings.Contains(contextLower, "order") {
		return "Order not found"
	}
	if strings.Contains(contextLower, "user") {
		return "User not found"
	}

	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") {
		return "Creation failed. Please try again later"
	}
	if strings.Contains(contextLower, "update") {
		return "Update failed. Please try again later"
	}
	if strings.Contains(contextLower, "delete") {
		return "Deletion failed. Please try again later"
	}

	return "An internal error occurred. Please try again later"
}

// ParseAndRespond parses an error and writes the standard error response
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
