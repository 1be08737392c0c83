package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The admin frontend maps these codes to user-facing messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"       // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email/password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"       // token expired
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"       // malformed or badly signed token
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // duplicate email

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // no access
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY" // admin role required

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // bad request body
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // malformed id
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // out of range
	ValidationRequired      = "VALIDATION_REQUIRED"       // missing required field
	ValidationInvalidRef    = "VALIDATION_INVALID_REF"    // reference to a missing record

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // record absent
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate
	ResourceConflict      = "RESOURCE_CONFLICT"       // constraint conflict

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // content type not allowed
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"    // exceeds size limit
	UploadTooManyFiles    = "UPLOAD_TOO_MANY_FILES"    // gallery cap exceeded
	UploadEncodingFailed  = "UPLOAD_ENCODING_FAILED"   // decode/transcode failure
	UploadFailed          = "UPLOAD_FAILED"            // storage write failure

	// ==================== Orders (ORDER_) ====================
	OrderEmpty = "ORDER_EMPTY" // order without items

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // generic server error
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // persistence error
)
