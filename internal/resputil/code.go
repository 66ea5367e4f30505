package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Login / registration
	UserNotFound      ErrorCode = 40103
	DuplicateUsername ErrorCode = 40104
	DuplicateNickname ErrorCode = 40105

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	// Target entity does not exist
	NotFound ErrorCode = 40401

	// Lifecycle transition not allowed from the current status
	InvalidTransition ErrorCode = 40901

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
