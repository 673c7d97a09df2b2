package errs

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrNoPermission   = NewCodeError(NoPermissionError, "NoPermissionError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")

	ErrTokenExpired      = NewCodeError(TokenExpiredError, "TokenExpiredError")
	ErrTokenInvalid      = NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrTokenNotExist     = NewCodeError(TokenNotExistError, "TokenNotExistError")
	ErrTokenMalformed    = NewCodeError(TokenMalformedError, "TokenMalformedError")
	ErrTokenUnauthorized = NewCodeError(TokenUnauthorizedError, "TokenUnauthorizedError")
)
