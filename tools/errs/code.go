package errs

// 业务错误码。HTTP 层按区间映射状态：
// 500 -> internal, 1001 -> bad request, 1002 -> forbidden,
// 1003 -> conflict, 1004 -> not found, 15xx -> unauthorized.
const (
	ServerInternalError = 500 // 服务器内部错误（存储/缓存不可用、事务提交失败）

	ArgsError           = 1001 // 入参错误
	NoPermissionError   = 1002 // 权限不足（未验证账号、拉黑对）
	DuplicateKeyError   = 1003 // 冲突（关系已处于 pending/list、重复提交）
	RecordNotFoundError = 1004 // 记录不存在（对方或自身档案缺失）

	TokenExpiredError      = 1501
	TokenInvalidError      = 1502
	TokenNotExistError     = 1503
	TokenMalformedError    = 1504
	TokenUnauthorizedError = 1505
)
