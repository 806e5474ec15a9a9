package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode     = 40000 // 无效的请求参数
	ValidationFailedCode  = 40001 // 参数验证失败
	MethodNotAllowedCode  = 40002 // HTTP 方法不支持
	FileTooLargeCode      = 40003 // 文件过大
	FileNameInvalidCode   = 40004 // 文件名无效
	FileStatusInvalidCode = 40006 // 文件状态异常，无法操作
	ShareTTLInvalidCode   = 40013 // 分享有效期超出允许范围

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode         = 40300 // 通用无权限
	PermissionDeniedCode  = 40301 // 权限不足 (细分)
	ShareAccessDeniedCode = 40302 // 分享访问凭证不正确 (不区分访问码和密码)

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode      = 40400 // 通用资源未找到
	UserNotFoundCode  = 40401 // 用户不存在
	FileNotFoundCode  = 40402 // 文件不存在
	ShareNotFoundCode = 40404 // 分享链接不存在或已撤销

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode  = 40900 // 用户名已存在
	EmailAlreadyExistsCode = 40901 // 邮箱已存在
	ShareAlreadyExistsCode = 40903 // 分享ID冲突
	FileAlreadyExistsCode  = 40904 // 文件已存在

	// --- 资源不可用系列 (410xx) ---
	ShareExpiredCode       = 41000 // 分享已过期
	ShareLimitExceededCode = 41001 // 分享下载次数已用完

	// --- 限流 (429xx) ---
	TooManyRequestsCode = 42900 // 请求过于频繁

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储服务操作失败（如MinIO）

	// --- 依赖暂不可用 (503xx) ---
	StoreUnavailableCode = 50300 // 分享存储暂不可用，可重试
)
