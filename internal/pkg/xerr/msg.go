package xerr

import "errors"

var (
	// 通用错误
	ErrSuccess        = errors.New("操作成功")
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams     = errors.New("无效的请求参数")
	ErrValidationFailed  = errors.New("参数验证失败")
	ErrFileTooLarge      = errors.New("上传文件过大，超出限制")
	ErrFileNameInvalid   = errors.New("文件名包含非法字符")
	ErrFileStatusInvalid = errors.New("文件状态异常，无法执行操作")
	ErrShareTTLInvalid   = errors.New("分享有效期超出允许范围")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden        = errors.New("禁止访问")
	ErrPermissionDenied = errors.New("您没有操作此资源的权限")

	// 缓存错误
	ErrEmptyCache = errors.New("缓存为空")

	// 资源未找到错误
	ErrUserNotFound = errors.New("用户不存在")
	ErrFileNotFound = errors.New("文件不存在")

	// 业务逻辑冲突
	ErrShareAlreadyExists = errors.New("分享ID已存在")
	ErrFileAlreadyExists  = errors.New("文件已存在")

	// 分享访问控制, 每次校验只会返回其中之一
	ErrShareNotFound      = errors.New("分享链接不存在或已撤销")
	ErrShareExpired       = errors.New("分享链接已过期")
	ErrShareLimitExceeded = errors.New("分享链接下载次数已用完")
	ErrShareAccessDenied  = errors.New("访问码或密码不正确")

	// 限流
	ErrTooManyRequests = errors.New("请求过于频繁，请稍后再试")

	// 数据库与外部服务错误
	ErrDatabaseError    = errors.New("数据库操作失败")
	ErrStorageError     = errors.New("存储服务操作失败")
	ErrStoreUnavailable = errors.New("分享存储暂不可用，请稍后重试")
)
