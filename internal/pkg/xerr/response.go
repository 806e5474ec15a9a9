package xerr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeError 结构体用于在服务层传递带有业务码的错误
type CodeError struct {
	Code int   // 业务错误码
	Err  error // 被包裹的底层错误
}

func (e *CodeError) Error() string {
	return e.Err.Error()
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// NewCodeError 创建一个 CodeError 实例
func NewCodeError(code int, err error) *CodeError {
	return &CodeError{Code: code, Err: err}
}

// Is 判断错误是否为指定的错误类型
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Response 是通用 JSON 响应结构
type Response struct {
	Code    int    `json:"code"`    // 业务状态码
	Message string `json:"message"` // 消息
	Data    any    `json:"data"`    // 响应数据
}

// JSONResponse 发送标准 JSON 响应
func JSONResponse(c *gin.Context, httpStatus int, code int, message string, data any) {
	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success 成功响应
func Success(c *gin.Context, httpStatus int, message string, data any) {
	JSONResponse(c, httpStatus, SuccessCode, message, data)
}

// Error 错误响应
func Error(c *gin.Context, httpStatus int, code int, message string) {
	JSONResponse(c, httpStatus, code, message, nil)
}

// ErrorWithData 错误响应, 附带结构化数据 (例如分享拒绝原因)
func ErrorWithData(c *gin.Context, httpStatus int, code int, message string, data any) {
	JSONResponse(c, httpStatus, code, message, data)
}

// AbortWithError 终止请求并发送错误响应
func AbortWithError(c *gin.Context, httpStatus int, code int, message string) {
	Error(c, httpStatus, code, message)
	c.Abort()
}

// FromError 把服务层错误映射为 HTTP 状态码和业务码, 未知错误一律视为内部错误
func FromError(err error) (httpStatus int, code int) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return statusForCode(ce.Code), ce.Code
	}
	switch {
	case errors.Is(err, ErrShareNotFound):
		return http.StatusNotFound, ShareNotFoundCode
	case errors.Is(err, ErrShareExpired):
		return http.StatusGone, ShareExpiredCode
	case errors.Is(err, ErrShareLimitExceeded):
		return http.StatusGone, ShareLimitExceededCode
	case errors.Is(err, ErrShareAccessDenied):
		return http.StatusForbidden, ShareAccessDeniedCode
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, StoreUnavailableCode
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, TooManyRequestsCode
	case errors.Is(err, ErrShareTTLInvalid):
		return http.StatusBadRequest, ShareTTLInvalidCode
	case errors.Is(err, ErrInvalidParams), errors.Is(err, ErrValidationFailed):
		return http.StatusBadRequest, InvalidParamsCode
	case errors.Is(err, ErrFileNotFound):
		return http.StatusNotFound, FileNotFoundCode
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, UserNotFoundCode
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden, PermissionDeniedCode
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, UnauthorizedCode
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, InvalidCredentialsCode
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict, UserAlreadyExistsCode
	case errors.Is(err, ErrEmailAlreadyExists):
		return http.StatusConflict, EmailAlreadyExistsCode
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, FileTooLargeCode
	case errors.Is(err, ErrStorageError):
		return http.StatusInternalServerError, StorageErrorCode
	case errors.Is(err, ErrDatabaseError):
		return http.StatusInternalServerError, DatabaseErrorCode
	}
	return http.StatusInternalServerError, InternalServerErrorCode
}

func statusForCode(code int) int {
	switch {
	case code == TooManyRequestsCode:
		return http.StatusTooManyRequests
	case code >= 50300:
		return http.StatusServiceUnavailable
	case code >= 50000:
		return http.StatusInternalServerError
	case code >= 41000:
		return http.StatusGone
	case code >= 40900:
		return http.StatusConflict
	case code >= 40400:
		return http.StatusNotFound
	case code >= 40300:
		return http.StatusForbidden
	case code >= 40100:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// AbortWithErr 根据错误类型选择状态码并终止请求, 内部错误不向客户端暴露细节
func AbortWithErr(c *gin.Context, err error) {
	status, code := FromError(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = ErrInternalServer.Error()
	case http.StatusServiceUnavailable:
		msg = ErrStoreUnavailable.Error()
		c.Header("Retry-After", "5")
	}
	AbortWithError(c, status, code, msg)
}
