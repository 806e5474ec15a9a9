package xerr

import "errors"

// 分享访问拒绝原因, 作为对外接口的稳定字符串
const (
	ReasonUnavailable      = "unavailable"
	ReasonNotFound         = "not_found"
	ReasonExpired          = "expired"
	ReasonLimitExceeded    = "limit_exceeded"
	ReasonAccessDenied     = "access_denied"
	ReasonStoreUnavailable = "store_unavailable"
)

// IsRetryable 仅存储暂不可用时客户端可以重试, 其余拒绝结果对同一分享是确定的
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Reason 返回错误对应的拒绝原因, 非分享错误返回空字符串
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrShareNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrShareExpired):
		return ReasonExpired
	case errors.Is(err, ErrShareLimitExceeded):
		return ReasonLimitExceeded
	case errors.Is(err, ErrShareAccessDenied):
		return ReasonAccessDenied
	case errors.Is(err, ErrStoreUnavailable):
		return ReasonStoreUnavailable
	}
	return ""
}

// IsShareDenial 判断错误是否属于分享访问控制的拒绝结果
func IsShareDenial(err error) bool {
	return Reason(err) != ""
}
