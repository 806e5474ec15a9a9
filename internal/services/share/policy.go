package share

import (
	"errors"
	"strings"
	"time"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/pkg/keygen"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
)

// Policy 分享访问控制策略, 构造时传入, 运行期间不读取任何全局状态
type Policy struct {
	BaseURL        string
	DefaultTTL     time.Duration
	MaxTTL         time.Duration
	KeyLength      int
	DownloadURLTTL time.Duration
	// UniformDenial 对外回复中不区分不存在和已过期
	UniformDenial bool
	// DemoMode 下载链接使用占位引用, 不访问对象存储
	DemoMode bool
	Clock    func() time.Time
}

// DefaultPolicy 与配置默认值一致
func DefaultPolicy() Policy {
	return Policy{
		BaseURL:        "http://localhost:3000",
		DefaultTTL:     24 * time.Hour,
		MaxTTL:         30 * 24 * time.Hour,
		KeyLength:      keygen.DefaultLength,
		DownloadURLTTL: 15 * time.Minute,
		UniformDenial:  true,
	}
}

func PolicyFromConfig(cfg *config.ShareConfig) Policy {
	return Policy{
		BaseURL:        cfg.BaseURL,
		DefaultTTL:     cfg.DefaultTTL,
		MaxTTL:         cfg.MaxTTL,
		KeyLength:      cfg.KeyLength,
		DownloadURLTTL: cfg.DownloadURLTTL,
		UniformDenial:  cfg.UniformDenial,
		DemoMode:       cfg.DemoMode,
	}
}

func (p Policy) now() time.Time {
	if p.Clock != nil {
		return p.Clock().UTC()
	}
	return time.Now().UTC()
}

// ShareURL 分享落地页地址
func (p Policy) ShareURL(shareID string) string {
	return strings.TrimRight(p.BaseURL, "/") + "/s/" + shareID
}

// PublicReason 对外返回的拒绝原因, UniformDenial 时不存在和已过期统一为 unavailable
func (p Policy) PublicReason(err error) string {
	if p.UniformDenial && (errors.Is(err, xerr.ErrShareNotFound) || errors.Is(err, xerr.ErrShareExpired)) {
		return xerr.ReasonUnavailable
	}
	return xerr.Reason(err)
}

// ttl 把 expires_in_minutes 换算为有效期, 未指定时使用默认值
func (p Policy) ttl(expiresInMinutes *int) (time.Duration, error) {
	if expiresInMinutes == nil {
		return p.DefaultTTL, nil
	}
	if *expiresInMinutes <= 0 {
		return 0, xerr.ErrShareTTLInvalid
	}
	d := time.Duration(*expiresInMinutes) * time.Minute
	if p.MaxTTL > 0 && d > p.MaxTTL {
		return 0, xerr.ErrShareTTLInvalid
	}
	return d, nil
}
