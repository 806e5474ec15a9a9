package share

import (
	"context"
	"crypto/subtle"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
)

// Credentials 访问者提供的凭证, 未提供的字段为 nil
type Credentials struct {
	AccessKey *string
	Password  *string
}

// Validator 判断一次访问能否进入下载签发
type Validator struct {
	repo   repositories.ShareRepository
	policy Policy
}

func NewValidator(repo repositories.ShareRepository, policy Policy) *Validator {
	return &Validator{repo: repo, policy: policy}
}

// Validate 按 不存在 -> 过期 -> 次数 -> 凭证 的顺序检查, 每次只返回一个原因.
// 两种凭证都配置时必须同时正确, 错误中不体现是哪一个不匹配
func (v *Validator) Validate(ctx context.Context, shareID string, creds Credentials) (*models.Share, error) {
	share, err := v.repo.FindByShareID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	return share, v.check(share, creds)
}

func (v *Validator) check(share *models.Share, creds Credentials) error {
	now := v.policy.now()
	switch {
	case share.Status == models.ShareStatusRevoked:
		return xerr.ErrShareNotFound
	case share.Status == models.ShareStatusExpired || share.IsExpired(now):
		return xerr.ErrShareExpired
	case share.LimitReached():
		return xerr.ErrShareLimitExceeded
	}

	keyOK := true
	if share.HasAccessKey() {
		keyOK = creds.AccessKey != nil &&
			subtle.ConstantTimeCompare([]byte(*creds.AccessKey), []byte(*share.AccessKey)) == 1
	}
	passwordOK := true
	if share.HasPassword() {
		passwordOK = creds.Password != nil && utils.CheckPasswordHash(*creds.Password, *share.PasswordHash)
	}
	if !keyOK || !passwordOK {
		return xerr.ErrShareAccessDenied
	}
	return nil
}
