// 包 identity 提供账户身份相关的基础设施：
// 基于 context 的授权检查与账户注册表。
package identity

import (
	"context"
	"fmt"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

type actorsKey struct{}

// WithActors 将本次调用持有签名权限的身份集合放入 context，
// 由接入层（HTTP 中间件）负责填充。
func WithActors(ctx context.Context, actors ...string) context.Context {
	set := make(map[string]struct{}, len(actors))
	for _, a := range actors {
		if a != "" {
			set[a] = struct{}{}
		}
	}
	return context.WithValue(ctx, actorsKey{}, set)
}

func actorsFrom(ctx context.Context) map[string]struct{} {
	if set, ok := ctx.Value(actorsKey{}).(map[string]struct{}); ok {
		return set
	}
	return nil
}

// ContextAuthorizer 从 context 中的身份集合判定授权。
// 真正的签名校验属于外部平台，这里只消费其结论。
type ContextAuthorizer struct{}

// RequireAuth 实现 domain.Authorizer
func (ContextAuthorizer) RequireAuth(ctx context.Context, identity string) error {
	if _, ok := actorsFrom(ctx)[identity]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrMissingAuth, identity)
	}
	return nil
}

// HasAuth 实现 domain.Authorizer
func (ContextAuthorizer) HasAuth(ctx context.Context, identity string) bool {
	_, ok := actorsFrom(ctx)[identity]
	return ok
}
