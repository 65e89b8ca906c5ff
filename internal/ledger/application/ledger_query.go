package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/cache"
	"github.com/wyfcoding/tokenledger/pkg/logger"
)

// 查询缓存的默认有效期
const defaultCacheTTL = 10 * time.Second

// LedgerQueryService 处理账本的只读查询，可选接 Redis 读缓存
type LedgerQueryService struct {
	stats    domain.StatRepository
	balances domain.BalanceRepository
	cache    *cache.RedisCache // 为 nil 时直接穿透到存储
	ttl      time.Duration
}

// NewLedgerQueryService 创建查询服务，redisCache 可以为 nil
func NewLedgerQueryService(
	stats domain.StatRepository,
	balances domain.BalanceRepository,
	redisCache *cache.RedisCache,
) *LedgerQueryService {
	return &LedgerQueryService{
		stats:    stats,
		balances: balances,
		cache:    redisCache,
		ttl:      defaultCacheTTL,
	}
}

// GetToken 查询代币完整信息
func (s *LedgerQueryService) GetToken(ctx context.Context, code string) (*TokenDTO, error) {
	st, err := s.stats.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrTokenNotFound
	}
	return toTokenDTO(st), nil
}

// GetSupply 查询某符号的当前供给
func (s *LedgerQueryService) GetSupply(ctx context.Context, code string) (*SupplyDTO, error) {
	key := supplyCacheKey(code)
	var dto SupplyDTO
	if s.cacheGet(ctx, key, &dto) {
		return &dto, nil
	}

	st, err := s.stats.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrTokenNotFound
	}

	dto = SupplyDTO{Code: code, Supply: st.SupplyAsset().String()}
	s.cacheSet(ctx, key, &dto)
	return &dto, nil
}

// GetBalance 查询某持有人在某符号下的余额
func (s *LedgerQueryService) GetBalance(ctx context.Context, owner, code string) (*BalanceDTO, error) {
	key := balanceCacheKey(owner, code)
	var dto BalanceDTO
	if s.cacheGet(ctx, key, &dto) {
		return &dto, nil
	}

	b, err := s.balances.Get(ctx, owner, code)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.ErrNoBalance
	}

	dto = *toBalanceDTO(b)
	s.cacheSet(ctx, key, &dto)
	return &dto, nil
}

// ListBalances 查询持有人的全部余额
func (s *LedgerQueryService) ListBalances(ctx context.Context, owner string) ([]*BalanceDTO, error) {
	rows, err := s.balances.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	dtos := make([]*BalanceDTO, 0, len(rows))
	for _, b := range rows {
		dtos = append(dtos, toBalanceDTO(b))
	}
	return dtos, nil
}

// ListHolders 查询某符号的全部持有人余额
func (s *LedgerQueryService) ListHolders(ctx context.Context, code string) ([]*BalanceDTO, error) {
	rows, err := s.balances.ListByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	dtos := make([]*BalanceDTO, 0, len(rows))
	for _, b := range rows {
		dtos = append(dtos, toBalanceDTO(b))
	}
	return dtos, nil
}

// Invalidate 实现 Invalidator，供命令服务在写操作后调用
func (s *LedgerQueryService) Invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn(ctx, "query cache invalidation failed", "keys", keys, "error", err)
	}
}

func (s *LedgerQueryService) cacheGet(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn(ctx, "query cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *LedgerQueryService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		logger.Warn(ctx, "query cache store failed", "key", key, "error", err)
	}
}
