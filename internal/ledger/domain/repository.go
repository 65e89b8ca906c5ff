package domain

import "context"

// StatRepository 供给登记表仓储接口
type StatRepository interface {
	// Get 按符号代码获取记录，不存在时返回 (nil, nil)
	Get(ctx context.Context, code string) (*TokenStat, error)
	// Save 保存或更新记录
	Save(ctx context.Context, stat *TokenStat) error
}

// BalanceRepository 余额表仓储接口
type BalanceRepository interface {
	// Get 按 (持有人, 符号代码) 获取记录，不存在时返回 (nil, nil)
	Get(ctx context.Context, owner, code string) (*Balance, error)
	// ListByOwner 获取持有人的全部余额记录
	ListByOwner(ctx context.Context, owner string) ([]*Balance, error)
	// ListByCode 获取某符号的全部余额记录
	ListByCode(ctx context.Context, code string) ([]*Balance, error)
	// Save 保存或更新记录
	Save(ctx context.Context, balance *Balance) error
	// Delete 删除记录
	Delete(ctx context.Context, owner, code string) error
}

// ExemptionRepository 手续费豁免集仓储接口
type ExemptionRepository interface {
	// Exists 判断账户是否在某符号的豁免集内
	Exists(ctx context.Context, code, account string) (bool, error)
	// Add 加入豁免集
	Add(ctx context.Context, code, account string) error
	// Remove 移出豁免集
	Remove(ctx context.Context, code, account string) error
}

// UnitOfWork 事务边界。每个账本操作在其中整体执行，
// 任一前置条件失败时全部落盘变更回滚，保证字节级不变。
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
