package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/contextx"
)

// balanceRepository 余额表仓储实现
type balanceRepository struct {
	db *gorm.DB
}

// NewBalanceRepository 创建余额表仓储
func NewBalanceRepository(db *gorm.DB) domain.BalanceRepository {
	return &balanceRepository{db: db}
}

func (r *balanceRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.TxFrom(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Get 按 (持有人, 符号代码) 获取记录，不存在时返回 (nil, nil)
func (r *balanceRepository) Get(ctx context.Context, owner, code string) (*domain.Balance, error) {
	var balance domain.Balance
	err := r.getDB(ctx).WithContext(ctx).
		Where("owner = ? AND code = ?", owner, code).
		First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// ListByOwner 获取持有人的全部余额记录
func (r *balanceRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Balance, error) {
	var balances []*domain.Balance
	err := r.getDB(ctx).WithContext(ctx).
		Where("owner = ?", owner).
		Order("code").
		Find(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// ListByCode 获取某符号的全部余额记录
func (r *balanceRepository) ListByCode(ctx context.Context, code string) ([]*domain.Balance, error) {
	var balances []*domain.Balance
	err := r.getDB(ctx).WithContext(ctx).
		Where("code = ?", code).
		Order("owner").
		Find(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// Save 保存或更新记录
func (r *balanceRepository) Save(ctx context.Context, balance *domain.Balance) error {
	db := r.getDB(ctx).WithContext(ctx)
	if balance.ID == 0 {
		return db.Create(balance).Error
	}
	return db.Model(&domain.Balance{}).
		Where("id = ?", balance.ID).
		Updates(map[string]any{
			"amount": balance.Amount,
			"frozen": balance.Frozen,
		}).Error
}

// Delete 物理删除记录，关账后的行在后续查询中不再可见
func (r *balanceRepository) Delete(ctx context.Context, owner, code string) error {
	return r.getDB(ctx).WithContext(ctx).
		Unscoped().
		Where("owner = ? AND code = ?", owner, code).
		Delete(&domain.Balance{}).Error
}
