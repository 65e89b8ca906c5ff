// 包 mysql 提供账本仓储的 GORM 实现
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/contextx"
)

// statRepository 供给登记表仓储实现
type statRepository struct {
	db *gorm.DB
}

// NewStatRepository 创建供给登记表仓储
func NewStatRepository(db *gorm.DB) domain.StatRepository {
	return &statRepository{db: db}
}

// getDB 优先使用 context 中的事务连接
func (r *statRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.TxFrom(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Get 按符号代码获取记录，不存在时返回 (nil, nil)
func (r *statRepository) Get(ctx context.Context, code string) (*domain.TokenStat, error) {
	var stat domain.TokenStat
	err := r.getDB(ctx).WithContext(ctx).Where("code = ?", code).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stat, nil
}

// Save 保存或更新记录
func (r *statRepository) Save(ctx context.Context, stat *domain.TokenStat) error {
	db := r.getDB(ctx).WithContext(ctx)
	if stat.ID == 0 {
		return db.Create(stat).Error
	}
	return db.Model(&domain.TokenStat{}).
		Where("id = ?", stat.ID).
		Updates(map[string]any{
			"supply":   stat.Supply,
			"fee_rate": stat.FeeRate,
		}).Error
}
