package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/contextx"
)

// exemptionRepository 手续费豁免集仓储实现
type exemptionRepository struct {
	db *gorm.DB
}

// NewExemptionRepository 创建豁免集仓储
func NewExemptionRepository(db *gorm.DB) domain.ExemptionRepository {
	return &exemptionRepository{db: db}
}

func (r *exemptionRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.TxFrom(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Exists 判断账户是否在某符号的豁免集内
func (r *exemptionRepository) Exists(ctx context.Context, code, account string) (bool, error) {
	var count int64
	err := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Exemption{}).
		Where("code = ? AND account = ?", code, account).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add 加入豁免集
func (r *exemptionRepository) Add(ctx context.Context, code, account string) error {
	return r.getDB(ctx).WithContext(ctx).
		Create(&domain.Exemption{Code: code, Account: account}).Error
}

// Remove 移出豁免集
func (r *exemptionRepository) Remove(ctx context.Context, code, account string) error {
	return r.getDB(ctx).WithContext(ctx).
		Unscoped().
		Where("code = ? AND account = ?", code, account).
		Delete(&domain.Exemption{}).Error
}
