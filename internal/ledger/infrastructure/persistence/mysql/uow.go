package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/contextx"
)

// unitOfWork 基于 GORM 事务的事务边界实现
type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork 创建事务边界
func NewUnitOfWork(db *gorm.DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

// WithinTx 在单个数据库事务内执行 fn，事务连接通过 context 传给各仓储
func (u *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}
