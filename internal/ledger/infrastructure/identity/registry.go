package identity

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/contextx"
)

// Identity 已登记的账户身份。平台侧账户系统的本地替身，
// 账本只关心"该身份是否存在"。
type Identity struct {
	gorm.Model
	Name string `gorm:"column:name;type:varchar(64);uniqueIndex;not null" json:"name"`
}

// TableName 指定表名
func (Identity) TableName() string { return "identities" }

// Registry 账户注册表，实现 domain.AccountRegistry 并支持登记
type Registry interface {
	domain.AccountRegistry
	Register(ctx context.Context, name string) error
}

// mysqlRegistry MySQL 实现
type mysqlRegistry struct {
	db *gorm.DB
}

// NewMySQLRegistry 创建 MySQL 账户注册表
func NewMySQLRegistry(db *gorm.DB) Registry {
	return &mysqlRegistry{db: db}
}

func (r *mysqlRegistry) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.TxFrom(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Exists 实现 domain.AccountRegistry
func (r *mysqlRegistry) Exists(ctx context.Context, identity string) (bool, error) {
	var count int64
	err := r.getDB(ctx).WithContext(ctx).
		Model(&Identity{}).
		Where("name = ?", identity).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Register 登记身份，重复登记是无副作用的空操作
func (r *mysqlRegistry) Register(ctx context.Context, name string) error {
	err := r.getDB(ctx).WithContext(ctx).Create(&Identity{Name: name}).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
