package domain

import "gorm.io/gorm"

// TokenStat 供给登记表条目，每个符号一条记录。
// 记录当前供给、最大供给、发行方与转账费率。
type TokenStat struct {
	gorm.Model
	// 符号代码，全局唯一
	Code string `gorm:"column:code;type:varchar(8);uniqueIndex;not null" json:"code"`
	// 符号小数位数
	Precision uint8 `gorm:"column:precision;not null" json:"precision"`
	// 当前流通供给（最小单位）
	Supply int64 `gorm:"column:supply;not null;default:0" json:"supply"`
	// 最大供给（最小单位），创建后不可变
	MaxSupply int64 `gorm:"column:max_supply;not null" json:"max_supply"`
	// 发行方身份，有权 issue/retire/freeze/setfee/switchexempt
	Issuer string `gorm:"column:issuer;type:varchar(64);not null" json:"issuer"`
	// 转账费率，单位为万分之一，取值 [0,49]
	FeeRate uint8 `gorm:"column:fee_rate;not null;default:10" json:"fee_rate"`
}

// TableName 指定表名
func (TokenStat) TableName() string { return "token_stats" }

// Symbol 返回该代币的符号
func (t *TokenStat) Symbol() Symbol {
	return Symbol{Code: t.Code, Precision: t.Precision}
}

// SupplyAsset 返回类型化的当前供给
func (t *TokenStat) SupplyAsset() Asset {
	return Asset{Amount: t.Supply, Symbol: t.Symbol()}
}

// MaxSupplyAsset 返回类型化的最大供给
func (t *TokenStat) MaxSupplyAsset() Asset {
	return Asset{Amount: t.MaxSupply, Symbol: t.Symbol()}
}

// Balance 余额表条目，每个 (持有人, 符号) 一条记录。
type Balance struct {
	gorm.Model
	// 持有人身份
	Owner string `gorm:"column:owner;type:varchar(64);uniqueIndex:idx_owner_code;not null" json:"owner"`
	// 符号代码
	Code string `gorm:"column:code;type:varchar(8);uniqueIndex:idx_owner_code;not null" json:"code"`
	// 符号小数位数
	Precision uint8 `gorm:"column:precision;not null" json:"precision"`
	// 持有数量（最小单位），任何时刻非负
	Amount int64 `gorm:"column:amount;not null;default:0" json:"amount"`
	// 冻结标志，置位后该账户不可被扣减
	Frozen bool `gorm:"column:frozen;not null;default:false" json:"frozen"`
	// 存储费用承担方（外部资源记账概念，仅登记）
	RAMPayer string `gorm:"column:ram_payer;type:varchar(64)" json:"ram_payer"`
}

// TableName 指定表名
func (Balance) TableName() string { return "balances" }

// Asset 返回类型化的持有数量
func (b *Balance) Asset() Asset {
	return Asset{Amount: b.Amount, Symbol: Symbol{Code: b.Code, Precision: b.Precision}}
}

// Exemption 手续费豁免条目，存在即表示该账户对该符号的转出免收手续费。
type Exemption struct {
	gorm.Model
	// 符号代码
	Code string `gorm:"column:code;type:varchar(8);uniqueIndex:idx_code_account;not null" json:"code"`
	// 豁免账户身份
	Account string `gorm:"column:account;type:varchar(64);uniqueIndex:idx_code_account;not null" json:"account"`
}

// TableName 指定表名
func (Exemption) TableName() string { return "fee_exemptions" }
