package domain

import "context"

// Authorizer 签名授权边界。由外部平台实现，核心只声明
// 每个操作需要哪个身份的授权。
type Authorizer interface {
	// RequireAuth 硬性授权检查，调用方不持有该身份的签名权限时返回错误
	RequireAuth(ctx context.Context, identity string) error
	// HasAuth 能力探测，仅用于选择存储费用承担方，不会使操作失败
	HasAuth(ctx context.Context, identity string) bool
}

// AccountRegistry 账户身份存在性检查边界
type AccountRegistry interface {
	Exists(ctx context.Context, identity string) (bool, error)
}

// TransferNotice 转账通知，投递给转出方与转入方
type TransferNotice struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// FeeNotice 手续费审计记录，说明某账户在一次转账中被视为承担了多少手续费
type FeeNotice struct {
	Account string `json:"account"`
	Fee     string `json:"fee"`
}

// Notifier 通知投递边界。尽力而为，不影响账本不变量的正确性，
// 实现不得因投递失败而中断操作。
type Notifier interface {
	NotifyTransfer(ctx context.Context, notice TransferNotice)
	NotifyFee(ctx context.Context, notice FeeNotice)
}

// NopNotifier 空实现，用于测试与未接入消息总线的部署
type NopNotifier struct{}

// NotifyTransfer 实现 Notifier
func (NopNotifier) NotifyTransfer(context.Context, TransferNotice) {}

// NotifyFee 实现 Notifier
func (NopNotifier) NotifyFee(context.Context, FeeNotice) {}
