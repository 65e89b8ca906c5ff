package domain

import "context"

// 领域事件类型
const (
	EventTokenCreated      = "token.created"
	EventTokenIssued       = "token.issued"
	EventTokenRetired      = "token.retired"
	EventFeeUpdated        = "token.fee_updated"
	EventTransferred       = "ledger.transferred"
	EventBalanceOpened     = "balance.opened"
	EventBalanceClosed     = "balance.closed"
	EventAccountFrozen     = "account.frozen"
	EventExemptionSwitched = "exemption.switched"
)

// EventPublisher 集成事件发布接口，在操作成功提交后调用
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload map[string]any) error
}

// NopEventPublisher 空实现
type NopEventPublisher struct{}

// Publish 实现 EventPublisher
func (NopEventPublisher) Publish(context.Context, string, string, map[string]any) error {
	return nil
}
