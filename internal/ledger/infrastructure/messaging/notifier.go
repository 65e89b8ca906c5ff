// 包 messaging 提供基于 Kafka 的通知投递与事件发布
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/idgen"
	"github.com/wyfcoding/tokenledger/pkg/logger"
)

// Publisher 消息发送接口，由 pkg/mq 的 Producer 满足
type Publisher interface {
	SendMessage(ctx context.Context, topic, key string, value any) error
}

// Topics 各类消息的主题配置
type Topics struct {
	Transfer string
	Fee      string
	Event    string
}

// KafkaNotifier 同时实现 domain.Notifier 与 domain.EventPublisher。
// 通知是尽力而为的：投递失败只记日志，不中断账本操作。
type KafkaNotifier struct {
	producer Publisher
	topics   Topics
}

// NewKafkaNotifier 创建 Kafka 通知器
func NewKafkaNotifier(producer Publisher, topics Topics) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topics: topics}
}

// NotifyTransfer 将转账通知投递给关注方（转出方与转入方的消费者）
func (n *KafkaNotifier) NotifyTransfer(ctx context.Context, notice domain.TransferNotice) {
	key := strconv.FormatInt(idgen.GenID(), 10)
	if err := n.producer.SendMessage(ctx, n.topics.Transfer, key, notice); err != nil {
		logger.Warn(ctx, "transfer notice delivery failed",
			"from", notice.From, "to", notice.To, "error", err)
	}
}

// NotifyFee 留下手续费承担方的审计记录
func (n *KafkaNotifier) NotifyFee(ctx context.Context, notice domain.FeeNotice) {
	key := strconv.FormatInt(idgen.GenID(), 10)
	if err := n.producer.SendMessage(ctx, n.topics.Fee, key, notice); err != nil {
		logger.Warn(ctx, "fee notice delivery failed",
			"account", notice.Account, "error", err)
	}
}

// Publish 实现 domain.EventPublisher，在操作成功后发布集成事件
func (n *KafkaNotifier) Publish(ctx context.Context, eventType, key string, payload map[string]any) error {
	body := map[string]any{
		"event_id": strconv.FormatInt(idgen.GenID(), 10),
		"type":     eventType,
		"payload":  payload,
	}
	return n.producer.SendMessage(ctx, n.topics.Event, key, body)
}
