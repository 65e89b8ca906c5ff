package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/pkg/metrics"
)

// CreateTokenCommand 创建代币命令
type CreateTokenCommand struct {
	Issuer    string
	MaxSupply string // 资产字面量，如 "1000.00 SYM"
}

// SetFeeCommand 更新费率命令
type SetFeeCommand struct {
	Issuer  string
	Symbol  string // 符号字面量，如 "2,SYM"
	FeeRate uint8
}

// IssueCommand 增发命令
type IssueCommand struct {
	To       string
	Quantity string
	Memo     string
}

// RetireCommand 回收命令
type RetireCommand struct {
	Quantity string
	Memo     string
}

// TransferCommand 转账命令
type TransferCommand struct {
	From     string
	To       string
	Quantity string
	Memo     string
}

// OpenCommand 开户命令
type OpenCommand struct {
	Owner    string
	Symbol   string
	RAMPayer string
}

// CloseCommand 关户命令
type CloseCommand struct {
	Owner  string
	Symbol string
}

// FreezeCommand 冻结命令
type FreezeCommand struct {
	Account string
	Symbol  string
	Status  bool
}

// SwitchExemptCommand 豁免切换命令
type SwitchExemptCommand struct {
	Issuer  string
	Symbol  string
	Account string
}

// LogFeeCommand 手续费登记命令
type LogFeeCommand struct {
	Account string
	Fee     string
}

// Invalidator 查询缓存失效接口，未启用缓存时为 nil
type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string)
}

// LedgerCommandService 处理账本的全部写操作。
// 每个操作在 UnitOfWork 事务内整体执行，成功后发布集成事件并上报指标。
type LedgerCommandService struct {
	ledger      *domain.Ledger
	stats       domain.StatRepository
	uow         domain.UnitOfWork
	events      domain.EventPublisher
	metrics     *metrics.Metrics
	invalidator Invalidator
}

// NewLedgerCommandService 创建命令服务
func NewLedgerCommandService(
	ledger *domain.Ledger,
	stats domain.StatRepository,
	uow domain.UnitOfWork,
	events domain.EventPublisher,
	m *metrics.Metrics,
	invalidator Invalidator,
) *LedgerCommandService {
	return &LedgerCommandService{
		ledger:      ledger,
		stats:       stats,
		uow:         uow,
		events:      events,
		metrics:     m,
		invalidator: invalidator,
	}
}

// CreateToken 创建代币
func (s *LedgerCommandService) CreateToken(ctx context.Context, cmd CreateTokenCommand) error {
	start := time.Now()
	maxSupply, err := domain.ParseAsset(cmd.MaxSupply)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.Create(ctx, cmd.Issuer, maxSupply)
		})
	}
	s.metrics.RecordOperation("create", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "create token failed", "issuer", cmd.Issuer, "max_supply", cmd.MaxSupply, "error", err)
		return err
	}

	s.publish(ctx, domain.EventTokenCreated, maxSupply.Symbol.Code, map[string]any{
		"code": maxSupply.Symbol.Code, "issuer": cmd.Issuer, "max_supply": maxSupply.String(),
	})
	return nil
}

// SetFee 更新费率
func (s *LedgerCommandService) SetFee(ctx context.Context, cmd SetFeeCommand) error {
	start := time.Now()
	sym, err := domain.ParseSymbol(cmd.Symbol)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.SetFee(ctx, cmd.Issuer, sym, cmd.FeeRate)
		})
	}
	s.metrics.RecordOperation("setfee", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "set fee failed", "symbol", cmd.Symbol, "fee_rate", cmd.FeeRate, "error", err)
		return err
	}

	s.publish(ctx, domain.EventFeeUpdated, sym.Code, map[string]any{
		"code": sym.Code, "fee_rate": cmd.FeeRate,
	})
	return nil
}

// Issue 增发代币
func (s *LedgerCommandService) Issue(ctx context.Context, cmd IssueCommand) error {
	start := time.Now()
	quantity, err := domain.ParseAsset(cmd.Quantity)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.Issue(ctx, cmd.To, quantity, cmd.Memo)
		})
	}
	s.metrics.RecordOperation("issue", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "issue failed", "to", cmd.To, "quantity", cmd.Quantity, "error", err)
		return err
	}

	code := quantity.Symbol.Code
	s.invalidate(ctx, supplyCacheKey(code), balanceCacheKey(cmd.To, code))
	s.publish(ctx, domain.EventTokenIssued, code, map[string]any{
		"to": cmd.To, "quantity": quantity.String(), "memo": cmd.Memo,
	})
	return nil
}

// Retire 回收代币
func (s *LedgerCommandService) Retire(ctx context.Context, cmd RetireCommand) error {
	start := time.Now()
	quantity, err := domain.ParseAsset(cmd.Quantity)
	var issuer string
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			st, gerr := s.stats.Get(ctx, quantity.Symbol.Code)
			if gerr == nil && st != nil {
				issuer = st.Issuer
			}
			return s.ledger.Retire(ctx, quantity, cmd.Memo)
		})
	}
	s.metrics.RecordOperation("retire", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "retire failed", "quantity", cmd.Quantity, "error", err)
		return err
	}

	code := quantity.Symbol.Code
	s.invalidate(ctx, supplyCacheKey(code), balanceCacheKey(issuer, code))
	s.publish(ctx, domain.EventTokenRetired, code, map[string]any{
		"quantity": quantity.String(), "memo": cmd.Memo,
	})
	return nil
}

// Transfer 转账
func (s *LedgerCommandService) Transfer(ctx context.Context, cmd TransferCommand) error {
	start := time.Now()
	quantity, err := domain.ParseAsset(cmd.Quantity)
	// 发行方与手续费在事务内捕获，事务提交后费率可能已被并发修改
	var issuer string
	var fee int64
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			if st, gerr := s.stats.Get(ctx, quantity.Symbol.Code); gerr == nil && st != nil {
				issuer = st.Issuer
				fee = domain.ComputeFee(quantity, st.FeeRate).Amount
			}
			return s.ledger.Transfer(ctx, cmd.From, cmd.To, quantity, cmd.Memo)
		})
	}
	s.metrics.RecordOperation("transfer", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "transfer failed",
			"from", cmd.From, "to", cmd.To, "quantity", cmd.Quantity, "error", err)
		return err
	}

	code := quantity.Symbol.Code
	keys := []string{balanceCacheKey(cmd.From, code), balanceCacheKey(cmd.To, code)}
	if issuer != "" {
		keys = append(keys, balanceCacheKey(issuer, code))
	}
	s.invalidate(ctx, keys...)
	s.metrics.RecordTransfer(code, fee)
	s.publish(ctx, domain.EventTransferred, code, map[string]any{
		"from": cmd.From, "to": cmd.To, "quantity": quantity.String(), "memo": cmd.Memo,
	})
	return nil
}

// Open 开户
func (s *LedgerCommandService) Open(ctx context.Context, cmd OpenCommand) error {
	start := time.Now()
	sym, err := domain.ParseSymbol(cmd.Symbol)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.Open(ctx, cmd.Owner, sym, cmd.RAMPayer)
		})
	}
	s.metrics.RecordOperation("open", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "open failed", "owner", cmd.Owner, "symbol", cmd.Symbol, "error", err)
		return err
	}

	s.publish(ctx, domain.EventBalanceOpened, sym.Code, map[string]any{
		"owner": cmd.Owner, "code": sym.Code, "ram_payer": cmd.RAMPayer,
	})
	return nil
}

// Close 关户
func (s *LedgerCommandService) Close(ctx context.Context, cmd CloseCommand) error {
	start := time.Now()
	sym, err := domain.ParseSymbol(cmd.Symbol)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.Close(ctx, cmd.Owner, sym)
		})
	}
	s.metrics.RecordOperation("close", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "close failed", "owner", cmd.Owner, "symbol", cmd.Symbol, "error", err)
		return err
	}

	s.invalidate(ctx, balanceCacheKey(cmd.Owner, sym.Code))
	s.publish(ctx, domain.EventBalanceClosed, sym.Code, map[string]any{
		"owner": cmd.Owner, "code": sym.Code,
	})
	return nil
}

// Freeze 冻结或解冻账户
func (s *LedgerCommandService) Freeze(ctx context.Context, cmd FreezeCommand) error {
	start := time.Now()
	sym, err := domain.ParseSymbol(cmd.Symbol)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.Freeze(ctx, cmd.Account, sym, cmd.Status)
		})
	}
	s.metrics.RecordOperation("freeze", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "freeze failed",
			"account", cmd.Account, "symbol", cmd.Symbol, "status", cmd.Status, "error", err)
		return err
	}

	s.invalidate(ctx, balanceCacheKey(cmd.Account, sym.Code))
	s.publish(ctx, domain.EventAccountFrozen, sym.Code, map[string]any{
		"account": cmd.Account, "code": sym.Code, "frozen": cmd.Status,
	})
	return nil
}

// SwitchExempt 切换手续费豁免
func (s *LedgerCommandService) SwitchExempt(ctx context.Context, cmd SwitchExemptCommand) error {
	start := time.Now()
	sym, err := domain.ParseSymbol(cmd.Symbol)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context) error {
			return s.ledger.SwitchExempt(ctx, cmd.Issuer, sym, cmd.Account)
		})
	}
	s.metrics.RecordOperation("switchexempt", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "switch exempt failed",
			"issuer", cmd.Issuer, "symbol", cmd.Symbol, "account", cmd.Account, "error", err)
		return err
	}

	s.publish(ctx, domain.EventExemptionSwitched, sym.Code, map[string]any{
		"code": sym.Code, "account": cmd.Account,
	})
	return nil
}

// LogFee 手续费空操作登记
func (s *LedgerCommandService) LogFee(ctx context.Context, cmd LogFeeCommand) error {
	start := time.Now()
	fee, err := domain.ParseAsset(cmd.Fee)
	if err == nil {
		err = s.ledger.LogFee(ctx, cmd.Account, fee)
	}
	s.metrics.RecordOperation("logfee", err, start)
	if err != nil {
		slog.ErrorContext(ctx, "logfee failed", "account", cmd.Account, "fee", cmd.Fee, "error", err)
	}
	return err
}

// publish 发布集成事件，失败只记日志，不影响已提交的操作
func (s *LedgerCommandService) publish(ctx context.Context, eventType, key string, payload map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, key, payload); err != nil {
		slog.WarnContext(ctx, "event publish failed", "type", eventType, "key", key, "error", err)
	}
}

func (s *LedgerCommandService) invalidate(ctx context.Context, keys ...string) {
	if s.invalidator == nil {
		return
	}
	s.invalidator.Invalidate(ctx, keys...)
}

func supplyCacheKey(code string) string {
	return fmt.Sprintf("ledger:supply:%s", code)
}

func balanceCacheKey(owner, code string) string {
	return fmt.Sprintf("ledger:balance:%s:%s", owner, code)
}
