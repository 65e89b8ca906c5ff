package domain

import (
	"context"
	"fmt"
)

const (
	// MaxMemoLen 备注最大字节数
	MaxMemoLen = 256
	// MaxFeeRate 费率上限（不含），即最高 0.49%
	MaxFeeRate = 50
	// DefaultFeeRate 创建代币时的默认费率
	DefaultFeeRate = 10
	// feeDivisor 费率的分母，费率 V 表示转账数量的 V/10000
	feeDivisor = 10000
)

// Ledger 账本核心，承载全部记账与策略执行逻辑。
// 所有方法假定在 UnitOfWork 提供的事务边界内串行执行，
// 任一检查失败时由事务整体回滚保证状态不变。
type Ledger struct {
	stats      StatRepository
	balances   BalanceRepository
	exemptions ExemptionRepository
	auth       Authorizer
	accounts   AccountRegistry
	notifier   Notifier
	// 合约所有者身份，create 与 logfee 需要其授权
	owner string
}

// NewLedger 创建账本核心
func NewLedger(
	stats StatRepository,
	balances BalanceRepository,
	exemptions ExemptionRepository,
	auth Authorizer,
	accounts AccountRegistry,
	notifier Notifier,
	contractOwner string,
) *Ledger {
	return &Ledger{
		stats:      stats,
		balances:   balances,
		exemptions: exemptions,
		auth:       auth,
		accounts:   accounts,
		notifier:   notifier,
		owner:      contractOwner,
	}
}

// ContractOwner 返回合约所有者身份
func (l *Ledger) ContractOwner() string { return l.owner }

// ComputeFee 计算转账手续费。先对数量做整数除法再乘以费率，
// 截断发生在乘法之前，因此任何小于 10000 最小单位的数量手续费恒为 0。
func ComputeFee(quantity Asset, feeRate uint8) Asset {
	return Asset{
		Amount: (quantity.Amount / feeDivisor) * int64(feeRate),
		Symbol: quantity.Symbol,
	}
}

// Create 创建代币。需要合约所有者授权，supply 从 0 开始。
func (l *Ledger) Create(ctx context.Context, issuer string, maxSupply Asset) error {
	if err := l.auth.RequireAuth(ctx, l.owner); err != nil {
		return err
	}

	sym := maxSupply.Symbol
	if !sym.Valid() {
		return ErrInvalidSymbol
	}
	if !maxSupply.Valid() {
		return ErrInvalidAmount
	}
	if maxSupply.Amount <= 0 {
		return fmt.Errorf("%w: max-supply must be positive", ErrInvalidAmount)
	}

	existing, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrTokenExists
	}

	return l.stats.Save(ctx, &TokenStat{
		Code:      sym.Code,
		Precision: sym.Precision,
		Supply:    0,
		MaxSupply: maxSupply.Amount,
		Issuer:    issuer,
		FeeRate:   DefaultFeeRate,
	})
}

// SetFee 更新代币费率。只有登记的发行方可以调用。
func (l *Ledger) SetFee(ctx context.Context, issuer string, sym Symbol, feeRate uint8) error {
	if err := l.auth.RequireAuth(ctx, issuer); err != nil {
		return err
	}
	if feeRate >= MaxFeeRate {
		return ErrInvalidFee
	}
	if !sym.Valid() {
		return ErrInvalidSymbol
	}

	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}
	if st.Issuer != issuer {
		return ErrNotIssuer
	}

	st.FeeRate = feeRate
	return l.stats.Save(ctx, st)
}

// Issue 增发代币。只能发到发行方自己的余额上，供给不得超过上限。
func (l *Ledger) Issue(ctx context.Context, to string, quantity Asset, memo string) error {
	sym := quantity.Symbol
	if !sym.Valid() {
		return ErrInvalidSymbol
	}
	if len(memo) > MaxMemoLen {
		return ErrMemoTooLong
	}

	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%w: create token before issue", ErrTokenNotFound)
	}
	if to != st.Issuer {
		return ErrIssueToNonIssuer
	}

	if err := l.auth.RequireAuth(ctx, st.Issuer); err != nil {
		return err
	}
	if !quantity.Valid() {
		return ErrInvalidAmount
	}
	if quantity.Amount <= 0 {
		return fmt.Errorf("%w: must issue positive quantity", ErrInvalidAmount)
	}
	if !quantity.Symbol.Equal(st.Symbol()) {
		return ErrSymbolMismatch
	}
	if quantity.Amount > st.MaxSupply-st.Supply {
		return ErrSupplyExceeded
	}

	st.Supply += quantity.Amount
	if err := l.stats.Save(ctx, st); err != nil {
		return err
	}

	return l.addBalance(ctx, st.Issuer, quantity, st.Issuer)
}

// Retire 回收代币。从发行方自己的余额扣减并缩减供给，
// 扣减走 subBalance，同样受冻结与余额不足检查约束。
func (l *Ledger) Retire(ctx context.Context, quantity Asset, memo string) error {
	sym := quantity.Symbol
	if !sym.Valid() {
		return ErrInvalidSymbol
	}
	if len(memo) > MaxMemoLen {
		return ErrMemoTooLong
	}

	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}

	if err := l.auth.RequireAuth(ctx, st.Issuer); err != nil {
		return err
	}
	if !quantity.Valid() {
		return ErrInvalidAmount
	}
	if quantity.Amount <= 0 {
		return fmt.Errorf("%w: must retire positive quantity", ErrInvalidAmount)
	}
	if !quantity.Symbol.Equal(st.Symbol()) {
		return ErrSymbolMismatch
	}

	st.Supply -= quantity.Amount
	if err := l.stats.Save(ctx, st); err != nil {
		return err
	}

	return l.subBalance(ctx, st.Issuer, quantity)
}

// Transfer 转账，核心状态机操作。检查顺序固定：
// 自转检查、转出方授权、转入方存在性、代币解析、通知、数量与备注校验、
// 费用计算与豁免判定，最后按豁免分支移动余额并把手续费记到发行方。
func (l *Ledger) Transfer(ctx context.Context, from, to string, quantity Asset, memo string) error {
	if from == to {
		return ErrSelfTransfer
	}
	if err := l.auth.RequireAuth(ctx, from); err != nil {
		return err
	}

	exists, err := l.accounts.Exists(ctx, to)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, to)
	}

	st, err := l.stats.Get(ctx, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}

	l.notifier.NotifyTransfer(ctx, TransferNotice{
		From:     from,
		To:       to,
		Quantity: quantity.String(),
		Memo:     memo,
	})

	if !quantity.Valid() {
		return ErrInvalidAmount
	}
	if quantity.Amount <= 0 {
		return fmt.Errorf("%w: must transfer positive quantity", ErrInvalidAmount)
	}
	if !quantity.Symbol.Equal(st.Symbol()) {
		return ErrSymbolMismatch
	}
	if len(memo) > MaxMemoLen {
		return ErrMemoTooLong
	}

	payer := from
	if l.auth.HasAuth(ctx, to) {
		payer = to
	}

	fee := ComputeFee(quantity, st.FeeRate)

	exempt, err := l.exemptions.Exists(ctx, quantity.Symbol.Code, from)
	if err != nil {
		return err
	}

	if exempt {
		// 豁免分支：转出方只付数量本身，转入方到账扣除手续费后的净额
		if err := l.subBalance(ctx, from, quantity); err != nil {
			return err
		}
		if err := l.addBalance(ctx, to, quantity.Sub(fee), payer); err != nil {
			return err
		}
		l.notifier.NotifyFee(ctx, FeeNotice{Account: to, Fee: fee.String()})
	} else {
		// 非豁免分支：转出方额外承担手续费，转入方足额到账
		if err := l.subBalance(ctx, from, quantity.Add(fee)); err != nil {
			return err
		}
		if err := l.addBalance(ctx, to, quantity, payer); err != nil {
			return err
		}
		l.notifier.NotifyFee(ctx, FeeNotice{Account: from, Fee: fee.String()})
	}

	// 手续费归集到发行方，两个分支下都成立
	return l.addBalance(ctx, st.Issuer, fee, payer)
}

// Open 为 (owner, symbol) 预创建零余额记录，重复调用是无副作用的空操作。
func (l *Ledger) Open(ctx context.Context, owner string, sym Symbol, ramPayer string) error {
	if err := l.auth.RequireAuth(ctx, ramPayer); err != nil {
		return err
	}

	exists, err := l.accounts.Exists(ctx, owner)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}

	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}
	if !st.Symbol().Equal(sym) {
		return ErrSymbolMismatch
	}

	b, err := l.balances.Get(ctx, owner, sym.Code)
	if err != nil {
		return err
	}
	if b != nil {
		return nil
	}

	return l.balances.Save(ctx, &Balance{
		Owner:     owner,
		Code:      sym.Code,
		Precision: sym.Precision,
		Amount:    0,
		RAMPayer:  ramPayer,
	})
}

// Close 删除 (owner, symbol) 的余额记录，仅当余额恰为零时允许。
func (l *Ledger) Close(ctx context.Context, owner string, sym Symbol) error {
	if err := l.auth.RequireAuth(ctx, owner); err != nil {
		return err
	}

	b, err := l.balances.Get(ctx, owner, sym.Code)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrBalanceNotFound
	}
	if b.Amount != 0 {
		return ErrNonZeroBalance
	}

	return l.balances.Delete(ctx, owner, sym.Code)
}

// Freeze 设置账户冻结状态。冻结权限始终属于发行方，而非账户持有人。
func (l *Ledger) Freeze(ctx context.Context, account string, sym Symbol, status bool) error {
	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}

	if err := l.auth.RequireAuth(ctx, st.Issuer); err != nil {
		return err
	}

	b, err := l.balances.Get(ctx, account, sym.Code)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrBalanceNotFound
	}

	b.Frozen = status
	return l.balances.Save(ctx, b)
}

// SwitchExempt 切换账户在某符号豁免集中的成员关系：不在则加入，在则移除。
func (l *Ledger) SwitchExempt(ctx context.Context, issuer string, sym Symbol, account string) error {
	if err := l.auth.RequireAuth(ctx, issuer); err != nil {
		return err
	}
	if !sym.Valid() {
		return ErrInvalidSymbol
	}

	exists, err := l.accounts.Exists(ctx, account)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, account)
	}

	st, err := l.stats.Get(ctx, sym.Code)
	if err != nil {
		return err
	}
	if st == nil {
		return ErrTokenNotFound
	}
	if st.Issuer != issuer {
		return ErrNotIssuer
	}

	member, err := l.exemptions.Exists(ctx, sym.Code, account)
	if err != nil {
		return err
	}
	if member {
		return l.exemptions.Remove(ctx, sym.Code, account)
	}
	return l.exemptions.Add(ctx, sym.Code, account)
}

// LogFee 手续费空操作登记，仅经通知机制留痕，不改动任何账本状态。
// 需要合约所有者授权。
func (l *Ledger) LogFee(ctx context.Context, account string, fee Asset) error {
	if err := l.auth.RequireAuth(ctx, l.owner); err != nil {
		return err
	}
	l.notifier.NotifyFee(ctx, FeeNotice{Account: account, Fee: fee.String()})
	return nil
}

// GetSupply 查询某符号的当前供给
func (l *Ledger) GetSupply(ctx context.Context, code string) (Asset, error) {
	st, err := l.stats.Get(ctx, code)
	if err != nil {
		return Asset{}, err
	}
	if st == nil {
		return Asset{}, ErrTokenNotFound
	}
	return st.SupplyAsset(), nil
}

// GetBalance 查询某持有人在某符号下的余额
func (l *Ledger) GetBalance(ctx context.Context, owner, code string) (Asset, error) {
	b, err := l.balances.Get(ctx, owner, code)
	if err != nil {
		return Asset{}, err
	}
	if b == nil {
		return Asset{}, ErrNoBalance
	}
	return b.Asset(), nil
}

// subBalance 扣减余额，所有借方路径都经过这里。
// 记录缺失、余额不足、账户冻结三项检查无条件适用。
func (l *Ledger) subBalance(ctx context.Context, owner string, value Asset) error {
	b, err := l.balances.Get(ctx, owner, value.Symbol.Code)
	if err != nil {
		return err
	}
	if b == nil {
		return ErrNoBalance
	}
	if b.Amount < value.Amount {
		return ErrOverdrawn
	}
	if b.Frozen {
		return fmt.Errorf("%w: sender account is frozen", ErrAccountFrozen)
	}

	b.Amount -= value.Amount
	return l.balances.Save(ctx, b)
}

// addBalance 增加余额，所有贷方路径都经过这里。
// 记录不存在时创建（存储费用记在 ramPayer 名下）；
// 已存在且被冻结时拒绝入账，与原始行为保持一致。
func (l *Ledger) addBalance(ctx context.Context, owner string, value Asset, ramPayer string) error {
	b, err := l.balances.Get(ctx, owner, value.Symbol.Code)
	if err != nil {
		return err
	}
	if b == nil {
		return l.balances.Save(ctx, &Balance{
			Owner:     owner,
			Code:      value.Symbol.Code,
			Precision: value.Symbol.Precision,
			Amount:    value.Amount,
			RAMPayer:  ramPayer,
		})
	}
	if b.Frozen {
		return fmt.Errorf("%w: receiver account is frozen", ErrAccountFrozen)
	}

	b.Amount += value.Amount
	return l.balances.Save(ctx, b)
}
