package application_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/tokenledger/internal/ledger/application"
	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/identity"
	"github.com/wyfcoding/tokenledger/internal/ledger/infrastructure/persistence/memory"
	"github.com/wyfcoding/tokenledger/pkg/metrics"
)

const contractOwner = "ledger.admin"

// capturedEvent 测试事件收集器记录的一条事件
type capturedEvent struct {
	Type    string
	Key     string
	Payload map[string]any
}

type capturingPublisher struct {
	events []capturedEvent
}

func (p *capturingPublisher) Publish(_ context.Context, eventType, key string, payload map[string]any) error {
	p.events = append(p.events, capturedEvent{Type: eventType, Key: key, Payload: payload})
	return nil
}

type harness struct {
	store   *memory.Store
	events  *capturingPublisher
	service *application.LedgerService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	events := &capturingPublisher{}

	ledger := domain.NewLedger(
		store, store.Balances(), store.Exemptions(),
		identity.ContextAuthorizer{}, store, domain.NopNotifier{}, contractOwner,
	)

	query := application.NewLedgerQueryService(store, store.Balances(), nil)
	command := application.NewLedgerCommandService(ledger, store, store, events, nil, query)
	return &harness{
		store:   store,
		events:  events,
		service: application.NewLedgerService(command, query),
	}
}

// authed 构造携带调用方身份的上下文
func authed(actors ...string) context.Context {
	return identity.WithActors(context.Background(), actors...)
}

func (h *harness) lastEvent(t *testing.T) capturedEvent {
	t.Helper()
	require.NotEmpty(t, h.events.events)
	return h.events.events[len(h.events.events)-1]
}

func TestCommandServiceLifecycle(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterIdentity("alice")
	h.store.RegisterIdentity("bob")

	ownerCtx := authed(contractOwner)
	aliceCtx := authed("alice")

	require.NoError(t, h.service.CreateToken(ownerCtx, application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "1000.00 SYM",
	}))
	ev := h.lastEvent(t)
	assert.Equal(t, domain.EventTokenCreated, ev.Type)
	assert.Equal(t, "SYM", ev.Key)

	require.NoError(t, h.service.Issue(aliceCtx, application.IssueCommand{
		To: "alice", Quantity: "100.00 SYM", Memo: "genesis",
	}))
	assert.Equal(t, domain.EventTokenIssued, h.lastEvent(t).Type)

	require.NoError(t, h.service.Transfer(aliceCtx, application.TransferCommand{
		From: "alice", To: "bob", Quantity: "25.00 SYM",
	}))
	assert.Equal(t, domain.EventTransferred, h.lastEvent(t).Type)

	supply, err := h.service.GetSupply(context.Background(), "SYM")
	require.NoError(t, err)
	assert.Equal(t, "100.00 SYM", supply.Supply)

	balance, err := h.service.GetBalance(context.Background(), "bob", "SYM")
	require.NoError(t, err)
	assert.Equal(t, "25.00 SYM", balance.Balance)

	require.NoError(t, h.service.Retire(aliceCtx, application.RetireCommand{
		Quantity: "10.00 SYM",
	}))
	supply, err = h.service.GetSupply(context.Background(), "SYM")
	require.NoError(t, err)
	assert.Equal(t, "90.00 SYM", supply.Supply)
}

func TestCommandServiceRejectsBadLiterals(t *testing.T) {
	h := newHarness(t)
	ctx := authed(contractOwner)

	err := h.service.CreateToken(ctx, application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "not an asset",
	})
	assert.Error(t, err)

	err = h.service.Open(ctx, application.OpenCommand{
		Owner: "alice", Symbol: "not a symbol", RAMPayer: "alice",
	})
	assert.Error(t, err)

	// 解析失败不应产生任何事件
	assert.Empty(t, h.events.events)
}

func TestCommandServicePropagatesDomainErrors(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterIdentity("alice")

	require.NoError(t, h.service.CreateToken(authed(contractOwner), application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "100.00 SYM",
	}))

	// 缺少发行方授权
	err := h.service.Issue(context.Background(), application.IssueCommand{
		To: "alice", Quantity: "1.00 SYM",
	})
	assert.ErrorIs(t, err, domain.ErrMissingAuth)

	// 超出供给上限，且失败的命令不发布事件
	before := len(h.events.events)
	err = h.service.Issue(authed("alice"), application.IssueCommand{
		To: "alice", Quantity: "100.01 SYM",
	})
	assert.ErrorIs(t, err, domain.ErrSupplyExceeded)
	assert.Len(t, h.events.events, before)

	supply, qerr := h.service.GetSupply(context.Background(), "SYM")
	require.NoError(t, qerr)
	assert.Equal(t, "0.00 SYM", supply.Supply)
}

func TestCommandServiceFreezeAndExempt(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterIdentity("alice")
	h.store.RegisterIdentity("bob")
	aliceCtx := authed("alice")

	require.NoError(t, h.service.CreateToken(authed(contractOwner), application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "1000.0000 TOK",
	}))
	require.NoError(t, h.service.SetFee(aliceCtx, application.SetFeeCommand{
		Issuer: "alice", Symbol: "4,TOK", FeeRate: 25,
	}))
	require.NoError(t, h.service.Issue(aliceCtx, application.IssueCommand{
		To: "alice", Quantity: "10.0000 TOK",
	}))
	require.NoError(t, h.service.SwitchExempt(aliceCtx, application.SwitchExemptCommand{
		Issuer: "alice", Symbol: "4,TOK", Account: "alice",
	}))
	assert.Equal(t, domain.EventExemptionSwitched, h.lastEvent(t).Type)

	// 豁免转出方：接收方到账净额
	require.NoError(t, h.service.Transfer(aliceCtx, application.TransferCommand{
		From: "alice", To: "bob", Quantity: "2.0000 TOK",
	}))
	balance, err := h.service.GetBalance(context.Background(), "bob", "TOK")
	require.NoError(t, err)
	assert.Equal(t, "1.9950 TOK", balance.Balance)

	require.NoError(t, h.service.Freeze(aliceCtx, application.FreezeCommand{
		Account: "bob", Symbol: "4,TOK", Status: true,
	}))
	balance, err = h.service.GetBalance(context.Background(), "bob", "TOK")
	require.NoError(t, err)
	assert.True(t, balance.Frozen)

	err = h.service.Transfer(authed("bob"), application.TransferCommand{
		From: "bob", To: "alice", Quantity: "1.0000 TOK",
	})
	assert.ErrorIs(t, err, domain.ErrAccountFrozen)
}

func TestCommandServiceOpenClose(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterIdentity("alice")
	h.store.RegisterIdentity("bob")

	require.NoError(t, h.service.CreateToken(authed(contractOwner), application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "1000.00 SYM",
	}))
	require.NoError(t, h.service.Open(authed("bob"), application.OpenCommand{
		Owner: "bob", Symbol: "2,SYM", RAMPayer: "bob",
	}))

	rows, err := h.service.ListBalances(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "0.00 SYM", rows[0].Balance)

	require.NoError(t, h.service.Close(authed("bob"), application.CloseCommand{
		Owner: "bob", Symbol: "2,SYM",
	}))
	_, err = h.service.GetBalance(context.Background(), "bob", "SYM")
	assert.ErrorIs(t, err, domain.ErrNoBalance)
}

// hookedUnitOfWork 在事务成功提交后立即执行回调，
// 模拟紧随其后提交的另一个会话的写入
type hookedUnitOfWork struct {
	inner       domain.UnitOfWork
	afterCommit func()
}

func (u *hookedUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := u.inner.WithinTx(ctx, fn)
	if err == nil && u.afterCommit != nil {
		u.afterCommit()
	}
	return err
}

func TestTransferFeeMetricUsesCommittedRate(t *testing.T) {
	store := memory.NewStore()
	m := metrics.New("test")
	ledger := domain.NewLedger(
		store, store.Balances(), store.Exemptions(),
		identity.ContextAuthorizer{}, store, domain.NopNotifier{}, contractOwner,
	)
	query := application.NewLedgerQueryService(store, store.Balances(), nil)
	uow := &hookedUnitOfWork{inner: store}
	command := application.NewLedgerCommandService(ledger, store, uow, nil, m, query)
	svc := application.NewLedgerService(command, query)

	store.RegisterIdentity("alice")
	store.RegisterIdentity("bob")
	aliceCtx := authed("alice")

	require.NoError(t, svc.CreateToken(authed(contractOwner), application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "1000.0000 TOK",
	}))
	require.NoError(t, svc.SetFee(aliceCtx, application.SetFeeCommand{
		Issuer: "alice", Symbol: "4,TOK", FeeRate: 25,
	}))
	require.NoError(t, svc.Issue(aliceCtx, application.IssueCommand{
		To: "alice", Quantity: "10.0000 TOK",
	}))

	// 转账事务提交后另一个会话立即把费率改成 49
	uow.afterCommit = func() {
		st, err := store.Get(context.Background(), "TOK")
		require.NoError(t, err)
		st.FeeRate = 49
		require.NoError(t, store.Save(context.Background(), st))
	}
	require.NoError(t, svc.Transfer(aliceCtx, application.TransferCommand{
		From: "alice", To: "bob", Quantity: "2.0000 TOK",
	}))

	// 指标必须反映转账提交时生效的费率 25（20000 最小单位 → 50），
	// 而不是事后读到的 49
	collected := testutil.ToFloat64(m.FeeCollectedTotal.WithLabelValues("TOK"))
	assert.Equal(t, float64(50), collected)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransfersTotal))
}

func TestQueryServiceViews(t *testing.T) {
	h := newHarness(t)
	h.store.RegisterIdentity("alice")
	h.store.RegisterIdentity("bob")
	aliceCtx := authed("alice")

	require.NoError(t, h.service.CreateToken(authed(contractOwner), application.CreateTokenCommand{
		Issuer: "alice", MaxSupply: "1000.00 SYM",
	}))
	require.NoError(t, h.service.Issue(aliceCtx, application.IssueCommand{
		To: "alice", Quantity: "100.00 SYM",
	}))
	require.NoError(t, h.service.Transfer(aliceCtx, application.TransferCommand{
		From: "alice", To: "bob", Quantity: "40.00 SYM",
	}))

	token, err := h.service.GetToken(context.Background(), "SYM")
	require.NoError(t, err)
	assert.Equal(t, "alice", token.Issuer)
	assert.Equal(t, "1000.00 SYM", token.MaxSupply)
	assert.Equal(t, uint8(domain.DefaultFeeRate), token.FeeRate)

	_, err = h.service.GetToken(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	holders, err := h.service.ListHolders(context.Background(), "SYM")
	require.NoError(t, err)
	assert.Len(t, holders, 2)
}
