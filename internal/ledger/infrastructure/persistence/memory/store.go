// 包 memory 提供基于 map 的账本存储实现，
// 用于测试和无数据库的开发部署。两级 (scope, key) 结构
// 与宿主的键值表一一对应。
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/wyfcoding/tokenledger/internal/ledger/domain"
)

// Store 内存存储，同时实现全部仓储接口、账户注册表与事务边界。
// WithinTx 通过整体快照与回滚提供全有或全无语义。
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	stats      map[string]*domain.TokenStat
	balances   map[string]map[string]*domain.Balance
	exemptions map[string]map[string]struct{}
	identities map[string]struct{}
	nextID     uint
}

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		stats:      make(map[string]*domain.TokenStat),
		balances:   make(map[string]map[string]*domain.Balance),
		exemptions: make(map[string]map[string]struct{}),
		identities: make(map[string]struct{}),
	}
}

// --- StatRepository ---

// Get 实现 domain.StatRepository
func (s *Store) Get(ctx context.Context, code string) (*domain.TokenStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[code]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

// Save 实现 domain.StatRepository
func (s *Store) Save(ctx context.Context, stat *domain.TokenStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stat.ID == 0 {
		s.nextID++
		stat.ID = s.nextID
	}
	cp := *stat
	s.stats[stat.Code] = &cp
	return nil
}

// --- BalanceRepository ---

type balanceRepo struct{ s *Store }

// Balances 返回余额仓储视图
func (s *Store) Balances() domain.BalanceRepository { return balanceRepo{s} }

func (r balanceRepo) Get(ctx context.Context, owner, code string) (*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.balances[owner][code]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r balanceRepo) ListByOwner(ctx context.Context, owner string) ([]*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rows := make([]*domain.Balance, 0, len(r.s.balances[owner]))
	for _, b := range r.s.balances[owner] {
		cp := *b
		rows = append(rows, &cp)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

func (r balanceRepo) ListByCode(ctx context.Context, code string) ([]*domain.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var rows []*domain.Balance
	for _, byCode := range r.s.balances {
		if b, ok := byCode[code]; ok {
			cp := *b
			rows = append(rows, &cp)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Owner < rows[j].Owner })
	return rows, nil
}

func (r balanceRepo) Save(ctx context.Context, balance *domain.Balance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if balance.ID == 0 {
		r.s.nextID++
		balance.ID = r.s.nextID
	}
	byCode, ok := r.s.balances[balance.Owner]
	if !ok {
		byCode = make(map[string]*domain.Balance)
		r.s.balances[balance.Owner] = byCode
	}
	cp := *balance
	byCode[balance.Code] = &cp
	return nil
}

func (r balanceRepo) Delete(ctx context.Context, owner, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if byCode, ok := r.s.balances[owner]; ok {
		delete(byCode, code)
		if len(byCode) == 0 {
			delete(r.s.balances, owner)
		}
	}
	return nil
}

// --- ExemptionRepository ---

type exemptionRepo struct{ s *Store }

// Exemptions 返回豁免集仓储视图
func (s *Store) Exemptions() domain.ExemptionRepository { return exemptionRepo{s} }

func (r exemptionRepo) Exists(ctx context.Context, code, account string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.exemptions[code][account]
	return ok, nil
}

func (r exemptionRepo) Add(ctx context.Context, code, account string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	set, ok := r.s.exemptions[code]
	if !ok {
		set = make(map[string]struct{})
		r.s.exemptions[code] = set
	}
	set[account] = struct{}{}
	return nil
}

func (r exemptionRepo) Remove(ctx context.Context, code, account string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if set, ok := r.s.exemptions[code]; ok {
		delete(set, account)
		if len(set) == 0 {
			delete(r.s.exemptions, code)
		}
	}
	return nil
}

// --- AccountRegistry ---

// RegisterIdentity 登记一个账户身份
func (s *Store) RegisterIdentity(identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity] = struct{}{}
}

// Register 实现 identity.Registry 形状的登记接口
func (s *Store) Register(ctx context.Context, name string) error {
	s.RegisterIdentity(name)
	return nil
}

// Exists 实现 domain.AccountRegistry
func (s *Store) Exists(ctx context.Context, identity string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.identities[identity]
	return ok, nil
}

// --- UnitOfWork ---

// WithinTx 实现 domain.UnitOfWork：执行前快照全部状态，
// fn 返回错误时整体回滚，保证失败操作不留下任何局部变更。
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	stats      map[string]*domain.TokenStat
	balances   map[string]map[string]*domain.Balance
	exemptions map[string]map[string]struct{}
	identities map[string]struct{}
	nextID     uint
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		stats:      make(map[string]*domain.TokenStat, len(s.stats)),
		balances:   make(map[string]map[string]*domain.Balance, len(s.balances)),
		exemptions: make(map[string]map[string]struct{}, len(s.exemptions)),
		identities: make(map[string]struct{}, len(s.identities)),
		nextID:     s.nextID,
	}
	for k, v := range s.stats {
		cp := *v
		snap.stats[k] = &cp
	}
	for owner, byCode := range s.balances {
		inner := make(map[string]*domain.Balance, len(byCode))
		for code, b := range byCode {
			cp := *b
			inner[code] = &cp
		}
		snap.balances[owner] = inner
	}
	for code, set := range s.exemptions {
		inner := make(map[string]struct{}, len(set))
		for acc := range set {
			inner[acc] = struct{}{}
		}
		snap.exemptions[code] = inner
	}
	for id := range s.identities {
		snap.identities[id] = struct{}{}
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = snap.stats
	s.balances = snap.balances
	s.exemptions = snap.exemptions
	s.identities = snap.identities
	s.nextID = snap.nextID
}
