// 包 application 账本服务的应用层，编排事务、事件与指标
package application

import "github.com/wyfcoding/tokenledger/internal/ledger/domain"

// TokenDTO 代币信息视图
type TokenDTO struct {
	Code      string `json:"code"`
	Precision uint8  `json:"precision"`
	Supply    string `json:"supply"`
	MaxSupply string `json:"max_supply"`
	Issuer    string `json:"issuer"`
	FeeRate   uint8  `json:"fee_rate"`
}

// SupplyDTO 供给查询视图
type SupplyDTO struct {
	Code   string `json:"code"`
	Supply string `json:"supply"`
}

// BalanceDTO 余额查询视图
type BalanceDTO struct {
	Owner   string `json:"owner"`
	Code    string `json:"code"`
	Balance string `json:"balance"`
	Frozen  bool   `json:"frozen"`
}

func toTokenDTO(st *domain.TokenStat) *TokenDTO {
	return &TokenDTO{
		Code:      st.Code,
		Precision: st.Precision,
		Supply:    st.SupplyAsset().String(),
		MaxSupply: st.MaxSupplyAsset().String(),
		Issuer:    st.Issuer,
		FeeRate:   st.FeeRate,
	}
}

func toBalanceDTO(b *domain.Balance) *BalanceDTO {
	return &BalanceDTO{
		Owner:   b.Owner,
		Code:    b.Code,
		Balance: b.Asset().String(),
		Frozen:  b.Frozen,
	}
}
