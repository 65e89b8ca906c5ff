package domain

import "errors"

var (
	// 校验类错误：仅凭输入即可判定
	ErrInvalidSymbol = errors.New("invalid symbol name")
	ErrInvalidAmount = errors.New("invalid quantity")
	ErrInvalidFee    = errors.New("max fee allowed is 0.5%")
	ErrMemoTooLong   = errors.New("memo has more than 256 bytes")
	ErrSelfTransfer  = errors.New("cannot transfer to self")

	// 未找到类错误：需要存储查询
	ErrTokenExists     = errors.New("token with symbol already exists")
	ErrTokenNotFound   = errors.New("token with symbol does not exist")
	ErrNoBalance       = errors.New("no balance object found")
	ErrBalanceNotFound = errors.New("balance row already deleted or never existed")
	ErrUnknownAccount  = errors.New("account does not exist")

	// 授权类错误
	ErrMissingAuth      = errors.New("missing required authority")
	ErrNotIssuer        = errors.New("issuer not authorized")
	ErrIssueToNonIssuer = errors.New("tokens can only be issued to issuer account")

	// 不变量类错误：需要对照存储状态
	ErrSymbolMismatch = errors.New("symbol precision mismatch")
	ErrSupplyExceeded = errors.New("quantity exceeds available supply")
	ErrOverdrawn      = errors.New("overdrawn balance")
	ErrAccountFrozen  = errors.New("account is frozen")
	ErrNonZeroBalance = errors.New("cannot close because the balance is not zero")
)
