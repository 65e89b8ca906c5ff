// 包 domain 代币账本的领域模型
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxSymbolCodeLen 符号代码最大长度
	MaxSymbolCodeLen = 7
	// MaxPrecision 符号最大小数位数
	MaxPrecision = 18
	// MaxAssetAmount 资产数量的绝对值上限
	MaxAssetAmount = int64(1)<<62 - 1
)

// Symbol 代币符号，由代码（大写字母短名）与小数位数组成。
// 两个符号只有在代码与小数位都相等时才视为同一符号。
type Symbol struct {
	Code      string
	Precision uint8
}

// NewSymbol 构造符号并校验合法性
func NewSymbol(code string, precision uint8) (Symbol, error) {
	s := Symbol{Code: code, Precision: precision}
	if !s.Valid() {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, code)
	}
	return s, nil
}

// MustSymbol 构造符号，非法时 panic，仅用于常量场景
func MustSymbol(code string, precision uint8) Symbol {
	s, err := NewSymbol(code, precision)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSymbol 解析 "4,SYM" 形式的符号字面量
func ParseSymbol(s string) (Symbol, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	precision, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return NewSymbol(parts[1], uint8(precision))
}

// Valid 校验符号：代码为 1~7 个大写字母，小数位不超过 18
func (s Symbol) Valid() bool {
	if len(s.Code) == 0 || len(s.Code) > MaxSymbolCodeLen {
		return false
	}
	for _, c := range s.Code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return s.Precision <= MaxPrecision
}

// Equal 判断两个符号是否相同（代码与小数位都必须一致）
func (s Symbol) Equal(o Symbol) bool {
	return s.Code == o.Code && s.Precision == o.Precision
}

// String 输出 "4,SYM" 形式
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Asset 带符号的类型化数量，Amount 以最小单位（10^-Precision）计
type Asset struct {
	Amount int64
	Symbol Symbol
}

// NewAsset 构造资产
func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// ParseAsset 解析 "100.00 SYM" 形式的资产字面量，
// 小数位数即符号的精度，数量折算为最小单位。
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	numStr, code := fields[0], fields[1]
	var precision uint8
	if dot := strings.IndexByte(numStr, '.'); dot >= 0 {
		frac := len(numStr) - dot - 1
		if frac > MaxPrecision {
			return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		precision = uint8(frac)
	}

	d, err := decimal.NewFromString(numStr)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	sym, err := NewSymbol(code, precision)
	if err != nil {
		return Asset{}, err
	}

	minor := d.Shift(int32(precision))
	if !minor.IsInteger() {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	a := Asset{Amount: minor.IntPart(), Symbol: sym}
	if !a.Valid() {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return a, nil
}

// Valid 校验资产：符号合法且数量在允许区间内
func (a Asset) Valid() bool {
	if !a.Symbol.Valid() {
		return false
	}
	return a.Amount >= -MaxAssetAmount && a.Amount <= MaxAssetAmount
}

// Add 资产相加。调用方必须事先保证符号一致，不一致属于编程错误。
func (a Asset) Add(b Asset) Asset {
	if !a.Symbol.Equal(b.Symbol) {
		panic(fmt.Sprintf("asset symbol mismatch: %s vs %s", a.Symbol, b.Symbol))
	}
	return Asset{Amount: a.Amount + b.Amount, Symbol: a.Symbol}
}

// Sub 资产相减。调用方必须事先保证符号一致。
func (a Asset) Sub(b Asset) Asset {
	if !a.Symbol.Equal(b.Symbol) {
		panic(fmt.Sprintf("asset symbol mismatch: %s vs %s", a.Symbol, b.Symbol))
	}
	return Asset{Amount: a.Amount - b.Amount, Symbol: a.Symbol}
}

// Decimal 将最小单位数量转换为十进制表示
func (a Asset) Decimal() decimal.Decimal {
	return decimal.New(a.Amount, -int32(a.Symbol.Precision))
}

// String 输出 "100.00 SYM" 形式
func (a Asset) String() string {
	return a.Decimal().StringFixed(int32(a.Symbol.Precision)) + " " + a.Symbol.Code
}
