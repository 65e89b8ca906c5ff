package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSymbol(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		precision uint8
		wantErr   bool
	}{
		{"valid", "SYM", 4, false},
		{"single letter", "A", 0, false},
		{"max length", "ABCDEFG", 18, false},
		{"empty code", "", 4, true},
		{"too long", "ABCDEFGH", 4, true},
		{"lowercase", "sym", 4, true},
		{"digits", "SYM1", 4, true},
		{"precision too high", "SYM", 19, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSymbol(tt.code, tt.precision)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.code, s.Code)
			assert.Equal(t, tt.precision, s.Precision)
		})
	}
}

func TestSymbolEqual(t *testing.T) {
	a := MustSymbol("SYM", 4)
	assert.True(t, a.Equal(MustSymbol("SYM", 4)))
	// 代码相同但精度不同的符号不相等
	assert.False(t, a.Equal(MustSymbol("SYM", 2)))
	assert.False(t, a.Equal(MustSymbol("OTHER", 4)))
}

func TestParseSymbol(t *testing.T) {
	s, err := ParseSymbol("4,SYM")
	require.NoError(t, err)
	assert.Equal(t, MustSymbol("SYM", 4), s)

	_, err = ParseSymbol("SYM")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = ParseSymbol("x,SYM")
	assert.ErrorIs(t, err, ErrInvalidSymbol)

	// 精度段必须是纯十进制数字，带尾缀或符号的一律拒绝
	_, err = ParseSymbol("4x,SYM")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = ParseSymbol("-4,SYM")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = ParseSymbol("256,SYM")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("100.00 SYM")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), a.Amount)
	assert.Equal(t, MustSymbol("SYM", 2), a.Symbol)

	a, err = ParseAsset("1000 TOK")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.Amount)
	assert.Equal(t, uint8(0), a.Symbol.Precision)

	a, err = ParseAsset("-0.5000 TOK")
	require.NoError(t, err)
	assert.Equal(t, int64(-5000), a.Amount)

	_, err = ParseAsset("100.00")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAsset("abc SYM")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAsset("1.0 sym")
	assert.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestAssetString(t *testing.T) {
	a := NewAsset(10000, MustSymbol("SYM", 2))
	assert.Equal(t, "100.00 SYM", a.String())

	b := NewAsset(50, MustSymbol("TOK", 4))
	assert.Equal(t, "0.0050 TOK", b.String())

	c := NewAsset(7, MustSymbol("RAW", 0))
	assert.Equal(t, "7 RAW", c.String())
}

func TestAssetArithmetic(t *testing.T) {
	sym := MustSymbol("SYM", 2)
	a := NewAsset(300, sym)
	b := NewAsset(100, sym)

	assert.Equal(t, int64(400), a.Add(b).Amount)
	assert.Equal(t, int64(200), a.Sub(b).Amount)

	// 符号不一致属于编程错误
	assert.Panics(t, func() { a.Add(NewAsset(1, MustSymbol("TOK", 2))) })
	assert.Panics(t, func() { a.Sub(NewAsset(1, MustSymbol("SYM", 4))) })
}

func TestComputeFee(t *testing.T) {
	sym := MustSymbol("SYM", 2)
	tests := []struct {
		name    string
		amount  int64
		feeRate uint8
		want    int64
	}{
		// 截断发生在乘法之前：不足 10000 最小单位的数量费用恒为 0
		{"below divisor rounds to zero", 9999, 49, 0},
		{"exact multiple", 20000, 25, 50},
		{"truncated remainder", 25000, 10, 20},
		{"zero rate", 1000000, 0, 0},
		{"one unit over", 10001, 49, 49},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee := ComputeFee(NewAsset(tt.amount, sym), tt.feeRate)
			assert.Equal(t, tt.want, fee.Amount)
			assert.Equal(t, sym, fee.Symbol)
		})
	}
}
