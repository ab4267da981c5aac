package amount

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensScalesByDecimals(t *testing.T) {
	assert.Equal(t, "1000000000000000000", Tokens(1).String())
	assert.Equal(t, "10000000000000000000", Tokens(10).String())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("-1")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse("12abc")
	require.ErrorIs(t, err, ErrInvalid)

	a, err := Parse(" 42 ")
	require.NoError(t, err)
	assert.True(t, a.Equal(New(42)))
}

func TestBpsRoundsDown(t *testing.T) {
	price := Tokens(10)
	fee := price.Bps(500)
	assert.Equal(t, "500000000000000000", fee.String())

	proceeds, underflow := price.Sub(fee)
	require.False(t, underflow)
	assert.Equal(t, "9500000000000000000", proceeds.String())

	sum, overflow := proceeds.Add(fee)
	require.False(t, overflow)
	assert.True(t, sum.Equal(price))

	// 19 * 500 / 10000 = 0.95 -> 0
	assert.True(t, New(19).Bps(500).IsZero())
	assert.True(t, New(21).Bps(500).Equal(New(1)))
}

func TestAddSubBounds(t *testing.T) {
	_, underflow := New(1).Sub(New(2))
	assert.True(t, underflow)

	_, overflow := Max().Add(New(1))
	assert.True(t, overflow)
	assert.True(t, Max().IsMax())
}

func TestJSONAndScan(t *testing.T) {
	raw, err := json.Marshal(Tokens(3))
	require.NoError(t, err)
	assert.Equal(t, `"3000000000000000000"`, string(raw))

	var decoded Amount
	require.NoError(t, json.Unmarshal([]byte(`"7"`), &decoded))
	assert.True(t, decoded.Equal(New(7)))
	require.NoError(t, json.Unmarshal([]byte(`8`), &decoded))
	assert.True(t, decoded.Equal(New(8)))

	var scanned Amount
	require.NoError(t, scanned.Scan([]byte("123")))
	assert.Equal(t, "123", scanned.String())
	require.NoError(t, scanned.Scan(int64(5)))
	assert.Equal(t, "5", scanned.String())
	assert.Error(t, scanned.Scan(3.14))

	v, err := Tokens(1).Value()
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v)
}
