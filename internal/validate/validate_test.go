package validate_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mohsinsiddi/w3giveaway/internal/validate"
)

// ---------------------------------------------------------------------------
// addresses
// ---------------------------------------------------------------------------

func TestIsValidAdminAddress(t *testing.T) {
	cases := map[string]bool{
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266":  true,
		"0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266":  true,
		"f39Fd6e51aad88F6F4ce6aB8827279cffFb92266":    false,
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb9226":   false,
		"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb922666": false,
		"0xg39Fd6e51aad88F6F4ce6aB8827279cffFb92266":  false,
		"": false,
	}
	for in, want := range cases {
		assert.Equal(t, want, validate.IsValidAdminAddress(in), in)
	}
}

func TestParseAddress(t *testing.T) {
	a, err := validate.ParseAddress("  0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266 ")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), a)

	_, err = validate.ParseAddress("0x123")
	assert.ErrorIs(t, err, validate.ErrValidation)
}

// ---------------------------------------------------------------------------
// emails
// ---------------------------------------------------------------------------

func TestParseEmailsTrimsAndDropsEmpty(t *testing.T) {
	b := validate.ParseEmails(" a@b.co, ,c@d.org,, ")
	assert.True(t, b.Valid)
	assert.Equal(t, []string{"a@b.co", "c@d.org"}, b.Emails())
	assert.NoError(t, b.Err())
}

func TestParseEmailsFlagsInvalidEntries(t *testing.T) {
	b := validate.ParseEmails("a@b.co, not-an-email, x@y, q w@e.r")
	assert.False(t, b.Valid)
	assert.Equal(t, []string{"not-an-email", "x@y", "q"}, b.Invalid())
	err := b.Err()
	require.ErrorIs(t, err, validate.ErrValidation)
	assert.Contains(t, err.Error(), "not-an-email")
}

func TestParseEmailsSplitsOnWhitespace(t *testing.T) {
	b := validate.ParseEmails("a@x.io b@y.io\tc@z.io,\nd@w.io")
	assert.True(t, b.Valid)
	assert.Equal(t, []string{"a@x.io", "b@y.io", "c@z.io", "d@w.io"}, b.Emails())
}

func TestParseEmailsLimit(t *testing.T) {
	ten := strings.Repeat("a@b.co,", 10)
	assert.True(t, validate.ParseEmails(ten).Valid)

	eleven := ten + "z@b.co"
	b := validate.ParseEmails(eleven)
	assert.False(t, b.Valid)
	assert.True(t, b.TooMany)
	assert.Contains(t, b.Err().Error(), "at most 10")
}

func TestParseEmailsEmpty(t *testing.T) {
	b := validate.ParseEmails(" , ,")
	assert.False(t, b.Valid)
	assert.Empty(t, b.Entries)
	assert.ErrorIs(t, b.Err(), validate.ErrValidation)
}

// ---------------------------------------------------------------------------
// giveaway and VRF fields
// ---------------------------------------------------------------------------

func TestGiveawayName(t *testing.T) {
	assert.NoError(t, validate.GiveawayName("Summer Party"))
	assert.NoError(t, validate.GiveawayName("  Launch  "))
	assert.ErrorIs(t, validate.GiveawayName("   "), validate.ErrValidation)
	assert.ErrorIs(t, validate.GiveawayName("Round 2"), validate.ErrValidation)
	assert.ErrorIs(t, validate.GiveawayName("hi!"), validate.ErrValidation)
}

func TestKeyHash(t *testing.T) {
	h, err := validate.KeyHash("0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c")
	require.NoError(t, err)
	assert.Equal(t, byte(0x47), h[0])

	_, err = validate.KeyHash("0x1234")
	assert.ErrorIs(t, err, validate.ErrValidation)
}

func TestGasLimit(t *testing.T) {
	v, err := validate.GasLimit("500000")
	require.NoError(t, err)
	assert.Equal(t, uint32(500000), v)

	for _, bad := range []string{"0", "-1", "abc", "4294967296"} {
		_, err := validate.GasLimit(bad)
		assert.ErrorIs(t, err, validate.ErrValidation, bad)
	}
}

func TestSubscriptionID(t *testing.T) {
	big1, _ := new(big.Int).SetString("71560401273547729331275416392331402796649441712678139595864730504557786107390", 10)
	v, err := validate.SubscriptionID("71560401273547729331275416392331402796649441712678139595864730504557786107390")
	require.NoError(t, err)
	assert.Equal(t, 0, big1.Cmp(v))

	for _, bad := range []string{"0", "-3", "0x10", ""} {
		_, err := validate.SubscriptionID(bad)
		assert.ErrorIs(t, err, validate.ErrValidation, bad)
	}
}

func TestGiveawayID(t *testing.T) {
	id, err := validate.GiveawayID("7")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	_, err = validate.GiveawayID("seven")
	assert.ErrorIs(t, err, validate.ErrValidation)
}

// ---------------------------------------------------------------------------
// struct rules
// ---------------------------------------------------------------------------

func TestStructRules(t *testing.T) {
	assert.NoError(t, validate.Struct(validate.CreateGiveawayInput{Name: "Spring"}))
	assert.ErrorIs(t, validate.Struct(validate.CreateGiveawayInput{Name: "Spring 2"}), validate.ErrValidation)

	assert.NoError(t, validate.Struct(validate.AdminInput{Address: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}))
	err := validate.Struct(validate.AdminInput{Address: "nope"})
	require.ErrorIs(t, err, validate.ErrValidation)
	assert.Contains(t, err.Error(), "admin_addr")

	assert.NoError(t, validate.Struct(validate.BatchInput{GiveawayID: 1, Emails: []string{"a@b.co"}}))
	assert.ErrorIs(t, validate.Struct(validate.BatchInput{GiveawayID: 1, Emails: []string{"bad"}}), validate.ErrValidation)
	assert.ErrorIs(t, validate.Struct(validate.BatchInput{GiveawayID: 1}), validate.ErrValidation)
	assert.ErrorIs(t, validate.Struct(validate.BatchInput{
		GiveawayID: 1,
		Emails:     strings.Split(strings.TrimSuffix(strings.Repeat("a@b.co,", 11), ","), ","),
	}), validate.ErrValidation)
}
