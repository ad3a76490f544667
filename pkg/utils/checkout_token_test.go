package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckoutTokenRoundTrip(t *testing.T) {
	token := SignCheckoutToken(42, 1700000000000, "secret")

	assert.True(t, VerifyCheckoutToken(token, 42, 1700000000000, "secret"))
	assert.False(t, VerifyCheckoutToken(token, 43, 1700000000000, "secret"), "different user")
	assert.False(t, VerifyCheckoutToken(token, 42, 1700000000001, "secret"), "different timestamp")
	assert.False(t, VerifyCheckoutToken(token, 42, 1700000000000, "other"), "different secret")
	assert.False(t, VerifyCheckoutToken("", 42, 1700000000000, "secret"))
}

func TestCheckoutTokenIsDeterministic(t *testing.T) {
	a := SignCheckoutToken(1, 1700000000000, "secret")
	b := SignCheckoutToken(1, 1700000000000, "secret")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64, "hex encoded sha256")
}
