package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignCheckoutToken checkout dönüş linkini doğrulamak için kullanılan
// tek kullanımlık tokeni üretir: HMAC-SHA256(userID:issuedAtMillis).
func SignCheckoutToken(userID uint, issuedAt int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d:%d", userID, issuedAt)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCheckoutToken tokeni yeniden hesaplayıp sabit zamanlı karşılaştırır.
func VerifyCheckoutToken(token string, userID uint, issuedAt int64, secret string) bool {
	expected := SignCheckoutToken(userID, issuedAt, secret)
	return hmac.Equal([]byte(token), []byte(expected))
}
