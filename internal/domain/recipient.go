package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// RecipientKey возвращает стабильный хэш идентификатора получателя.
// Jobs и настройки индексируются по хэшу, а не по сырому идентификатору.
func RecipientKey(recipient string) string {
	sum := sha256.Sum256([]byte(recipient))
	return hex.EncodeToString(sum[:])
}
