package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var nonPhone = regexp.MustCompile(`[^0-9]`)

// NormalizePhone reduz o telefone a dígitos, preservando o "+" de E.164.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	plus := strings.HasPrefix(phone, "+")
	digits := nonPhone.ReplaceAllString(phone, "")
	if plus {
		return "+" + digits
	}
	return digits
}

// ContactHash retorna SHA-256 do contato normalizado em hex (dedupe sem expor o dado).
func ContactHash(contactNormalized string) string {
	h := sha256.Sum256([]byte(contactNormalized))
	return hex.EncodeToString(h[:])
}
