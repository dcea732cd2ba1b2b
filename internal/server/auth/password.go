// Package auth обеспечивает учетные данные администратора: деривацию
// и проверку пароля, генерацию стартового пароля и загрузку credential
// из окружения, файла или генерацией при первом старте.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"

	"golang.org/x/crypto/scrypt"
)

// Параметры scrypt подобраны так, чтобы один хеш занимал десятки
// миллисекунд. Формат совместим с хешами, сгенерированными cmd/hashgen.
const (
	scryptN      = 1 << 14
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64

	// SaltSize - размер соли в байтах до hex-кодирования
	SaltSize = 16

	passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789!@#$%^&*"
	passwordLength   = 18
)

var hexRe = regexp.MustCompile(`^[a-fA-F0-9]+$`)

// HashPassword возвращает hex(scrypt(password, salt)).
// Соль передается как строка и используется побайтово.
func HashPassword(password, salt string) (string, error) {
	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive password hash: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// VerifyPassword пересчитывает хеш и сравнивает с ожидаемым за
// константное время. На любом некорректном hex возвращает false,
// никогда не паникует.
func VerifyPassword(password, salt, expectedHex string) bool {
	if !IsHex(expectedHex) {
		return false
	}
	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false
	}

	computedHex, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	computed, err := hex.DecodeString(computedHex)
	if err != nil {
		return false
	}

	if len(computed) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// SecureCompare сравнивает две строки за константное время.
// Используется для проверки логина и CSRF токенов.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// IsHex сообщает, состоит ли непустая строка только из hex-символов.
func IsHex(value string) bool {
	return value != "" && hexRe.MatchString(value)
}

// NewSalt генерирует криптографически случайную соль в hex.
func NewSalt() (string, error) {
	return RandomToken(SaltSize)
}

// RandomToken возвращает hex-строку из size случайных байт.
func RandomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GeneratePassword возвращает случайный стартовый пароль администратора.
func GeneratePassword() (string, error) {
	buf := make([]byte, passwordLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	out := make([]byte, passwordLength)
	for i, b := range buf {
		out[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(out), nil
}
