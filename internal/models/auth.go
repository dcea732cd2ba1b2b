package models

import "time"

// Credential представляет учетные данные администратора.
// Создаются один раз при первом старте (или берутся из окружения)
// и неизменны в течение жизни процесса.
type Credential struct {
	Login     string    `json:"login"`               // логин администратора
	Salt      string    `json:"salt"`                // hex-соль, уникальна для каждой генерации
	Hash      string    `json:"hash"`                // hex(scrypt(password, salt))
	CreatedAt time.Time `json:"createdAt,omitempty"` // только для сгенерированных credentials
	Source    string    `json:"-"`                   // env-hash | file | generated
}

// Session представляет активную админ-сессию.
// Владеет записями исключительно session.Store.
type Session struct {
	ID        string    // непрозрачный случайный токен (cookie)
	Login     string    // логин владельца
	CSRFToken string    // независимый случайный токен для заголовка x-csrf-token
	CreatedAt time.Time // время создания
	ExpiresAt time.Time // скользящий срок действия
	ClientIP  string    // IP клиента на момент логина
	UserAgent string    // User-Agent клиента на момент логина
}
