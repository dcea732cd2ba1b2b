package api

import "github.com/iudanet/ristopoint/internal/models"

// LoginRequest представляет запрос на вход администратора
type LoginRequest struct {
	Login    string `json:"login"`    // логин администратора
	Password string `json:"password"` // пароль в открытом виде (только по HTTPS)
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	Authenticated bool   `json:"authenticated"` // всегда true при 200
	CSRFToken     string `json:"csrfToken"`     // токен для заголовка x-csrf-token
}

// SessionResponse представляет состояние аутентификации
type SessionResponse struct {
	Authenticated bool   `json:"authenticated"`       // есть ли живая сессия
	Login         string `json:"login,omitempty"`     // логин владельца сессии
	ExpiresAt     int64  `json:"expiresAt,omitempty"` // unix ms окончания сессии
	CSRFToken     string `json:"csrfToken,omitempty"` // текущий CSRF токен сессии
}

// DataRequest представляет запрос на запись документа
type DataRequest struct {
	Data any `json:"data"` // кандидат-документ, нормализуется сервером
}

// DataResponse представляет ответ с текущим документом
type DataResponse struct {
	OK        bool            `json:"ok,omitempty"`
	Data      models.Document `json:"data"`                // нормализованный документ
	CSRFToken string          `json:"csrfToken,omitempty"` // эхо CSRF токена для админки
}

// UploadRequest представляет запрос на загрузку медиа
type UploadRequest struct {
	FileName string `json:"fileName"` // исходное имя файла (только для подсказки расширения)
	MimeType string `json:"mimeType"` // MIME из allow-list
	Base64   string `json:"base64"`   // содержимое, допускается data-URI префикс
}

// UploadResponse представляет ответ на успешную загрузку
type UploadResponse struct {
	OK        bool   `json:"ok"`
	URL       string `json:"url"`       // публичный путь /uploads/<имя>
	MediaType string `json:"mediaType"` // photo|gif|video по MIME
	FileName  string `json:"fileName"`  // сгенерированное имя на диске
	Bytes     int    `json:"bytes"`     // размер после декодирования
	CSRFToken string `json:"csrfToken"`
}

// OKResponse представляет минимальный успешный ответ
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse представляет ответ health-check
type HealthResponse struct {
	OK        bool   `json:"ok"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // краткий статус (http.StatusText)
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
