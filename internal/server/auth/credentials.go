package auth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iudanet/ristopoint/internal/models"
)

// DefaultLogin используется, когда логин не задан ни в окружении,
// ни в файле credentials.
const DefaultLogin = "admin"

// Config задает источники учетных данных администратора.
// Env-поля имеют приоритет над файлом, файл - над генерацией.
type Config struct {
	Login          string // переопределение логина (опционально)
	Salt           string // соль из окружения
	Hash           string // hex-хеш из окружения
	LegacyPassword string // устаревший плейнтекст-пароль, игнорируется
	FilePath       string // путь к admin-auth.json
}

// LoadCredentials выбирает учетные данные администратора в порядке:
// окружение (валидные соль+hex-хеш) -> файл -> генерация нового пароля.
// Сгенерированный пароль один раз пишется в структурированный лог и
// нигде не хранится в открытом виде.
func LoadCredentials(cfg Config, logger *slog.Logger) (*models.Credential, error) {
	envLogin := strings.TrimSpace(cfg.Login)
	envSalt := strings.TrimSpace(cfg.Salt)
	envHash := strings.ToLower(strings.TrimSpace(cfg.Hash))

	if strings.TrimSpace(cfg.LegacyPassword) != "" {
		logger.Warn("plaintext admin password is ignored for security, " +
			"set the salt and hash variables instead")
	}

	if envSalt != "" && IsHex(envHash) {
		return &models.Credential{
			Login:  orDefaultLogin(envLogin),
			Salt:   envSalt,
			Hash:   envHash,
			Source: "env-hash",
		}, nil
	}
	if envSalt != "" || envHash != "" {
		logger.Warn("invalid admin credentials in environment, falling back to credentials file",
			"path", cfg.FilePath)
	}

	if cred := credentialFromFile(cfg.FilePath); cred != nil {
		return cred, nil
	}

	return generateCredential(envLogin, cfg.FilePath, logger)
}

// credentialFromFile читает credentials с диска. Любой битый или
// неполный файл трактуется как отсутствующий: локальное восстановление,
// не фатальная ошибка.
func credentialFromFile(path string) *models.Credential {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var parsed models.Credential
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil
	}

	salt := strings.TrimSpace(parsed.Salt)
	hash := strings.ToLower(strings.TrimSpace(parsed.Hash))
	if salt == "" || !IsHex(hash) {
		return nil
	}

	return &models.Credential{
		Login:  orDefaultLogin(strings.TrimSpace(parsed.Login)),
		Salt:   salt,
		Hash:   hash,
		Source: "file",
	}
}

func generateCredential(envLogin, path string, logger *slog.Logger) (*models.Credential, error) {
	password, err := GeneratePassword()
	if err != nil {
		return nil, err
	}
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password, salt)
	if err != nil {
		return nil, err
	}

	cred := &models.Credential{
		Login:     orDefaultLogin(envLogin),
		Salt:      salt,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
		Source:    "generated",
	}

	payload, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write credentials file: %w", err)
	}

	// Единственное место, где пароль виден оператору.
	logger.Info("generated admin credentials",
		"login", cred.Login,
		"password", password,
		"path", path)

	return cred, nil
}

func orDefaultLogin(login string) string {
	if login == "" {
		return DefaultLogin
	}
	return login
}
