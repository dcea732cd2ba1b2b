package bot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/iudanet/ristopoint/internal/config"
)

const (
	brandName        = "Ristoranti d'Italia"
	webAppButtonText = brandName

	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	webhookBodyLimit    = 1_000_000
)

// Bot связывает Telegram с mini app: отвечает на команды и держит
// кнопку открытия веб-приложения.
type Bot struct {
	client     *Client
	logger     *slog.Logger
	cfg        config.BotConfig
	username   string
	allowedIDs map[int64]bool
	webhookURL string
}

// New валидирует конфигурацию и создает Bot.
func New(cfg config.BotConfig, logger *slog.Logger) (*Bot, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("bot token is required")
	}
	if !strings.HasPrefix(cfg.WebAppURL, "https://") {
		return nil, errors.New("webapp url must be a public HTTPS URL for Telegram mini app")
	}

	b := &Bot{
		client:     NewClient(token, logger),
		logger:     logger,
		cfg:        cfg,
		username:   strings.TrimPrefix(strings.TrimSpace(cfg.Username), "@"),
		allowedIDs: parseAllowedUserIDs(cfg.AllowedUserIDs),
	}

	if cfg.Mode == "webhook" {
		baseURL := strings.TrimSpace(cfg.WebhookBaseURL)
		if baseURL == "" {
			baseURL = cfg.WebAppURL
		}
		if !strings.HasPrefix(baseURL, "https://") {
			return nil, errors.New("webhook base url must be a public HTTPS URL")
		}
		b.cfg.WebhookPath = normalizeWebhookPath(cfg.WebhookPath, token)
		if b.cfg.WebhookSecret == "" {
			b.cfg.WebhookSecret = defaultWebhookSecret(token)
		}
		b.webhookURL = strings.TrimSuffix(baseURL, "/") + b.cfg.WebhookPath
	}

	return b, nil
}

// Run запускает бота в выбранном режиме до отмены контекста.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("bot starting",
		"mode", b.cfg.Mode,
		"webapp_url", b.cfg.WebAppURL,
		"allow_list_size", len(b.allowedIDs))

	if err := b.client.DeleteWebhook(ctx); err != nil {
		b.logger.Warn("deleteWebhook failed", "error", err)
	}
	b.configure(ctx)

	if b.cfg.Mode == "webhook" {
		return b.runWebhook(ctx)
	}
	return b.runPolling(ctx)
}

// configure публикует команды и глобальную кнопку меню. Ошибки здесь
// не фатальны: бот работоспособен и без них.
func (b *Bot) configure(ctx context.Context) {
	commands := []BotCommand{
		{Command: "start", Description: "Apri pannello rapido"},
		{Command: "app", Description: "Apri " + brandName},
		{Command: "help", Description: "Aiuto comandi"},
	}
	if err := b.client.SetMyCommands(ctx, commands); err != nil {
		b.logger.Warn("setMyCommands failed", "error", err)
	}

	if err := b.client.SetChatMenuButton(ctx, 0, b.menuButton()); err != nil {
		b.logger.Warn("setChatMenuButton failed", "error", err)
	}
}

// runPolling крутит цикл getUpdates с ограниченным long-poll таймаутом
// и фиксированной паузой после ошибки.
func (b *Bot) runPolling(ctx context.Context) error {
	var offset int64

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		updates, err := b.client.GetUpdates(ctx, offset, b.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Error("polling error", "error", err)
			select {
			case <-time.After(b.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			b.handleUpdate(ctx, update)
		}
	}
}

// runWebhook регистрирует webhook и слушает локальный HTTP порт.
func (b *Bot) runWebhook(ctx context.Context) error {
	if err := b.client.SetWebhook(ctx, b.webhookURL, b.cfg.WebhookSecret); err != nil {
		return fmt.Errorf("setWebhook failed: %w", err)
	}
	b.logger.Info("webhook registered", "url", b.webhookURL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeBotJSON(w, http.StatusOK, map[string]any{
			"ok":        true,
			"mode":      "webhook",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("POST "+b.cfg.WebhookPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(webhookSecretHeader) != b.cfg.WebhookSecret {
			writeBotJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
			return
		}

		var update Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, webhookBodyLimit)).Decode(&update); err != nil {
			b.logger.Error("webhook update parse error", "error", err)
			writeBotJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

		// Telegram ждет быстрый 200, обработка уходит в фон.
		writeBotJSON(w, http.StatusOK, map[string]any{"ok": true})
		go b.handleUpdate(context.WithoutCancel(ctx), update)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeBotJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	})

	srv := &http.Server{
		Addr:              b.cfg.WebhookBindHost + ":" + strconv.Itoa(b.cfg.WebhookBindPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		b.logger.Info("webhook listener running", "addr", srv.Addr, "path", b.cfg.WebhookPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleUpdate обрабатывает одно обновление: allow-list, данные
// mini app, команды.
func (b *Bot) handleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return
	}

	chatID := msg.Chat.ID
	if !b.isUserAllowed(msg.From.ID) {
		b.reply(ctx, chatID, "Accesso bot non autorizzato.", nil)
		return
	}

	if msg.WebAppData != nil && msg.WebAppData.Data != "" {
		b.reply(ctx, chatID, "Dati Mini App ricevuti.", nil)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	switch b.parseCommand(text) {
	case "/start":
		hello := "Ciao"
		if firstName := strings.TrimSpace(msg.From.FirstName); firstName != "" {
			hello += ", " + firstName
		}
		b.reply(ctx, chatID, hello+". Apri "+brandName+" dal pulsante qui sotto.", b.replyKeyboard())
		if err := b.client.SetChatMenuButton(ctx, chatID, b.menuButton()); err != nil {
			b.logger.Debug("per-chat menu button failed", "error", err)
		}
	case "/app", "/mini":
		b.reply(ctx, chatID, "Usa il pulsante della tastiera per aprire la mini app.", b.replyKeyboard())
	case "/help":
		b.reply(ctx, chatID, strings.Join([]string{
			"/start - apre pannello rapido",
			"/app - apre " + brandName,
			"/help - mostra aiuto",
		}, "\n"), nil)
	default:
		if text == webAppButtonText {
			b.reply(ctx, chatID, "Se il pulsante non ha aperto l'app, usa /app.", nil)
			return
		}
		b.reply(ctx, chatID, "Comando non riconosciuto. Usa /start o /app.", nil)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup any) {
	if err := b.client.SendMessage(ctx, chatID, text, markup); err != nil {
		b.logger.Error("sendMessage failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) menuButton() MenuButton {
	return MenuButton{
		Type:   "web_app",
		Text:   brandName,
		WebApp: WebAppInfo{URL: b.cfg.WebAppURL},
	}
}

func (b *Bot) replyKeyboard() ReplyKeyboard {
	return ReplyKeyboard{
		Keyboard: [][]KeyboardButton{{
			{Text: webAppButtonText, WebApp: &WebAppInfo{URL: b.cfg.WebAppURL}},
		}},
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
}

func (b *Bot) isUserAllowed(userID int64) bool {
	if len(b.allowedIDs) == 0 {
		return true
	}
	return b.allowedIDs[userID]
}

// parseCommand выделяет команду из текста с учетом @username-упоминания.
func (b *Bot) parseCommand(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	firstToken := strings.Fields(text)[0]
	command, mention, hasMention := strings.Cut(firstToken, "@")
	command = strings.ToLower(command)

	if b.username == "" || !hasMention {
		return command
	}
	if !strings.EqualFold(mention, b.username) {
		return ""
	}
	return command
}

// parseAllowedUserIDs разбирает список id через запятую; мусорные
// элементы отбрасываются.
func parseAllowedUserIDs(raw string) map[int64]bool {
	out := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = true
	}
	return out
}

// normalizeWebhookPath выводит путь webhook из конфигурации или из
// хеша токена, чтобы путь нельзя было угадать.
func normalizeWebhookPath(raw, token string) string {
	path := strings.TrimSpace(raw)
	if path == "" {
		digest := sha256.Sum256([]byte(token))
		return "/telegram/webhook/" + hex.EncodeToString(digest[:])[:24]
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// defaultWebhookSecret строит secret из хеша токена, как и путь -
// детерминированно для стабильных рестартов. Telegram допускает
// в secret только [A-Za-z0-9_-], hex подходит.
func defaultWebhookSecret(token string) string {
	digest := sha256.Sum256([]byte("secret:" + token))
	return hex.EncodeToString(digest[:])[:32]
}

func writeBotJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
