// Package bot реализует Telegram-компаньона: бот открывает пользователям
// mini app с пикером. Ядро сервера о боте ничего не знает, бот общается
// только с Telegram Bot API.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const telegramAPIBase = "https://api.telegram.org/bot"

// Update - входящее обновление Telegram.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message - входящее сообщение.
type Message struct {
	Chat       *Chat       `json:"chat,omitempty"`
	From       *User       `json:"from,omitempty"`
	Text       string      `json:"text,omitempty"`
	WebAppData *WebAppData `json:"web_app_data,omitempty"`
}

// Chat - чат, откуда пришло сообщение.
type Chat struct {
	ID int64 `json:"id"`
}

// User - отправитель сообщения.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
}

// WebAppData - данные, отправленные mini app через Telegram.
type WebAppData struct {
	Data string `json:"data,omitempty"`
}

// BotCommand - описание команды для setMyCommands.
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// WebAppInfo - ссылка на mini app.
type WebAppInfo struct {
	URL string `json:"url"`
}

// MenuButton - кнопка меню чата типа web_app.
type MenuButton struct {
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	WebApp WebAppInfo `json:"web_app"`
}

// KeyboardButton - кнопка reply-клавиатуры.
type KeyboardButton struct {
	Text   string      `json:"text"`
	WebApp *WebAppInfo `json:"web_app,omitempty"`
}

// ReplyKeyboard - постоянная клавиатура с кнопкой mini app.
type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
	IsPersistent   bool               `json:"is_persistent"`
}

// apiResponse - конверт ответа Bot API.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Client - минимальный клиент Telegram Bot API. Исходящие вызовы
// троттлятся, чтобы не упираться в лимиты Telegram.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	baseURL    string
}

// NewClient создает клиент для заданного токена.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		// Таймауты задаются контекстом вызова: getUpdates держит
		// соединение дольше любого фиксированного таймаута клиента.
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(25), 5),
		logger:     logger,
		baseURL:    telegramAPIBase + token,
	}
}

// call выполняет метод Bot API; при ok=false возвращает ошибку с
// description от Telegram.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}
	if !parsed.OK {
		description := parsed.Description
		if description == "" {
			description = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("%s failed: %s", method, description)
	}

	if out != nil {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return fmt.Errorf("%s: failed to decode result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates выполняет long-poll за обновлениями начиная с offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	// Дедлайн с запасом поверх long-poll таймаута.
	callCtx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	payload := map[string]any{
		"timeout":         int(timeout / time.Second),
		"offset":          offset,
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(callCtx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage отправляет текст в чат, опционально с reply-клавиатурой.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, replyMarkup any) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	if replyMarkup != nil {
		payload["reply_markup"] = replyMarkup
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SetMyCommands публикует список команд бота.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	return c.call(ctx, "setMyCommands", map[string]any{"commands": commands}, nil)
}

// SetChatMenuButton ставит кнопку меню web_app; chatID=0 задает
// глобальную кнопку.
func (c *Client) SetChatMenuButton(ctx context.Context, chatID int64, button MenuButton) error {
	payload := map[string]any{"menu_button": button}
	if chatID != 0 {
		payload["chat_id"] = chatID
	}
	return c.call(ctx, "setChatMenuButton", payload, nil)
}

// DeleteWebhook снимает webhook (нужно перед polling).
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil)
}

// SetWebhook регистрирует webhook с secret token.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	return c.call(ctx, "setWebhook", map[string]any{
		"url":                  url,
		"secret_token":         secret,
		"drop_pending_updates": false,
		"allowed_updates":      []string{"message"},
	}, nil)
}
