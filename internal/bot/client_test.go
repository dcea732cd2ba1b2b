package bot

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTelegram эмулирует Bot API: запоминает вызовы и отдает заданные
// ответы по имени метода.
type fakeTelegram struct {
	mu        sync.Mutex
	calls     []string
	payloads  map[string]map[string]any
	responses map[string]string
	server    *httptest.Server
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	t.Helper()
	f := &fakeTelegram{
		payloads:  make(map[string]map[string]any),
		responses: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[1:]

		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)

		f.mu.Lock()
		f.calls = append(f.calls, method)
		f.payloads[method] = payload
		response, ok := f.responses[method]
		f.mu.Unlock()

		if !ok {
			response = `{"ok":true,"result":true}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTelegram) newClient() *Client {
	client := NewClient("123456:TESTTOKEN", setupTestLogger())
	client.baseURL = f.server.URL
	return client
}

func (f *fakeTelegram) payload(method string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[method]
}

func TestClient_GetUpdates(t *testing.T) {
	fake := newFakeTelegram(t)
	fake.responses["getUpdates"] = `{"ok":true,"result":[
		{"update_id":10,"message":{"chat":{"id":42},"from":{"id":7,"first_name":"Anna"},"text":"/start"}},
		{"update_id":11,"message":{"chat":{"id":42},"text":"ciao"}}
	]}`

	client := fake.newClient()
	updates, err := client.GetUpdates(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Equal(t, int64(10), updates[0].UpdateID)
	assert.Equal(t, "/start", updates[0].Message.Text)
	assert.Equal(t, "Anna", updates[0].Message.From.FirstName)

	payload := fake.payload("getUpdates")
	assert.Equal(t, float64(5), payload["offset"])
	assert.Equal(t, float64(30), payload["timeout"])
}

func TestClient_GetUpdates_APIError(t *testing.T) {
	fake := newFakeTelegram(t)
	fake.responses["getUpdates"] = `{"ok":false,"description":"Unauthorized"}`

	client := fake.newClient()
	_, err := client.GetUpdates(context.Background(), 0, time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_SendMessage(t *testing.T) {
	fake := newFakeTelegram(t)
	client := fake.newClient()

	err := client.SendMessage(context.Background(), 42, "ciao", ReplyKeyboard{
		Keyboard: [][]KeyboardButton{{{Text: "Apri"}}},
	})
	require.NoError(t, err)

	payload := fake.payload("sendMessage")
	assert.Equal(t, float64(42), payload["chat_id"])
	assert.Equal(t, "ciao", payload["text"])
	assert.NotNil(t, payload["reply_markup"])
}

func TestClient_SendMessage_NoMarkup(t *testing.T) {
	fake := newFakeTelegram(t)
	client := fake.newClient()

	require.NoError(t, client.SendMessage(context.Background(), 42, "ciao", nil))

	payload := fake.payload("sendMessage")
	_, hasMarkup := payload["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestClient_SetChatMenuButton(t *testing.T) {
	fake := newFakeTelegram(t)
	client := fake.newClient()

	button := MenuButton{Type: "web_app", Text: "Apri", WebApp: WebAppInfo{URL: "https://app.example"}}

	// глобальная кнопка - без chat_id
	require.NoError(t, client.SetChatMenuButton(context.Background(), 0, button))
	_, hasChatID := fake.payload("setChatMenuButton")["chat_id"]
	assert.False(t, hasChatID)

	// кнопка конкретного чата
	require.NoError(t, client.SetChatMenuButton(context.Background(), 42, button))
	assert.Equal(t, float64(42), fake.payload("setChatMenuButton")["chat_id"])
}

func TestClient_SetWebhook(t *testing.T) {
	fake := newFakeTelegram(t)
	client := fake.newClient()

	err := client.SetWebhook(context.Background(), "https://example.com/hook", "secret-token")
	require.NoError(t, err)

	payload := fake.payload("setWebhook")
	assert.Equal(t, "https://example.com/hook", payload["url"])
	assert.Equal(t, "secret-token", payload["secret_token"])
}

func TestClient_CallContextCanceled(t *testing.T) {
	fake := newFakeTelegram(t)
	client := fake.newClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.DeleteWebhook(ctx)
	assert.Error(t, err)
}
