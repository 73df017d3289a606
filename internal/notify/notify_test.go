package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type telegramStub struct {
	mu   sync.Mutex
	sent []string
}

func (s *telegramStub) handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"gmfc","username":"gmfc_ops_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		_ = r.ParseForm()
		s.mu.Lock()
		s.sent = append(s.sent, r.PostForm.Get("text"))
		s.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func newStubbedTelegram(t *testing.T) (*Telegram, *telegramStub) {
	t.Helper()
	stub := &telegramStub{}
	srv := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(srv.Close)

	tg, err := NewTelegramWithEndpoint("token", srv.URL+"/bot%s/%s", 42, zap.NewNop())
	require.NoError(t, err)
	return tg, stub
}

func TestTelegram_Notify(t *testing.T) {
	tg, stub := newStubbedTelegram(t)

	require.NoError(t, tg.Notify(context.Background(), "dry run reply to 0xabc"))
	assert.Equal(t, []string{"dry run reply to 0xabc"}, stub.sent)
}

func TestTelegram_NotifyClipsLongText(t *testing.T) {
	tg, stub := newStubbedTelegram(t)

	require.NoError(t, tg.Notify(context.Background(), strings.Repeat("é", maxMessageLength+50)))
	require.Len(t, stub.sent, 1)
	assert.Equal(t, maxMessageLength, utf8.RuneCountInString(stub.sent[0]))
	assert.True(t, strings.HasSuffix(stub.sent[0], "…"))
}

func TestTelegram_NotifyCanceledContext(t *testing.T) {
	tg, stub := newStubbedTelegram(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, tg.Notify(ctx, "never sent"))
	assert.Empty(t, stub.sent)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), "anything"))
}
