package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/arb-hedger/internal/models"
)

func dialFeed(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/opportunities"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsBatches(t *testing.T) {
	f := newFixture()
	hub := f.srv.deps.Hub
	srv := httptest.NewServer(f.srv.Handler())
	defer srv.Close()

	conn := dialFeed(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), []*models.ArbitrageOpportunity{{MarketID: "evt-1:moneyline", ProfitPct: 0.86}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeOpportunities, msg.Type)
	require.Len(t, msg.Payload, 1)
	assert.Equal(t, "evt-1:moneyline", msg.Payload[0].MarketID)
}

func TestHubEmptyBatchIsNoop(t *testing.T) {
	hub := NewHub(nil, quietLogger())
	assert.NoError(t, hub.Publish(context.Background(), nil))
}

func TestHubUnregistersOnClientClose(t *testing.T) {
	f := newFixture()
	hub := f.srv.deps.Hub
	srv := httptest.NewServer(f.srv.Handler())
	defer srv.Close()

	conn := dialFeed(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRejectsDisallowedOrigin(t *testing.T) {
	hub := NewHub([]string{"https://app.example.com"}, quietLogger())
	srv := httptest.NewServer(NewServer(Config{AllowedOrigins: []string{"https://app.example.com"}}, Deps{Hub: hub}, quietLogger()).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/opportunities"
	_, resp, err := websocket.DefaultDialer.Dial(url, map[string][]string{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, 403, resp.StatusCode)
	}
	assert.Equal(t, 0, hub.ClientCount())
}
