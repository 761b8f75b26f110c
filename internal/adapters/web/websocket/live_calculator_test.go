package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/scoring"
)

type resultMessage struct {
	Type    string     `json:"type"`
	Payload LiveResult `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg string) LiveResult {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var out resultMessage
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, MessageTypeResult, out.Type)
	return out.Payload
}

func TestLiveCalculator_Session(t *testing.T) {
	lc := NewLiveCalculator(scoring.NewScoringService(nil), []string{"http://localhost:3000"})
	srv := httptest.NewServer(http.HandlerFunc(lc.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, nil)

	res := roundTrip(t, conn, `{"id":"1","metrics":{"av":"N","ac":"L","pr":"N","ui":"N","s":"U","c":"H","i":"H","a":"H"}}`)
	assert.Equal(t, "1", res.ID)
	assert.False(t, res.Fallback)
	assert.Equal(t, 9.8, res.Score)
	assert.Equal(t, domain.SeverityCritical, res.Severity)

	// One keystroke later the selection is incomplete
	res = roundTrip(t, conn, `{"id":"2","metrics":{"av":"N","ac":"L","pr":"N","ui":"N","s":"U","c":"H","i":"H","a":""}}`)
	assert.Equal(t, "2", res.ID)
	assert.True(t, res.Fallback)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, domain.SeverityNone, res.Severity)
	assert.Equal(t, domain.NeutralVector, res.Vector)

	res = roundTrip(t, conn, `{"vector":"CVSS:3.1/AV:P/AC:H/PR:H/UI:R/C:L/I:N/A:N"}`)
	assert.False(t, res.Fallback)
	assert.Equal(t, 1.6, res.Score)

	res = roundTrip(t, conn, `not json`)
	assert.True(t, res.Fallback)
	assert.Equal(t, 0.0, res.Score)

	assert.Equal(t, 1, lc.Sessions())
}

func TestLiveCalculator_RejectsForeignOrigin(t *testing.T) {
	lc := NewLiveCalculator(scoring.NewScoringService(nil), []string{"http://localhost:3000"})
	srv := httptest.NewServer(http.HandlerFunc(lc.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": []string{"http://localhost:3000"}})
	assert.NotNil(t, conn)
}

func TestLiveCalculator_CloseAll(t *testing.T) {
	lc := NewLiveCalculator(scoring.NewScoringService(nil), nil)
	srv := httptest.NewServer(http.HandlerFunc(lc.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv, nil)
	roundTrip(t, conn, `{}`)
	require.Equal(t, 1, lc.Sessions())

	lc.CloseAll()
	assert.Equal(t, 0, lc.Sessions())

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}

func TestLiveCalculator_Score(t *testing.T) {
	lc := NewLiveCalculator(scoring.NewScoringService(nil), nil)

	res := lc.Score(context.Background(), []byte(`{"metrics":{"AV":"l","AC":"h","PR":"h","UI":"r","S":"c","C":"l","I":"l","A":"l"}}`))
	assert.False(t, res.Fallback)
	assert.Equal(t, 4.7, res.Score)
	assert.Equal(t, "L", res.Metrics[domain.MetricAttackVector])
}
