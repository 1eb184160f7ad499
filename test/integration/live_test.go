package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livetally/internal/core/domain"
)

func (app *TestApp) dialLive(t *testing.T, pollID uuid.UUID) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(app.Server.URL, "http", "ws", 1) + fmt.Sprintf("/ws/polls/%s", pollID)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

// TestLiveResultsStream subscribes over WebSocket and expects a full
// snapshot frame after every accepted vote.
func TestLiveResultsStream(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	pollID, choices := app.createTestPoll(t, domain.VotingModeOpen, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	conn := app.dialLive(t, pollID)
	defer conn.Close()

	// Client chatter must be tolerated, not treated as an error.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":"ignored"}`)))

	resp := app.castVote(t, pollID, choices[0], "t1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var frame struct {
		Type   string              `json:"type"`
		PollID uuid.UUID           `json:"poll_id"`
		Votes  map[uuid.UUID]int64 `json:"votes"`
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))

	assert.Equal(t, "vote_update", frame.Type)
	assert.Equal(t, pollID, frame.PollID)
	assert.Equal(t, int64(1), frame.Votes[choices[0]])

	// A second vote produces a superseding snapshot.
	resp = app.castVote(t, pollID, choices[1], "t2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, int64(1), frame.Votes[choices[0]])
	assert.Equal(t, int64(1), frame.Votes[choices[1]])
}

func TestLiveStreamScopedToPoll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	pollID, _ := app.createTestPoll(t, domain.VotingModeOpen, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	otherID, otherChoices := app.createTestPoll(t, domain.VotingModeOpen, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	conn := app.dialLive(t, pollID)
	defer conn.Close()

	resp := app.castVote(t, otherID, otherChoices[0], "t1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	var frame map[string]interface{}
	err := conn.ReadJSON(&frame)
	assert.Error(t, err, "subscriber of another poll must receive nothing")
}

func TestLiveStreamUnknownPoll(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	wsURL := strings.Replace(app.Server.URL, "http", "ws", 1) + fmt.Sprintf("/ws/polls/%s", uuid.New())
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
