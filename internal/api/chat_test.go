package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/pythia/internal/agent"
	"github.com/fortuna/pythia/internal/llm"
	"github.com/fortuna/pythia/internal/session"
	"github.com/fortuna/pythia/internal/tools"
	"github.com/fortuna/pythia/internal/upstream/hoops"
	"github.com/fortuna/pythia/internal/upstream/projections"
)

// echoResponder replies with the query and the number of prior turns it
// was shown, which makes history leaks between sessions visible.
type echoResponder struct{}

func (echoResponder) Respond(ctx context.Context, history []llm.Message, query string, onPartial llm.StreamCallback) (string, error) {
	return fmt.Sprintf("echo %q with %d prior turns", query, len(history)), nil
}

type failingResponder struct{}

func (failingResponder) Respond(ctx context.Context, history []llm.Message, query string, onPartial llm.StreamCallback) (string, error) {
	return "", agent.ErrModelUnavailable
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// readFinal consumes frames until the turn's final (non-streaming) frame.
func readFinal(t *testing.T, conn *websocket.Conn) outboundFrame {
	t.Helper()
	for {
		var frame outboundFrame
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		require.NoError(t, conn.ReadJSON(&frame))
		require.NotNil(t, frame.Sources)
		if !frame.Streaming {
			return frame
		}
	}
}

func TestChatFrameProtocol(t *testing.T) {
	registry := session.NewRegistry(session.Settings{})
	server := httptest.NewServer(NewServer("0", registry, echoResponder{}).Handler())
	defer server.Close()

	conn := dial(t, server, "frame-test")
	defer conn.Close()

	// Structured frame.
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "hello"}))

	var first outboundFrame
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.NoError(t, conn.ReadJSON(&first))
	require.True(t, first.Streaming, "the processing notice precedes the final frame")

	final := readFinal(t, conn)
	require.Equal(t, `echo "hello" with 0 prior turns`, final.Text)

	// Bare text falls back to being the query itself.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("raw question")))
	final = readFinal(t, conn)
	require.Contains(t, final.Text, `echo "raw question"`)
	require.Contains(t, final.Text, "2 prior turns")
}

func TestChatSessionIsolationAndCleanup(t *testing.T) {
	registry := session.NewRegistry(session.Settings{})
	server := httptest.NewServer(NewServer("0", registry, echoResponder{}).Handler())
	defer server.Close()

	connA := dial(t, server, "session-a")
	connB := dial(t, server, "session-b")

	require.Eventually(t, func() bool { return registry.Count() == 2 }, time.Second, 10*time.Millisecond)

	// Same input on both sessions; neither sees the other's history.
	require.NoError(t, connA.WriteJSON(map[string]string{"query": "same input"}))
	require.Equal(t, `echo "same input" with 0 prior turns`, readFinal(t, connA).Text)

	require.NoError(t, connB.WriteJSON(map[string]string{"query": "same input"}))
	require.Equal(t, `echo "same input" with 0 prior turns`, readFinal(t, connB).Text)

	require.NoError(t, connA.WriteJSON(map[string]string{"query": "again"}))
	require.Contains(t, readFinal(t, connA).Text, "2 prior turns")

	// Disconnecting A removes exactly A's entry.
	connA.Close()
	require.Eventually(t, func() bool { return registry.Get("session-a") == nil }, time.Second, 10*time.Millisecond)
	require.NotNil(t, registry.Get("session-b"))

	connB.Close()
	require.Eventually(t, func() bool { return registry.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestChatModelFailureKeepsConnectionOpen(t *testing.T) {
	registry := session.NewRegistry(session.Settings{})
	server := httptest.NewServer(NewServer("0", registry, failingResponder{}).Handler())
	defer server.Close()

	conn := dial(t, server, "failing")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"query": "anything"}))
	final := readFinal(t, conn)
	require.Equal(t, genericErrorMessage, final.Text)

	// The failed turn must not enter history, and the connection survives.
	require.Empty(t, registry.Get("failing").History)
	require.NoError(t, conn.WriteJSON(map[string]string{"query": "still there?"}))
	require.Equal(t, genericErrorMessage, readFinal(t, conn).Text)
}

// scriptedModelServer plays an OpenAI-compatible backend that first asks
// for the player profile, then for the stats, then answers by echoing
// every tool result it was given.
func scriptedModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	var calls atomic.Int32

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llm.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "text/event-stream")
		switch calls.Add(1) {
		case 1:
			writeToolCallChunk(t, w, "call_1", "get_player_details", `{"first_name":"LeBron","last_name":"James"}`)
		case 2:
			writeToolCallChunk(t, w, "call_2", "get_player_stats", `{"player_id":237}`)
		default:
			var results []string
			for _, msg := range req.Messages {
				if msg.Role == llm.RoleTool {
					results = append(results, msg.Content)
				}
			}
			writeContentChunks(t, w, "Here is what I found. "+strings.Join(results, " "))
		}
	}))
}

func writeToolCallChunk(t *testing.T, w http.ResponseWriter, id, name, args string) {
	t.Helper()
	chunk := map[string]any{
		"id": "cmpl",
		"choices": []map[string]any{{
			"index": 0,
			"delta": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"index": 0, "id": id, "type": "function",
					"function": map[string]any{"name": name, "arguments": args},
				}},
			},
			"finish_reason": "tool_calls",
		}},
	}
	payload, err := json.Marshal(chunk)
	require.NoError(t, err)
	fmt.Fprintf(w, "data: %s\n\ndata: [DONE]\n\n", payload)
}

func writeContentChunks(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	half := len(content) / 2
	for _, part := range []string{content[:half], content[half:]} {
		chunk := map[string]any{
			"id": "cmpl",
			"choices": []map[string]any{{
				"index": 0,
				"delta": map[string]any{"role": "assistant", "content": part},
			}},
		}
		payload, err := json.Marshal(chunk)
		require.NoError(t, err)
		fmt.Fprintf(w, "data: %s\n\n", payload)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func statsUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/players":
			require.Equal(t, "LeBron", r.URL.Query().Get("first_name"))
			require.Equal(t, "James", r.URL.Query().Get("last_name"))
			fmt.Fprint(w, `{"data":[{"id":237,"first_name":"LeBron","last_name":"James","position":"F",
				"team":{"id":14,"full_name":"Los Angeles Lakers","abbreviation":"LAL","conference":"West","division":"Pacific"}}]}`)
		case "/stats":
			require.Equal(t, "237", r.URL.Query().Get("player_ids[]"))
			fmt.Fprint(w, `{"data":[
				{"id":1,"min":"38:20","fgm":11,"fga":21,"fg_pct":0.524,"fg3m":2,"fg3a":5,"fg3_pct":0.4,
				 "ftm":4,"fta":5,"ft_pct":0.8,"reb":8,"ast":11,"stl":1,"blk":1,"pts":28,
				 "game":{"id":1,"date":"2025-01-13","season":2024,"home_team_id":14,"home_team_score":112,
				         "visitor_team_id":2,"visitor_team_score":108},
				 "team":{"id":14,"abbreviation":"LAL"},
				 "player":{"id":237,"first_name":"LeBron","last_name":"James","team_id":14}},
				{"id":2,"min":"00","pts":0,
				 "game":{"id":2,"date":"2025-01-15","season":2024,"home_team_id":2,"home_team_score":100,
				         "visitor_team_id":14,"visitor_team_score":95},
				 "team":{"id":14,"abbreviation":"LAL"},
				 "player":{"id":237,"first_name":"LeBron","last_name":"James","team_id":14}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestChatEndToEndPlayerStats(t *testing.T) {
	model := scriptedModelServer(t)
	defer model.Close()

	upstream := statsUpstream(t)
	defer upstream.Close()

	projectionsClient := projections.New("http://unused.invalid", nil)
	statsClient := hoops.New(upstream.URL, "test-key")
	registry := tools.NewRegistry(projectionsClient, statsClient)
	chatAgent := agent.New(llm.NewClient(model.URL, "test-key"), registry, "gpt-4o", "")

	sessions := session.NewRegistry(session.Settings{})
	server := httptest.NewServer(NewServer("0", sessions, chatAgent).Handler())
	defer server.Close()

	conn := dial(t, server, "e2e")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"query": "Tell me about LeBron James' stats"}))
	final := readFinal(t, conn)

	// The hand-off ID surfaced by get_player_details must be visible in
	// the final reply, along with nonzero season averages: the DNP game
	// is excluded, so the single qualifying game averages 28 points.
	require.Contains(t, final.Text, "237")
	require.Contains(t, final.Text, "Points: 28.0 per game")
	require.Contains(t, final.Text, "LeBron James")

	// Both turns landed in history.
	state := sessions.Get("e2e")
	require.NotNil(t, state)
	require.Len(t, state.History, 2)
	require.Equal(t, "Tell me about LeBron James' stats", state.History[0].Content)
}
