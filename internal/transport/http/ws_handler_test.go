package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"classquiz-engine/internal/domain"
	"classquiz-engine/internal/engine"
	"classquiz-engine/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketAnswerFlow(t *testing.T) {
	store := memory.NewStore()
	keys := memory.NewAnswerKeyCache(store, time.Minute)
	live := memory.NewLiveStore()
	eng := engine.New(store, keys, live, engine.Options{})
	ctx := context.Background()

	teacher, err := eng.CreateTeacher(ctx, "t@school.test", "Teacher")
	if err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	session, err := eng.CreateSession(ctx, teacher.ID, "Socket Session")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	questions, err := eng.AttachQuestions(ctx, session.ID, []domain.QuestionDraft{
		{Text: "2 + 2 = ?", Options: []string{"3", "4", "5", "6"}, CorrectOption: 1},
	})
	if err != nil {
		t.Fatalf("attach questions: %v", err)
	}
	if _, err := eng.ConfigureQuiz(ctx, session.ID, "", 30); err != nil {
		t.Fatalf("configure quiz: %v", err)
	}
	if _, err := eng.StartQuiz(ctx, session.ID); err != nil {
		t.Fatalf("start quiz: %v", err)
	}

	wsHandler := NewWSHandler(eng)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?code=" + session.Code + "&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msgType, payload := readNext(conn, t, "joined")
	if msgType != "joined" {
		t.Fatalf("expected joined, got %s", msgType)
	}
	if payload["name"] != "Alice" {
		t.Fatalf("expected joined payload for Alice, got %v", payload)
	}

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionId":       questions[0].ID,
			"selectedOption":   1,
			"timeTakenSeconds": 3,
		},
	}
	if err := conn.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	// The primed leaderboard snapshot may arrive before the answer result;
	// accept frames in either order.
	var resultPayload map[string]any
	leaderboardSeen := false
	for i := 0; i < 4; i++ {
		typ, payload := readNext(conn, t, "")
		switch typ {
		case "answerResult":
			resultPayload = payload
		case "leaderboard":
			leaderboardSeen = true
		}
		if resultPayload != nil && leaderboardSeen {
			break
		}
	}
	if resultPayload == nil || leaderboardSeen == false {
		t.Fatalf("expected answerResult and leaderboard frames, got result=%v leaderboard=%v", resultPayload, leaderboardSeen)
	}
	if correct, _ := resultPayload["correct"].(bool); !correct {
		t.Fatalf("expected correct answer, got %v", resultPayload)
	}
	if points, _ := resultPayload["points"].(float64); points != 150 {
		t.Fatalf("expected 150 points, got %v", resultPayload["points"])
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	store := memory.NewStore()
	eng := engine.New(store, memory.NewAnswerKeyCache(store, time.Minute), memory.NewLiveStore(), engine.Options{})

	wsHandler := NewWSHandler(eng)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws?code=1234")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
