package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketProgressFeed(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?learnerId=l1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Trigger a progress event from the REST side.
	body := `{"learnerId":"l1","answers":[1]}`
	resp, err := http.Post(server.URL+"/quizzes/quiz-keys/submissions", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post submission: %v", err)
	}
	resp.Body.Close()

	var msg struct {
		Type    string `json:"type"`
		Payload struct {
			LearnerID   string `json:"learnerId"`
			TotalPoints int    `json:"totalPoints"`
		} `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read progress event: %v", err)
	}
	if msg.Type != "progress" || msg.Payload.LearnerID != "l1" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Payload.TotalPoints == 0 {
		t.Fatalf("expected points in the progress event, got %+v", msg.Payload)
	}
}

func TestWebSocketRequiresLearnerID(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
