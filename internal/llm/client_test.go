package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnswerBuildsGroundedPrompt(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatal(err)
		}

		resp := chatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Message chatMessage `json:"message"`
		}{Message: chatMessage{Role: "assistant", Content: "Deep learning is a subset of machine learning."}})
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "test-model")
	if err != nil {
		t.Fatal(err)
	}

	answer, err := client.Answer(context.Background(), "What is deep learning?", []string{"passage one", "passage two"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Deep learning is a subset of machine learning." {
		t.Errorf("answer = %q", answer)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", captured.Messages)
	}
	user := captured.Messages[1].Content
	if !strings.Contains(user, "[1] passage one") || !strings.Contains(user, "[2] passage two") {
		t.Errorf("prompt missing numbered contexts:\n%s", user)
	}
	if !strings.Contains(user, "Question: What is deep learning?") {
		t.Errorf("prompt missing question:\n%s", user)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	client, err := NewClient("test-key", "http://localhost", "m")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Answer(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestAnswerServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "m")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Answer(context.Background(), "q", []string{"ctx"}); err == nil {
		t.Error("expected error from non-200 response")
	}
}

func TestAnswerNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, "m")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Answer(context.Background(), "q", nil); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", "http://localhost", "m"); err == nil {
		t.Error("expected error for empty API key")
	}
}
