package replicate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"emojimaker/api/internal/apperr"
	"emojimaker/api/internal/config"
)

func testClient(t *testing.T, baseURL string, maxAttempts int) *Client {
	t.Helper()
	client, err := NewClient(config.ReplicateConfig{
		BaseURL:      baseURL,
		Token:        "r8_test",
		ModelVersion: "v1",
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(config.ReplicateConfig{})
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSubmitSendsPrefixedPrompt(t *testing.T) {
	var gotBody submitRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/predictions" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Prediction{ID: "j1", Status: StatusStarting})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	id, err := client.Submit(context.Background(), "a happy cat")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "j1" {
		t.Fatalf("expected job id j1, got %q", id)
	}
	if gotAuth != "Token r8_test" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotBody.Input.Prompt != "A TOK emoji of a happy cat" {
		t.Fatalf("expected style prefix, got %q", gotBody.Input.Prompt)
	}
	if gotBody.Version != "v1" {
		t.Fatalf("unexpected version: %q", gotBody.Version)
	}
}

func TestSubmitUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"invalid version"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	_, err := client.Submit(context.Background(), "cat")
	if !apperr.Is(err, apperr.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "422") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestAwaitReturnsTerminalState(t *testing.T) {
	statuses := []Status{StatusProcessing, StatusProcessing, StatusSucceeded}
	var polls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&polls, 1)
		p := Prediction{ID: "j1", Status: statuses[n-1]}
		if p.Status == StatusSucceeded {
			p.Output = []string{"https://img/1.png"}
		}
		json.NewEncoder(w).Encode(p)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	prediction, err := client.Await(context.Background(), "j1")
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if prediction.Status != StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", prediction.Status)
	}
	if len(prediction.Output) != 1 || prediction.Output[0] != "https://img/1.png" {
		t.Fatalf("unexpected output: %v", prediction.Output)
	}
	if polls != 3 {
		t.Fatalf("expected 3 polls, got %d", polls)
	}
}

func TestAwaitTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		json.NewEncoder(w).Encode(Prediction{ID: "j1", Status: StatusProcessing})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 5)
	_, err := client.Await(context.Background(), "j1")
	if !apperr.Is(err, apperr.KindTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if polls != 5 {
		t.Fatalf("expected exactly 5 polls, got %d", polls)
	}
}

func TestAwaitStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Prediction{ID: "j1", Status: StatusProcessing})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	client.pollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := client.Await(ctx, "j1")
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), context.Canceled.Error()) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("await did not stop on cancel")
	}
}

func TestAwaitTreatsFailureAsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Prediction{ID: "j1", Status: StatusFailed, Error: "NSFW content"})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	prediction, err := client.Await(context.Background(), "j1")
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if prediction.Status != StatusFailed || prediction.Error != "NSFW content" {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
}

func TestGetFetchesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/predictions/j7" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Prediction{ID: "j7", Status: StatusStarting})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 30)
	prediction, err := client.Get(context.Background(), "j7")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prediction.ID != "j7" || prediction.Status != StatusStarting {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
}
