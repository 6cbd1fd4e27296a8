package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nexa-ai/nexa-chat/internal/render"
	chatservice "github.com/nexa-ai/nexa-chat/internal/service/chat"
)

type fakeCompleter struct {
	answer string
	err    error
	gate   chan struct{}
	called chan struct{}
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	if f.called != nil {
		f.called <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.answer, f.err
}

func setupRouter(completer *fakeCompleter) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(completer)
	handler := New(chatSvc, render.NewMarkdown())

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	NewWebSocketHandler(handler, nil).RegisterRoutes(r)
	return r, chatSvc
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) SessionView {
	t.Helper()
	resp := doJSON(r, http.MethodPost, "/session", "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var session SessionView
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected session id")
	}
	return session
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{answer: "ok"})
	session := createSession(t, r)

	resp := doJSON(r, http.MethodGet, "/session/"+session.ID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got SessionView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != session.ID || got.InFlight || len(got.Turns) != 0 {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{})

	for _, path := range []string{"/session/missing", "/session/missing/events"} {
		if resp := doJSON(r, http.MethodGet, path, ""); resp.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, resp.Code)
		}
	}
	if resp := doJSON(r, http.MethodPost, "/session/missing/submit", `{"text":"hi"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSubmitReturnsRenderedAnswer(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{answer: "**4**"})
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/submit", `{"text":"2+2="}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var cycle CycleView
	if err := json.NewDecoder(resp.Body).Decode(&cycle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cycle.Failed {
		t.Fatal("expected success")
	}
	if cycle.Question.Text != "2+2=" || cycle.Question.Kind != "question" {
		t.Fatalf("unexpected question %+v", cycle.Question)
	}
	if cycle.Answer.Text != "**4**" || !strings.Contains(cycle.Answer.HTML, "<strong>4</strong>") {
		t.Fatalf("unexpected answer %+v", cycle.Answer)
	}
}

func TestSubmitCompletionFailureIsStillOK(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{err: errors.New("status 503")})
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPost, "/session/"+session.ID+"/submit", `{"text":"hello"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var cycle CycleView
	if err := json.NewDecoder(resp.Body).Decode(&cycle); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !cycle.Failed || cycle.Answer.Text != chatservice.FallbackAnswer {
		t.Fatalf("unexpected cycle %+v", cycle)
	}
}

func TestSubmitRejections(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{answer: "ok"})
	session := createSession(t, r)
	path := "/session/" + session.ID + "/submit"

	if resp := doJSON(r, http.MethodPost, path, `{"text":"   "}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("blank text: expected 400, got %d", resp.Code)
	}
	if resp := doJSON(r, http.MethodPost, path, `not json`); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", resp.Code)
	}

	resp := doJSON(r, http.MethodGet, "/session/"+session.ID, "")
	var got SessionView
	_ = json.NewDecoder(resp.Body).Decode(&got)
	if len(got.Turns) != 0 {
		t.Fatalf("rejected submits must not append, got %d turns", len(got.Turns))
	}
}

func TestSubmitWhileInFlightConflicts(t *testing.T) {
	completer := &fakeCompleter{answer: "ok", gate: make(chan struct{}), called: make(chan struct{}, 1)}
	r, _ := setupRouter(completer)
	session := createSession(t, r)
	path := "/session/" + session.ID + "/submit"

	first := make(chan int, 1)
	go func() {
		first <- doJSON(r, http.MethodPost, path, `{"text":"first"}`).Code
	}()

	select {
	case <-completer.called:
	case <-time.After(2 * time.Second):
		t.Fatal("completion was never called")
	}

	if resp := doJSON(r, http.MethodPost, path, `{"text":"second"}`); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}

	close(completer.gate)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first submit: expected 200, got %d", code)
	}
}

func TestSetDraft(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{})
	session := createSession(t, r)

	resp := doJSON(r, http.MethodPut, "/session/"+session.ID+"/draft", `{"text":"half a thought"}`)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	resp = doJSON(r, http.MethodGet, "/session/"+session.ID, "")
	var got SessionView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Draft != "half a thought" {
		t.Fatalf("unexpected draft %q", got.Draft)
	}
}

func TestEventsStreamsCycle(t *testing.T) {
	r, _ := setupRouter(&fakeCompleter{answer: "4"})
	srv := httptest.NewServer(r)
	defer srv.Close()

	session := createSession(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/session/"+session.ID+"/events", nil)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("events request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if name := readEventName(t, reader); name != "snapshot" {
		t.Fatalf("expected snapshot first, got %q", name)
	}

	if code := doJSON(r, http.MethodPost, "/session/"+session.ID+"/submit", `{"text":"2+2="}`).Code; code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d", code)
	}

	want := []string{"state", "turn", "turn", "state"}
	for i, w := range want {
		if name := readEventName(t, reader); name != w {
			t.Fatalf("event %d: expected %q, got %q", i, w, name)
		}
	}
}

func readEventName(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			return name
		}
	}
}
