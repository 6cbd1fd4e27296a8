package welcome

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nexa-ai/nexa-chat/internal/model/welcome"
)

func TestGreetingListsTopics(t *testing.T) {
	r := chi.NewRouter()
	New(welcome.NewMemoryStore(welcome.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/welcome", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var greeting welcome.Greeting
	if err := json.NewDecoder(resp.Body).Decode(&greeting); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if greeting.Title == "" || len(greeting.Topics) != 4 {
		t.Fatalf("unexpected greeting %+v", greeting)
	}
	if greeting.Topics[0].Label != "Your Advisor" {
		t.Fatalf("unexpected first topic %+v", greeting.Topics[0])
	}
}
