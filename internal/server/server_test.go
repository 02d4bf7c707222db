package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"jokes-web/internal/models"
	"jokes-web/pkg/logger"
)

func init() {
	logger.Init("error", io.Discard)
}

var chicken = models.Joke{
	Type:      "general",
	Setup:     "Why did the chicken cross the road?",
	Punchline: "To get to the other side",
}

func doRequest(t *testing.T, h http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

func jokeForm(j models.Joke) url.Values {
	return url.Values{
		"type":      {j.Type},
		"setup":     {j.Setup},
		"punchline": {j.Punchline},
	}
}

func TestHomeRendersUpstreamJokes(t *testing.T) {
	source := &stubSource{jokes: []models.Joke{{ID: 1, Type: "programming", Setup: "Knock knock.", Punchline: "Race condition. Who's there?"}}}
	srv := New(newMemoryStore(), source)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Knock knock.") {
		t.Error("expected joke setup in body")
	}
}

func TestHomeUpstreamFailure(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{err: errors.New("dial tcp: timeout")})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not answering") {
		t.Error("expected unavailable notice")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSaveRedirectsToFavorites(t *testing.T) {
	store := newMemoryStore()
	events := &recordingPublisher{}
	srv := New(store, &stubSource{}, WithEventPublisher(events))

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/save", jokeForm(chicken))
	assertRedirect(t, rec, "/favorites")

	jokes, _ := store.List(context.Background())
	if len(jokes) != 1 {
		t.Fatalf("expected 1 stored joke, got %d", len(jokes))
	}
	got := jokes[0]
	if got.Type != chicken.Type || got.Setup != chicken.Setup || got.Punchline != chicken.Punchline {
		t.Errorf("stored joke = %+v, want fields of %+v", got, chicken)
	}

	if actions := events.actions(); len(actions) != 1 || actions[0] != models.ActionSaved {
		t.Errorf("published actions = %v, want [saved]", actions)
	}
}

func TestSaveJSONBody(t *testing.T) {
	store := newMemoryStore()
	srv := New(store, &stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/save",
		strings.NewReader(`{"id": 77, "type": "general", "setup": "a", "punchline": "b"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assertRedirect(t, rec, "/favorites")
	if _, err := store.GetByID(context.Background(), 1); err != nil {
		t.Errorf("expected joke with store-assigned id 1: %v", err)
	}
	if _, err := store.GetByID(context.Background(), 77); err == nil {
		t.Error("client-sent id must be ignored")
	}
}

func TestSaveMalformedJSON(t *testing.T) {
	store := newMemoryStore()
	srv := New(store, &stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/save", strings.NewReader(`{"type":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if jokes, _ := store.List(context.Background()); len(jokes) != 0 {
		t.Errorf("expected no stored jokes, got %d", len(jokes))
	}
}

func TestSaveStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection reset")
	events := &recordingPublisher{}
	srv := New(store, &stubSource{}, WithEventPublisher(events))

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/save", jokeForm(chicken))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
	if len(events.actions()) != 0 {
		t.Error("no event should be published when the insert fails")
	}
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	events := &recordingPublisher{err: errors.New("nats: no responders")}
	srv := New(newMemoryStore(), &stubSource{}, WithEventPublisher(events))

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/save", jokeForm(chicken))
	assertRedirect(t, rec, "/favorites")
}

func TestFavorites(t *testing.T) {
	store := newMemoryStore()
	j := chicken
	_ = store.Create(context.Background(), &j)
	srv := New(store, &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/favorites", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `href="/details/1"`) {
		t.Error("expected link to the saved joke")
	}

	store.err = errors.New("connection refused")
	rec = doRequest(t, srv.Handler(), http.MethodGet, "/favorites", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestDetails(t *testing.T) {
	store := newMemoryStore()
	j := chicken
	_ = store.Create(context.Background(), &j)
	srv := New(store, &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/details/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "To get to the other side") {
		t.Error("expected punchline in body")
	}
}

func TestDetailsMissingJoke(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/details/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not in your favorites") {
		t.Error("expected not-found variant of the details view")
	}
}

func TestDetailsInvalidID(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	for _, path := range []string{"/details/abc", "/details/-1", "/details/0"} {
		rec := doRequest(t, srv.Handler(), http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestUpdateViaMethodOverride(t *testing.T) {
	store := newMemoryStore()
	j := chicken
	_ = store.Create(context.Background(), &j)
	events := &recordingPublisher{}
	srv := New(store, &stubSource{}, WithEventPublisher(events))

	form := jokeForm(models.Joke{Type: "dad", Setup: "I'm reading a book on anti-gravity.", Punchline: "It's impossible to put down."})
	form.Set("_method", "PUT")
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/update/1", form)
	assertRedirect(t, rec, "/details/1")

	got, err := store.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Type != "dad" || got.Punchline != "It's impossible to put down." {
		t.Errorf("joke not updated: %+v", got)
	}
	if actions := events.actions(); len(actions) != 1 || actions[0] != models.ActionUpdated {
		t.Errorf("published actions = %v, want [updated]", actions)
	}
}

func TestUpdateViaHeaderOverride(t *testing.T) {
	store := newMemoryStore()
	j := chicken
	_ = store.Create(context.Background(), &j)
	srv := New(store, &stubSource{})

	req := httptest.NewRequest(http.MethodPost, "/update/1", strings.NewReader(jokeForm(models.Joke{Type: "x", Setup: "y", Punchline: "z"}).Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-HTTP-Method-Override", "put")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assertRedirect(t, rec, "/details/1")
	if got, _ := store.GetByID(context.Background(), 1); got.Setup != "y" {
		t.Errorf("joke not updated: %+v", got)
	}
}

func TestUpdateMissingJokeCreatesNothing(t *testing.T) {
	store := newMemoryStore()
	srv := New(store, &stubSource{})

	form := jokeForm(chicken)
	form.Set("_method", "PUT")
	rec := doRequest(t, srv.Handler(), http.MethodPost, "/update/42", form)
	assertRedirect(t, rec, "/details/42")

	if jokes, _ := store.List(context.Background()); len(jokes) != 0 {
		t.Errorf("expected empty store, got %+v", jokes)
	}
}

func TestDeleteViaMethodOverride(t *testing.T) {
	store := newMemoryStore()
	for _, setup := range []string{"first", "second"} {
		j := models.Joke{Type: "general", Setup: setup, Punchline: "p"}
		_ = store.Create(context.Background(), &j)
	}
	events := &recordingPublisher{}
	srv := New(store, &stubSource{}, WithEventPublisher(events))

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/delete/1", url.Values{"_method": {"DELETE"}})
	assertRedirect(t, rec, "/favorites")

	jokes, _ := store.List(context.Background())
	if len(jokes) != 1 || jokes[0].ID != 2 {
		t.Errorf("expected only joke 2 to remain, got %+v", jokes)
	}
	if actions := events.actions(); len(actions) != 1 || actions[0] != models.ActionDeleted {
		t.Errorf("published actions = %v, want [deleted]", actions)
	}
}

func TestDeleteMissingJokeStillRedirects(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/delete/5", url.Values{"_method": {"DELETE"}})
	assertRedirect(t, rec, "/favorites")
}

func TestPostWithoutOverrideIsRejected(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodPost, "/delete/1", url.Values{"_method": {"PATCH"}})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestRandom(t *testing.T) {
	source := &stubSource{jokes: []models.Joke{{ID: 9, Type: "programming", Setup: "!false", Punchline: "It's funny because it's true."}}}
	srv := New(newMemoryStore(), source)

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/random", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "It&#39;s funny because it&#39;s true.") {
		t.Error("expected punchline in body")
	}
}

func TestRandomUpstreamFailureRendersOK(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{err: errors.New("invalid character '<' looking for beginning of value")})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/random", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No joke available") {
		t.Error("expected unavailable variant of the random view")
	}
}

func TestHealth(t *testing.T) {
	healthy := New(newMemoryStore(), &stubSource{},
		WithHealthCheck("/healthz", pingFunc(func(context.Context) error { return nil })))
	rec := doRequest(t, healthy.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	broken := New(newMemoryStore(), &stubSource{},
		WithHealthCheck("/healthz", pingFunc(func(context.Context) error { return errors.New("down") })))
	rec = doRequest(t, broken.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})

	rec := doRequest(t, srv.Handler(), http.MethodGet, "/favorites", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/favorites", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "given-id" {
		t.Errorf("X-Request-ID = %q, want given-id", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := New(newMemoryStore(), &stubSource{})
	h := srv.Handler()

	doRequest(t, h, http.MethodGet, "/favorites", nil)
	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `jokes_http_requests_total{method="GET",route="GET /favorites",status="200"}`) {
		t.Error("expected request counter for /favorites")
	}
}
