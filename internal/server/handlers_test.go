package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sundeep8967/zerobroker/internal/identity"
	"github.com/sundeep8967/zerobroker/internal/payment"
	"github.com/sundeep8967/zerobroker/internal/push"
	"github.com/sundeep8967/zerobroker/internal/repository"
	"github.com/sundeep8967/zerobroker/internal/service"
	"github.com/sundeep8967/zerobroker/internal/store"
)

func newTestRouter(t *testing.T, mem *store.MemoryClient) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.New(mem)
	unlocks := service.NewUnlockService(repo, payment.StaticVerifier{}, logger)
	dispatcher := service.NewDispatcher(repo, push.NewMemoryPusher(), logger, 2)
	maintenance := service.NewMaintenance(repo, logger, 30*24*time.Hour)

	auth := identity.StaticAuthenticator{Users: map[string]string{"token-usr-1": "USR-1"}}
	api := NewAPIHandlers(logger, auth, unlocks, dispatcher, maintenance)

	return NewRouter(logger, RouterDependencies{
		Health: StoreHealthService{Client: mem},
		API:    api,
	})
}

func seedListing(mem *store.MemoryClient) {
	mem.Seed(store.CollectionProperties, "PROP-1", map[string]any{
		"ownerId":      "OWNER-1",
		"title":        "2 BHK apartment",
		"rent":         12000.0,
		"propertyType": "apartment",
		"location":     map[string]any{"address": "Indiranagar, Bengaluru"},
		"isActive":     true,
		"unlocks":      int64(0),
		"createdAt":    time.Now().UTC(),
	})
}

func postJSON(handler http.Handler, path, bearer, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

func TestHandleVerifyUnlock(t *testing.T) {
	mem := store.NewMemoryClient()
	seedListing(mem)
	handler := newTestRouter(t, mem)

	rec := postJSON(handler, "/api/unlocks/verify", "token-usr-1",
		`{"paymentId":"PAY-1","propertyId":"PROP-1","amount":149}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success  bool   `json:"success"`
		UnlockID string `json:"unlockId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.UnlockID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	unlock, ok := mem.Doc(store.CollectionUnlocks, resp.UnlockID)
	if !ok {
		t.Fatal("expected unlock record to be persisted")
	}
	if unlock["userId"] != "USR-1" || unlock["propertyId"] != "PROP-1" {
		t.Errorf("unexpected unlock record: %v", unlock)
	}

	listing, _ := mem.Doc(store.CollectionProperties, "PROP-1")
	if listing["unlocks"] != int64(1) {
		t.Errorf("expected unlock counter 1, got %v", listing["unlocks"])
	}

	if mem.Len(store.CollectionNotifications) != 1 {
		t.Error("expected owner notification to be persisted")
	}
}

func TestHandleVerifyUnlock_RepeatReturnsConflict(t *testing.T) {
	mem := store.NewMemoryClient()
	seedListing(mem)
	handler := newTestRouter(t, mem)

	body := `{"paymentId":"PAY-1","propertyId":"PROP-1","amount":149}`
	if rec := postJSON(handler, "/api/unlocks/verify", "token-usr-1", body); rec.Code != http.StatusOK {
		t.Fatalf("first call: expected 200, got %d", rec.Code)
	}

	rec := postJSON(handler, "/api/unlocks/verify", "token-usr-1", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != service.CodeAlreadyExists {
		t.Errorf("expected code %s, got %s", service.CodeAlreadyExists, code)
	}

	if mem.Len(store.CollectionUnlocks) != 1 {
		t.Error("repeat call must not create a second unlock record")
	}
	listing, _ := mem.Doc(store.CollectionProperties, "PROP-1")
	if listing["unlocks"] != int64(1) {
		t.Errorf("repeat call must not increment the counter again, got %v", listing["unlocks"])
	}
}

func TestHandleVerifyUnlock_Unauthenticated(t *testing.T) {
	handler := newTestRouter(t, store.NewMemoryClient())

	rec := postJSON(handler, "/api/unlocks/verify", "",
		`{"paymentId":"PAY-1","propertyId":"PROP-1","amount":149}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != service.CodeUnauthenticated {
		t.Errorf("expected code %s, got %s", service.CodeUnauthenticated, code)
	}
}

func TestHandleVerifyUnlock_BadRequest(t *testing.T) {
	handler := newTestRouter(t, store.NewMemoryClient())

	rec := postJSON(handler, "/api/unlocks/verify", "token-usr-1", `{"amount":149}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing ids, got %d", rec.Code)
	}

	rec = postJSON(handler, "/api/unlocks/verify", "token-usr-1", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}

	rec = postJSON(handler, "/api/unlocks/verify", "token-usr-1",
		`{"paymentId":"PAY-1","propertyId":"PROP-1","amount":-5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d", rec.Code)
	}
}

func TestHandlePropertyCreated(t *testing.T) {
	handler := newTestRouter(t, store.NewMemoryClient())

	rec := postJSON(handler, "/api/events/property-created", "",
		`{"propertyId":"PROP-9","property":{"ownerId":"OWNER-1","title":"1 BHK","rent":8000,"propertyType":"apartment","location":{"address":"HSR Layout"},"isActive":true}}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	rec = postJSON(handler, "/api/events/property-created", "", `{"property":{}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing propertyId, got %d", rec.Code)
	}
}

func TestHandleJobTriggers(t *testing.T) {
	handler := newTestRouter(t, store.NewMemoryClient())

	for _, path := range []string{"/api/jobs/expire-listings", "/api/jobs/analytics"} {
		rec := postJSON(handler, path, "", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("%s: expected 202, got %d", path, rec.Code)
		}

		req := httptest.NewRequest(http.MethodGet, path, nil)
		get := httptest.NewRecorder()
		handler.ServeHTTP(get, req)
		if get.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405 for GET, got %d", path, get.Code)
		}
	}
}

func TestHealthz(t *testing.T) {
	mem := store.NewMemoryClient()
	handler := newTestRouter(t, mem)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	mem.WithConnectivityError(io.ErrUnexpectedEOF)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the store probe fails, got %d", rec.Code)
	}
}
