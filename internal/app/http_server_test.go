package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frudas24/touchpad/internal/config"
	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/testutil"
)

// newTestApp builds an app backed by a fake injector.
func newTestApp(t *testing.T) (*App, *testutil.FakeInjector) {
	t.Helper()
	inj := &testutil.FakeInjector{}
	a, err := New(config.Default(), inj, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return a, inj
}

// TestNew_RequiresInjector verifies a nil injector is rejected.
func TestNew_RequiresInjector(t *testing.T) {
	if _, err := New(config.Default(), nil, nil); err == nil {
		t.Fatalf("expected error for nil injector")
	}
}

// TestHandleState_ReportsIdle verifies the idle state snapshot.
func TestHandleState_ReportsIdle(t *testing.T) {
	a, _ := newTestApp(t)
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Connected || !resp.InputEnabled || resp.WheelStep != 120 {
		t.Fatalf("unexpected state: %+v", resp)
	}
}

// TestHandleInput_TogglesInjection verifies the kill switch stops injected input.
func TestHandleInput_TogglesInjection(t *testing.T) {
	a, inj := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleInput(rec, httptest.NewRequest(http.MethodPost, "/api/input", bytes.NewBufferString(`{"enabled":false}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if a.InputEnabled() {
		t.Fatalf("expected input disabled")
	}

	a.handler.TouchPadCreated("pad")
	a.handler.TouchUpdate("pad", gesture.KindSwipeUp)
	if calls := inj.Calls(); len(calls) != 0 {
		t.Fatalf("expected no injected input, got %+v", calls)
	}
}

// TestHandleInput_RejectsBadRequests verifies method and body validation.
func TestHandleInput_RejectsBadRequests(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.handleInput(rec, httptest.NewRequest(http.MethodGet, "/api/input", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	a.handleInput(rec, httptest.NewRequest(http.MethodPost, "/api/input", bytes.NewBufferString(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
