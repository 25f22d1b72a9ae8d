package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"matchlab/internal/matching"
	"matchlab/internal/records"
)

const testVisitor = "abcdefghijklmnop"

func newTestServer(t *testing.T) (*matching.Store, http.Handler) {
	t.Helper()
	store := matching.NewStore(matching.StoreOptions{Records: records.NewMemoryKV()})
	r := chi.NewRouter()
	NewHomeHandler(store).RegisterRoutes(r)
	NewGameHandler(store, matching.Tuning{Lang: "id"}).RegisterRoutes(r)
	return store, r
}

func withVisitor(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: visitorCookie, Value: testVisitor})
	return req
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Hx-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(req))
	return rec
}

func TestHomeRedirectsToFirstSubject(t *testing.T) {
	_, h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/play/matter" {
		t.Errorf("Location %q, want /play/matter", loc)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), visitorCookie+"=") {
		t.Error("home should issue a visitor cookie")
	}
}

func TestHealthz(t *testing.T) {
	_, h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz %d %q", rec.Code, rec.Body.String())
	}
}

func TestGamePage(t *testing.T) {
	_, h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(httptest.NewRequest(http.MethodGet, "/play/energy", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Perubahan Energi", `data-target="fotosintesis"`, "0 dari 8 benar", `<li class="is-active"><a href="/play/energy">`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestUnknownSubjectNotFound(t *testing.T) {
	_, h := newTestServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(httptest.NewRequest(http.MethodGet, "/play/history", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestDropReportsOutcome(t *testing.T) {
	_, h := newTestServer(t)

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		t.Helper()
		var out map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	rec := postForm(t, h, "/play/matter/drop", url.Values{"target": {"cair-gas"}, "token": {"Membeku"}})
	if got := decode(rec); got["outcome"] != "wrong" || got["correct"] != float64(0) {
		t.Errorf("wrong drop %v", got)
	}
	rec = postForm(t, h, "/play/matter/drop", url.Values{"target": {"cair-gas"}, "token": {"Menguap"}})
	got := decode(rec)
	if got["outcome"] != "correct" || got["correct"] != float64(1) || got["total"] != float64(6) {
		t.Errorf("correct drop %v", got)
	}

	rec = postForm(t, h, "/play/matter/drop", url.Values{"token": {"Menguap"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing target status %d, want 400", rec.Code)
	}
}

func TestCompletingSetsRecord(t *testing.T) {
	store, h := newTestServer(t)
	postForm(t, h, "/play/matter/drag", url.Values{"token": {"Mencair"}})
	var last map[string]any
	for _, p := range matching.DefaultSubjects()[0].Registry.Pairs() {
		rec := postForm(t, h, "/play/matter/drop", url.Values{"target": {p.Key}, "token": {p.Answer}})
		last = nil
		if err := json.NewDecoder(rec.Body).Decode(&last); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	if last["outcome"] != "completed" || last["newRecord"] != true {
		t.Fatalf("last drop %v, want completed with new record", last)
	}
	desk, _ := store.Lookup(testVisitor)
	game, _ := desk.Game("matter")
	if !game.Snapshot().HasBest {
		t.Error("record should be stored")
	}
}

func TestDragStartsClockLoopAndStopEndsIt(t *testing.T) {
	store, h := newTestServer(t)
	rec := postForm(t, h, "/play/matter/drag", url.Values{"token": {"Mencair"}})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("drag status %d, want 204", rec.Code)
	}
	if !store.ClockLoopActive(testVisitor) {
		t.Fatal("drag should start the clock loop")
	}

	rec = postForm(t, h, "/play/matter/stop", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("stop status %d, want 204", rec.Code)
	}
	deadline := time.Now().Add(2 * time.Second)
	for store.ClockLoopActive(testVisitor) {
		if time.Now().After(deadline) {
			t.Fatal("clock loop should exit after stop")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSwitchingTabsStopsOtherClock(t *testing.T) {
	store, h := newTestServer(t)
	postForm(t, h, "/play/matter/drag", url.Values{"token": {"Mencair"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(httptest.NewRequest(http.MethodGet, "/play/energy", nil)))
	desk, _ := store.Lookup(testVisitor)
	matter, _ := desk.Game("matter")
	if matter.Running() {
		t.Error("opening another tab should stop the matter clock")
	}
	if desk.Active() != "energy" {
		t.Errorf("active %q, want energy", desk.Active())
	}
}

func TestResetRedirectsFormPosts(t *testing.T) {
	_, h := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/play/matter/reset", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(req))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/play/matter" {
		t.Errorf("Location %q", loc)
	}
}

func TestStreamSendsInitialFragments(t *testing.T) {
	_, h := newTestServer(t)
	h.ServeHTTP(httptest.NewRecorder(), withVisitor(httptest.NewRequest(http.MethodGet, "/play/matter", nil)))
	server := httptest.NewServer(h)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/play/matter/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(withVisitor(req))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type %q", ct)
	}

	want := map[string]bool{"event: board": false, "event: status": false, "event: toast": false}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	remaining := len(want)
	for remaining > 0 && scanner.Scan() {
		line := scanner.Text()
		if seen, ok := want[line]; ok && !seen {
			want[line] = true
			remaining--
		}
	}
	for event, seen := range want {
		if !seen {
			t.Errorf("missing %q", event)
		}
	}
}

func TestValidVisitorID(t *testing.T) {
	if !validVisitorID(testVisitor) {
		t.Error("test visitor should be valid")
	}
	for _, id := range []string{"", "short", "ABCDEFGHIJKLMNOP", "abcdefghijklmno1"} {
		if validVisitorID(id) {
			t.Errorf("validVisitorID(%q) = true", id)
		}
	}
}

func TestReadsWithoutDeskDoNotCreateOne(t *testing.T) {
	store, h := newTestServer(t)
	for _, path := range []string{"/play/matter/board", "/play/matter/status", "/play/matter/toast", "/play/matter/stream"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s without cookie: status %d, want 404", path, rec.Code)
		}
		if rec.Header().Get("Set-Cookie") != "" {
			t.Errorf("%s should not issue a visitor cookie", path)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, withVisitor(httptest.NewRequest(http.MethodGet, path, nil)))
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s for unknown visitor: status %d, want 404", path, rec.Code)
		}
	}
	if n := store.Len(); n != 0 {
		t.Errorf("store holds %d desks, want 0", n)
	}

	h.ServeHTTP(httptest.NewRecorder(), withVisitor(httptest.NewRequest(http.MethodGet, "/play/matter", nil)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withVisitor(httptest.NewRequest(http.MethodGet, "/play/matter/board", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `id="board"`) {
		t.Errorf("board after page view: %d", rec.Code)
	}
}

func TestImportLegacyRecord(t *testing.T) {
	store, h := newTestServer(t)
	h.ServeHTTP(httptest.NewRecorder(), withVisitor(httptest.NewRequest(http.MethodGet, "/play/matter", nil)))

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		t.Helper()
		var out map[string]any
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	rec := postForm(t, h, "/records/import", url.Values{"seconds": {"58"}})
	if got := decode(rec); got["imported"] != true {
		t.Fatalf("import %v, want imported", got)
	}
	desk, _ := store.Lookup(testVisitor)
	matter, _ := desk.Game("matter")
	if got := matter.Snapshot().BestText; got != "00:58" {
		t.Errorf("matter best %q, want 00:58", got)
	}
	energy, _ := desk.Game("energy")
	if energy.Snapshot().HasBest {
		t.Error("legacy record belongs to matter only")
	}

	rec = postForm(t, h, "/records/import", url.Values{"seconds": {"12"}})
	if got := decode(rec); got["imported"] != false {
		t.Errorf("repeat import %v, want not imported", got)
	}
	if got := matter.Snapshot().BestText; got != "00:58" {
		t.Errorf("matter best %q after repeat, want 00:58", got)
	}

	rec = postForm(t, h, "/records/import", url.Values{"seconds": {"soon"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad seconds status %d, want 400", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/records/import", strings.NewReader("seconds=5"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cookie-less import status %d, want 400", rec.Code)
	}
}
