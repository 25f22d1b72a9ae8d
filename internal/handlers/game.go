package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"matchlab/internal/matching"
	"matchlab/internal/viewmodel"
	"matchlab/views/components"
	"matchlab/views/pages"
)

const requestTimeout = 15 * time.Second

type GameHandler struct {
	store  *matching.Store
	tuning matching.Tuning
}

func NewGameHandler(store *matching.Store, tuning matching.Tuning) *GameHandler {
	if tuning.HapticPulse <= 0 {
		tuning.HapticPulse = matching.DefaultHapticPulse
	}
	if tuning.Lang == "" {
		tuning.Lang = "id"
	}
	return &GameHandler{store: store, tuning: tuning}
}

func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/play/{subject}", func(r chi.Router) {
		// The stream outlives any request timeout.
		r.Get("/stream", h.stream)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Get("/", h.gamePage)
			r.Get("/board", h.boardFragment)
			r.Get("/status", h.statusFragment)
			r.Get("/toast", h.toastFragment)
			r.Post("/drag", h.dragStart)
			r.Post("/drop", h.drop)
			r.Post("/reset", h.reset)
			r.Post("/shuffle", h.shuffle)
			r.Post("/stop", h.stopTimer)
		})
	})
	r.With(middleware.Timeout(requestTimeout)).Post("/records/import", h.importLegacy)
}

// resolve finds the visitor's desk and the game for the subject in the URL,
// creating the visitor and desk when needed. Only the page and commands
// call it.
func (h *GameHandler) resolve(w http.ResponseWriter, r *http.Request) (string, *matching.Desk, *matching.Game, bool) {
	visitor := visitorID(w, r)
	desk, err := h.store.Desk(r.Context(), visitor)
	if err != nil {
		log.Printf("desk error visitor=%s err=%v", visitor, err)
		http.Error(w, "failed to load games", http.StatusInternalServerError)
		return "", nil, nil, false
	}
	instance, ok := desk.Game(chi.URLParam(r, "subject"))
	if !ok {
		http.NotFound(w, r)
		return "", nil, nil, false
	}
	return visitor, desk, instance, true
}

// lookup is resolve for reads: fragments and the stream only serve a desk
// that already exists, so cookie-less requests never create one.
func (h *GameHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *matching.Game, bool) {
	visitor, ok := visitorFromCookie(r)
	if !ok {
		http.NotFound(w, r)
		return "", nil, false
	}
	desk, ok := h.store.Lookup(visitor)
	if !ok {
		http.NotFound(w, r)
		return "", nil, false
	}
	instance, ok := desk.Game(chi.URLParam(r, "subject"))
	if !ok {
		http.NotFound(w, r)
		return "", nil, false
	}
	return visitor, instance, true
}

func (h *GameHandler) gamePage(w http.ResponseWriter, r *http.Request) {
	visitor, desk, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	subject := instance.Subject()
	if err := desk.Switch(subject.ID); err != nil {
		http.NotFound(w, r)
		return
	}
	// Switching may have stopped the clock the loop was ticking.
	h.store.WakeClockLoop(visitor)

	snapshot := instance.Snapshot()
	data := viewmodel.Page{
		Title:   subject.Title,
		Lang:    h.tuning.Lang,
		Subject: subject.ID,
		Tabs:    toTabs(desk),
		Board:   toBoard(snapshot),
		Status:  toStatus(snapshot),
		Toast:   toToast(snapshot),
	}
	render(w, r, pages.GamePage(data))
}

func (h *GameHandler) boardFragment(w http.ResponseWriter, r *http.Request) {
	_, instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.BoardFragment(toBoard(instance.Snapshot())))
}

func (h *GameHandler) statusFragment(w http.ResponseWriter, r *http.Request) {
	_, instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.StatusFragment(toStatus(instance.Snapshot())))
}

func (h *GameHandler) toastFragment(w http.ResponseWriter, r *http.Request) {
	_, instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	render(w, r, components.ToastFragment(toToast(instance.Snapshot())))
}

func (h *GameHandler) dragStart(w http.ResponseWriter, r *http.Request) {
	visitor, _, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	token := r.FormValue("token")
	if instance.DragStart(time.Now().UTC(), token) {
		log.Printf("clock start visitor=%s subject=%s", visitor, instance.Subject().ID)
		h.store.EnsureClockLoop(visitor)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) drop(w http.ResponseWriter, r *http.Request) {
	visitor, _, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	target := r.FormValue("target")
	token := r.FormValue("token")
	if target == "" {
		http.Error(w, "target required", http.StatusBadRequest)
		return
	}
	res := instance.Drop(r.Context(), target, token)
	log.Printf("drop visitor=%s subject=%s target=%s outcome=%s correct=%d/%d", visitor, instance.Subject().ID, target, res.Outcome, res.Correct, res.Total)
	if res.Outcome == matching.OutcomeCompleted {
		h.store.WakeClockLoop(visitor)
	}
	writeJSON(w, map[string]any{
		"outcome":   res.Outcome,
		"correct":   res.Correct,
		"total":     res.Total,
		"newRecord": res.NewRecord,
	})
}

func (h *GameHandler) reset(w http.ResponseWriter, r *http.Request) {
	visitor, _, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	instance.Reset()
	h.store.WakeClockLoop(visitor)
	h.done(w, r, instance)
}

func (h *GameHandler) shuffle(w http.ResponseWriter, r *http.Request) {
	_, _, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	instance.ShuffleLabels()
	h.done(w, r, instance)
}

func (h *GameHandler) stopTimer(w http.ResponseWriter, r *http.Request) {
	visitor, _, instance, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if instance.StopTimer() {
		h.store.WakeClockLoop(visitor)
	}
	h.done(w, r, instance)
}

func (h *GameHandler) importLegacy(w http.ResponseWriter, r *http.Request) {
	// The page issues the cookie before its script can import.
	visitor, ok := visitorFromCookie(r)
	if !ok {
		http.Error(w, "visitor cookie required", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(r.FormValue("seconds")))
	if err != nil || seconds < 0 {
		http.Error(w, "seconds must be a non-negative integer", http.StatusBadRequest)
		return
	}
	imported, err := h.store.ImportLegacy(r.Context(), visitor, seconds)
	if err != nil {
		// The learner keeps playing without the old record.
		log.Printf("records import visitor=%s err=%v", visitor, err)
	}
	log.Printf("records import visitor=%s seconds=%d imported=%t", visitor, seconds, imported)
	writeJSON(w, map[string]any{"imported": imported})
}

func (h *GameHandler) done(w http.ResponseWriter, r *http.Request, instance *matching.Game) {
	if isAsync(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/play/"+instance.Subject().ID, http.StatusSeeOther)
}

func (h *GameHandler) stream(w http.ResponseWriter, r *http.Request) {
	visitor, instance, ok := h.lookup(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subject := instance.Subject().ID
	prefix := subject + ":"
	hub := h.store.Broadcaster(visitor)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	send := func(kind string) {
		snapshot := instance.Snapshot()
		switch kind {
		case matching.EventBoard:
			writeSSE(w, kind, renderToString(r, components.BoardFragment(toBoard(snapshot))))
		case matching.EventStatus:
			writeSSE(w, kind, renderToString(r, components.StatusFragment(toStatus(snapshot))))
		case matching.EventToast:
			writeSSE(w, kind, renderToString(r, components.ToastFragment(toToast(snapshot))))
		case matching.EventHaptic:
			writeSSE(w, kind, strconv.FormatInt(h.tuning.HapticPulse.Milliseconds(), 10))
		default:
			return
		}
		flusher.Flush()
	}

	send(matching.EventBoard)
	send(matching.EventStatus)
	send(matching.EventToast)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			if kind, ok := strings.CutPrefix(event, prefix); ok {
				send(kind)
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func toTabs(desk *matching.Desk) []viewmodel.Tab {
	active := desk.Active()
	subjects := desk.Subjects()
	out := make([]viewmodel.Tab, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, viewmodel.Tab{
			Subject: s.ID,
			Title:   s.Title,
			Active:  s.ID == active,
		})
	}
	return out
}

func toBoard(snapshot matching.Snapshot) viewmodel.Board {
	pool := make([]viewmodel.Token, 0, len(snapshot.Pool))
	for _, token := range snapshot.Pool {
		pool = append(pool, viewmodel.Token{Value: token})
	}
	targets := make([]viewmodel.Target, 0, len(snapshot.Targets))
	for _, target := range snapshot.Targets {
		targets = append(targets, viewmodel.Target{
			Key:         target.Key,
			Label:       target.Label,
			Status:      string(target.Status),
			Placed:      target.Placed,
			EmptyPrompt: snapshot.EmptyPrompt,
		})
	}
	return viewmodel.Board{
		Subject:  snapshot.Subject,
		Pool:     pool,
		Targets:  targets,
		Complete: snapshot.Phase == matching.PhaseComplete,
	}
}

func toStatus(snapshot matching.Snapshot) viewmodel.Status {
	return viewmodel.Status{
		Subject:  snapshot.Subject,
		Progress: snapshot.Progress,
		Correct:  snapshot.Correct,
		Total:    snapshot.Total,
		Timer:    snapshot.ElapsedText,
		Running:  snapshot.Running,
		Best:     snapshot.BestText,
		HasBest:  snapshot.HasBest,
	}
}

func toToast(snapshot matching.Snapshot) viewmodel.Toast {
	return viewmodel.Toast{
		Subject: snapshot.Subject,
		Message: snapshot.Toast,
	}
}
