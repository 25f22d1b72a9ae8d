package matching

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/text/message"

	"matchlab/internal/records"
	"matchlab/pkg/realtime"
)

// Default delays.
const (
	DefaultWrongRevert = 400 * time.Millisecond
	DefaultHapticPulse = 80 * time.Millisecond
	DefaultRecordToast = 3200 * time.Millisecond
	DefaultDoneToast   = 2800 * time.Millisecond
)

// Phase is a game's progress state.
const (
	PhaseNotStarted = "not_started"
	PhaseInProgress = "in_progress"
	PhaseComplete   = "complete"
)

// Outcome classifies what a drop did.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeCorrect   Outcome = "correct"
	OutcomeWrong     Outcome = "wrong"
	OutcomeCompleted Outcome = "completed"
)

// Tuning holds the per-game knobs shared by every subject.
type Tuning struct {
	Lang        string
	WrongRevert time.Duration
	HapticPulse time.Duration
	RecordToast time.Duration
	DoneToast   time.Duration
}

func (t Tuning) withDefaults() Tuning {
	if t.WrongRevert <= 0 {
		t.WrongRevert = DefaultWrongRevert
	}
	if t.HapticPulse <= 0 {
		t.HapticPulse = DefaultHapticPulse
	}
	if t.RecordToast <= 0 {
		t.RecordToast = DefaultRecordToast
	}
	if t.DoneToast <= 0 {
		t.DoneToast = DefaultDoneToast
	}
	return t
}

// Options configures one game instance.
type Options struct {
	Subject   Subject
	Book      *records.Book
	Surface   Surface
	Scheduler realtime.Scheduler
	Rand      *rand.Rand
	Tuning    Tuning
}

// Game is one self-contained matching game. All methods are safe for
// concurrent use; each runs to completion under the game's lock.
type Game struct {
	mu       sync.Mutex
	subject  Subject
	registry *Registry
	book     *records.Book
	surface  Surface
	sched    realtime.Scheduler
	printer  *message.Printer
	tuning   Tuning

	pool    *Pool
	targets map[string]Status
	placed  map[string]string
	correct int
	started bool
	clock   realtime.Stopwatch
	best    int
	hasBest bool

	// gen invalidates delayed callbacks scheduled before a reset.
	gen     int
	seq     int
	reverts map[string]pending
	toast   string
	toastAt pending
}

type pending struct {
	seq    int
	cancel realtime.Cancel
}

// DropResult reports what a drop did and the progress after it.
type DropResult struct {
	Outcome   Outcome
	Correct   int
	Total     int
	Elapsed   int
	NewRecord bool
}

// TargetView is a drop target as rendered.
type TargetView struct {
	Key    string
	Label  string
	Status Status
	Placed string
}

// Snapshot is a consistent copy of a game's state for rendering.
type Snapshot struct {
	Subject     string
	Title       string
	Phase       string
	Pool        []string
	Targets     []TargetView
	Correct     int
	Total       int
	Started     bool
	Running     bool
	Elapsed     int
	ElapsedText string
	Best        int
	HasBest     bool
	BestText    string
	Toast       string
	EmptyPrompt string
	Progress    string
}

// NewGame builds a game with a freshly shuffled pool and every target empty.
func NewGame(opts Options) (*Game, error) {
	if opts.Subject.Registry == nil || opts.Subject.Registry.Len() == 0 {
		return nil, ErrEmptyRegistry
	}
	if opts.Surface == nil {
		opts.Surface = NopSurface{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realtime.WallClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tuning := opts.Tuning.withDefaults()
	g := &Game{
		subject:  opts.Subject,
		registry: opts.Subject.Registry,
		book:     opts.Book,
		surface:  opts.Surface,
		sched:    opts.Scheduler,
		printer:  NewPrinter(tuning.Lang),
		tuning:   tuning,
		pool:     NewPool(opts.Rand),
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
	return g, nil
}

// Subject returns the game's subject.
func (g *Game) Subject() Subject {
	return g.subject
}

// DragStart records that the learner picked up token. The first drag of a
// session starts the clock; a drag after an external stop resumes it. It
// reports whether the clock went from idle to running.
func (g *Game) DragStart(now time.Time, token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.completeLocked() || !g.pool.Contains(token) {
		return false
	}
	if !g.clock.Start(now) {
		return false
	}
	g.started = true
	g.surface.SetTimerText(realtime.FormatClock(g.clock.Elapsed))
	return true
}

// Drop validates token dropped onto the target identified by key.
func (g *Game) Drop(ctx context.Context, key, token string) DropResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.targets[key]
	if !ok || status == StatusCorrect {
		return g.resultLocked(OutcomeIgnored)
	}
	pair, _ := g.registry.Find(key)
	if pair.Answer != token || !g.pool.Contains(token) {
		g.markWrongLocked(key)
		return g.resultLocked(OutcomeWrong)
	}

	g.cancelRevertLocked(key)
	g.targets[key] = StatusCorrect
	g.placed[key] = token
	g.pool.Remove(token)
	g.correct++
	g.surface.SetTargetStatus(key, StatusCorrect)
	g.surface.RenderPool(g.pool.Tokens())
	g.surface.SetProgressText(g.correct)

	if !g.completeLocked() {
		return g.resultLocked(OutcomeCorrect)
	}
	res := g.resultLocked(OutcomeCompleted)
	res.NewRecord = g.finishLocked(ctx)
	return res
}

func (g *Game) markWrongLocked(key string) {
	g.cancelRevertLocked(key)
	g.targets[key] = StatusWrong
	g.surface.SetTargetStatus(key, StatusWrong)

	gen := g.gen
	g.seq++
	seq := g.seq
	cancel := g.sched.AfterFunc(g.tuning.WrongRevert, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen != gen || g.reverts[key].seq != seq {
			return
		}
		delete(g.reverts, key)
		if g.targets[key] == StatusWrong {
			g.targets[key] = StatusEmpty
			g.surface.SetTargetStatus(key, StatusEmpty)
		}
	})
	g.reverts[key] = pending{seq: seq, cancel: cancel}

	if h, ok := g.surface.(Haptics); ok {
		h.Vibrate(g.tuning.HapticPulse)
	}
}

func (g *Game) cancelRevertLocked(key string) {
	if p, ok := g.reverts[key]; ok {
		p.cancel.Stop()
		delete(g.reverts, key)
	}
}

// finishLocked stops the clock, consults the best record and shows the
// matching toast. It reports whether a new record was stored. A session
// whose clock never started has no time to record.
func (g *Game) finishLocked(ctx context.Context) bool {
	timed := g.started
	g.clock.Stop()
	g.started = false
	elapsed := g.clock.Elapsed
	clock := realtime.FormatClock(elapsed)
	g.surface.SetTimerText(clock)

	if timed && g.book.MaybeUpdate(ctx, elapsed) {
		g.best, g.hasBest = elapsed, true
		g.surface.SetBestText(clock)
		g.showToastLocked(g.printer.Sprintf(msgNewRecord, clock), g.tuning.RecordToast)
		return true
	}
	g.showToastLocked(g.printer.Sprintf(msgCompleted, clock), g.tuning.DoneToast)
	return false
}

func (g *Game) showToastLocked(msg string, d time.Duration) {
	g.hideToastLocked()
	g.toast = msg
	g.surface.ShowToast(msg, d)

	gen := g.gen
	g.seq++
	seq := g.seq
	cancel := g.sched.AfterFunc(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen != gen || g.toastAt.seq != seq {
			return
		}
		g.toast = ""
		g.toastAt = pending{}
		g.surface.HideToast()
	})
	g.toastAt = pending{seq: seq, cancel: cancel}
}

func (g *Game) hideToastLocked() {
	if g.toastAt.cancel != nil {
		g.toastAt.cancel.Stop()
	}
	g.toastAt = pending{}
	if g.toast != "" {
		g.toast = ""
		g.surface.HideToast()
	}
}

// Reset returns the game to not-started: clock zeroed, pool rebuilt and
// reshuffled, every target empty, pending reverts and toasts cancelled.
// The best time is read again from storage.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Game) resetLocked() {
	for key := range g.reverts {
		g.cancelRevertLocked(key)
	}
	g.hideToastLocked()
	g.gen++
	g.reverts = make(map[string]pending)

	g.clock.Reset()
	g.started = false
	g.correct = 0
	g.placed = make(map[string]string, g.registry.Len())
	g.targets = make(map[string]Status, g.registry.Len())
	for _, p := range g.registry.Pairs() {
		g.targets[p.Key] = StatusEmpty
	}
	g.pool.Build(g.registry.Answers())

	g.best, g.hasBest = g.book.Read(context.Background())

	g.surface.SetTimerText(realtime.FormatClock(0))
	g.surface.SetProgressText(0)
	g.surface.SetBestText(formatBest(g.best, g.hasBest))
	for _, p := range g.registry.Pairs() {
		g.surface.SetTargetStatus(p.Key, StatusEmpty)
	}
	g.surface.RenderPool(g.pool.Tokens())
}

// ReloadBest re-reads the stored best time, e.g. after it was imported or
// cleared outside the game.
func (g *Game) ReloadBest(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.best, g.hasBest = g.book.Read(ctx)
	g.surface.SetBestText(formatBest(g.best, g.hasBest))
}

// ShuffleLabels reorders the unplaced labels without touching progress.
func (g *Game) ShuffleLabels() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pool.Reorder()
	g.surface.RenderPool(g.pool.Tokens())
}

// StopTimer pauses the clock, keeping progress. It reports whether the
// clock was running.
func (g *Game) StopTimer() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Stop()
}

// Advance counts clock ticks up to now and updates the timer display.
func (g *Game) Advance(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	ticks := g.clock.Advance(now)
	if ticks > 0 {
		g.surface.SetTimerText(realtime.FormatClock(g.clock.Elapsed))
	}
	return ticks
}

// NextWake returns when the clock next ticks, or false when it is idle.
func (g *Game) NextWake() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.NextWake()
}

// Running reports whether the clock is ticking.
func (g *Game) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Running()
}

// Snapshot returns a consistent view of the game for rendering.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	pairs := g.registry.Pairs()
	targets := make([]TargetView, 0, len(pairs))
	for _, p := range pairs {
		targets = append(targets, TargetView{
			Key:    p.Key,
			Label:  p.Label,
			Status: g.targets[p.Key],
			Placed: g.placed[p.Key],
		})
	}
	return Snapshot{
		Subject:     g.subject.ID,
		Title:       g.subject.Title,
		Phase:       g.phaseLocked(),
		Pool:        g.pool.Tokens(),
		Targets:     targets,
		Correct:     g.correct,
		Total:       len(pairs),
		Started:     g.started,
		Running:     g.clock.Running(),
		Elapsed:     g.clock.Elapsed,
		ElapsedText: realtime.FormatClock(g.clock.Elapsed),
		Best:        g.best,
		HasBest:     g.hasBest,
		BestText:    formatBest(g.best, g.hasBest),
		Toast:       g.toast,
		EmptyPrompt: g.printer.Sprintf(msgEmptyTarget),
		Progress:    g.printer.Sprintf(msgProgress, g.correct, len(pairs)),
	}
}

func formatBest(seconds int, ok bool) string {
	if !ok {
		return NoRecord
	}
	return realtime.FormatClock(seconds)
}

func (g *Game) completeLocked() bool {
	return g.correct == g.registry.Len()
}

func (g *Game) phaseLocked() string {
	switch {
	case g.completeLocked():
		return PhaseComplete
	case g.started || g.correct > 0 || g.clock.Elapsed > 0:
		return PhaseInProgress
	default:
		return PhaseNotStarted
	}
}

func (g *Game) resultLocked(outcome Outcome) DropResult {
	return DropResult{
		Outcome: outcome,
		Correct: g.correct,
		Total:   g.registry.Len(),
		Elapsed: g.clock.Elapsed,
	}
}
