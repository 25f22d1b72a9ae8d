package matching

import (
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"matchlab/internal/records"
	"matchlab/pkg/realtime"
)

// manualScheduler queues delayed funcs until the test fires them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	delay   time.Duration
	f       func()
	stopped bool
	ran     bool
}

func (t *manualTask) Stop() bool {
	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) realtime.Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{delay: d, f: f}
	s.tasks = append(s.tasks, task)
	return task
}

// pending returns tasks that were neither stopped nor run.
func (s *manualScheduler) pending() []*manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manualTask
	for _, task := range s.tasks {
		if !task.stopped && !task.ran {
			out = append(out, task)
		}
	}
	return out
}

// fireAll runs every pending task, as if all delays elapsed.
func (s *manualScheduler) fireAll() {
	for _, task := range s.pending() {
		task.ran = true
		task.f()
	}
}

// recordingSurface remembers the last value of every surface call.
type recordingSurface struct {
	mu       sync.Mutex
	pool     []string
	statuses map[string]Status
	progress int
	timer    string
	best     string
	toasts   []string
	toastDur []time.Duration
	hidden   int
	vibrated int
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{statuses: make(map[string]Status)}
}

func (r *recordingSurface) RenderPool(tokens []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = append([]string(nil), tokens...)
}

func (r *recordingSurface) SetTargetStatus(key string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[key] = status
}

func (r *recordingSurface) SetProgressText(correct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = correct
}

func (r *recordingSurface) SetTimerText(clock string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer = clock
}

func (r *recordingSurface) SetBestText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.best = text
}

func (r *recordingSurface) ShowToast(message string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, message)
	r.toastDur = append(r.toastDur, d)
}

func (r *recordingSurface) HideToast() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hidden++
}

func (r *recordingSurface) Vibrate(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vibrated++
}

var twoPairs = []Pair{
	{Key: "A", Label: "Target A", Answer: "x"},
	{Key: "B", Label: "Target B", Answer: "y"},
}

type fixture struct {
	game    *Game
	surface *recordingSurface
	sched   *manualScheduler
	book    *records.Book
}

func newFixture(t *testing.T, pairs []Pair) fixture {
	t.Helper()
	registry, err := NewRegistry(pairs)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	f := fixture{
		surface: newRecordingSurface(),
		sched:   &manualScheduler{},
		book:    records.NewBook(records.NewMemoryKV().Scope("test"), records.KeyFor("demo")),
	}
	f.game, err = NewGame(Options{
		Subject:   Subject{ID: "demo", Title: "Demo", Registry: registry},
		Book:      f.book,
		Surface:   f.surface,
		Scheduler: f.sched,
		Rand:      rand.New(rand.NewSource(1)),
		Tuning:    Tuning{Lang: "id"},
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return f
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
