package matching

import "time"

// Status is a drop target's state.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusCorrect Status = "correct"
	StatusWrong   Status = "wrong"
)

// Surface is the rendering collaborator a game reports changes to. Calls
// happen while the game holds its lock; implementations must not call back
// into the game.
type Surface interface {
	RenderPool(tokens []string)
	SetTargetStatus(key string, status Status)
	SetProgressText(correct int)
	SetTimerText(clock string)
	SetBestText(text string)
	ShowToast(message string, d time.Duration)
	HideToast()
}

// Haptics is implemented by surfaces that can give a vibration cue.
type Haptics interface {
	Vibrate(d time.Duration)
}

// NopSurface discards every update.
type NopSurface struct{}

func (NopSurface) RenderPool([]string) {}
func (NopSurface) SetTargetStatus(string, Status) {}
func (NopSurface) SetProgressText(int) {}
func (NopSurface) SetTimerText(string) {}
func (NopSurface) SetBestText(string) {}
func (NopSurface) ShowToast(string, time.Duration) {}
func (NopSurface) HideToast() {}

// Event names published by BroadcastSurface, prefixed with "<subject>:".
const (
	EventBoard  = "board"
	EventStatus = "status"
	EventToast  = "toast"
	EventHaptic = "haptic"
)

// BroadcastSurface turns surface calls into event names for SSE
// subscribers, which re-render fragments from a fresh snapshot.
type BroadcastSurface struct {
	Subject string
	Publish func(event string)
}

// EventName joins a subject and an event kind.
func EventName(subject, kind string) string {
	return subject + ":" + kind
}

func (s BroadcastSurface) emit(kind string) {
	if s.Publish != nil {
		s.Publish(EventName(s.Subject, kind))
	}
}

func (s BroadcastSurface) RenderPool([]string) { s.emit(EventBoard) }
func (s BroadcastSurface) SetTargetStatus(string, Status) { s.emit(EventBoard) }
func (s BroadcastSurface) SetProgressText(int) { s.emit(EventStatus) }
func (s BroadcastSurface) SetTimerText(string) { s.emit(EventStatus) }
func (s BroadcastSurface) SetBestText(string) { s.emit(EventStatus) }
func (s BroadcastSurface) ShowToast(string, time.Duration) { s.emit(EventToast) }
func (s BroadcastSurface) HideToast() { s.emit(EventToast) }
func (s BroadcastSurface) Vibrate(time.Duration) { s.emit(EventHaptic) }
