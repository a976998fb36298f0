package orchestrator

import (
	"time"

	"github.com/google/uuid"

	"cubectl/internal/lifecycle"
)

// NoticeLevel classifies a user-visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice reports the outcome of an action that reached the backend.
type Notice struct {
	ID     string
	Level  NoticeLevel
	Target Target
	Action lifecycle.Action
	// Message is ready for display.
	Message string
	// Err is set for error notices.
	Err  error
	Time time.Time
}

// Notifier receives notices. Implementations must not block for long;
// Notify is called from the goroutine that awaited the backend.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}

func newNotice(level NoticeLevel, target Target, action lifecycle.Action, msg string, err error) Notice {
	return Notice{
		ID:      uuid.NewString(),
		Level:   level,
		Target:  target,
		Action:  action,
		Message: msg,
		Err:     err,
		Time:    time.Now(),
	}
}
