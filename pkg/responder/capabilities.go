package responder

import (
	"time"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// InputSource is a host text-entry surface that emits a submit event.
type InputSource interface {
	Subscribe(onSubmit func(text string))
	Unsubscribe()
	Clear()
	Focus()
}

// AudioSink plays one clip at a time. The responder never waits on it.
type AudioSink interface {
	Stop()
	SetClip(h dialogue.AudioHandle)
	Play()
}

// ClipLibrary reports clip lengths, used only to time a presentation.
type ClipLibrary interface {
	Length(h dialogue.AudioHandle) (time.Duration, bool)
}

// SubtitleSink displays a line of text. An empty string clears it.
type SubtitleSink interface {
	SetText(text string)
}

// Scheduler runs deferred actions on the host's event loop.
type Scheduler interface {
	ScheduleAfter(d time.Duration, action func())
	CancelAll()
}

// Collaborators bundles the host capabilities a Responder drives. Only the
// Scheduler is required; a nil sink means the host has no such surface.
type Collaborators struct {
	Audio     AudioSink
	Clips     ClipLibrary
	Subtitles SubtitleSink
	Scheduler Scheduler
}
