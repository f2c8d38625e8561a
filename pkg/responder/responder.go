// Package responder presents scripted NPC replies. A Responder picks a rule
// for each line of player input and plays it as a timed audio + subtitle
// presentation, refusing new input while it speaks when so configured.
//
// A Responder is driven from a single goroutine: the host's event loop calls
// its methods and runs the Scheduler's deferred actions. Only IsSpeaking and
// State may be read from other goroutines.
package responder

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
	"github.com/jwebster45206/npc-responder/pkg/textfilter"
)

// SubtitleOnlyDuration is how long the fallback subtitle stays up when there
// is no audio to time it against.
const SubtitleOnlyDuration = 2 * time.Second

// State is the presentation state of a Responder.
type State int

const (
	StateIdle State = iota
	StateSpeaking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}

// Outcome describes what happened to one line of input.
type Outcome int

const (
	OutcomeEmpty        Outcome = iota // blank input, nothing processed
	OutcomeDropped                     // refused by the speaking lock
	OutcomeMatched                     // a rule with audio was presented
	OutcomeFallback                    // fallback audio was presented
	OutcomeSubtitleOnly                // no audio anywhere, fallback subtitle shown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeDropped:
		return "dropped"
	case OutcomeMatched:
		return "matched"
	case OutcomeFallback:
		return "fallback"
	case OutcomeSubtitleOnly:
		return "subtitle_only"
	default:
		return "unknown"
	}
}

// Session describes the presentation in progress.
type Session struct {
	ID       uuid.UUID
	Audio    dialogue.AudioHandle
	Subtitle string
	Duration time.Duration
}

// Option configures a Responder.
type Option func(*Responder)

// WithName labels the responder in logs and metrics.
func WithName(name string) Option {
	return func(r *Responder) {
		r.name = name
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records activity on m.
func WithMetrics(m *Metrics) Option {
	return func(r *Responder) {
		r.metrics = m
	}
}

// Responder owns the speaking state and drives one presentation at a time.
type Responder struct {
	cfg     dialogue.Config
	matcher *dialogue.Matcher

	audio     AudioSink
	clips     ClipLibrary
	subtitles SubtitleSink
	scheduler Scheduler
	input     InputSource

	speaking atomic.Bool
	session  *Session

	name    string
	logger  *slog.Logger
	metrics *Metrics
}

// New builds a Responder for cfg. The configuration is copied and fixed for
// the life of the Responder.
func New(cfg dialogue.Config, c Collaborators, opts ...Option) (*Responder, error) {
	if c.Scheduler == nil {
		return nil, errors.New("responder requires a scheduler")
	}

	rules := make([]dialogue.ResponseRule, len(cfg.Rules))
	copy(rules, cfg.Rules)
	cfg.Rules = rules

	matcher, err := dialogue.Compile(cfg.Rules, cfg.CaseInsensitive)
	if err != nil {
		return nil, err
	}

	r := &Responder{
		cfg:       cfg,
		matcher:   matcher,
		audio:     c.Audio,
		clips:     c.Clips,
		subtitles: c.Subtitles,
		scheduler: c.Scheduler,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("responder", r.name)

	return r, nil
}

// Attach subscribes the responder to src's submit events, replacing any
// previously attached source.
func (r *Responder) Attach(src InputSource) {
	if src == nil {
		return
	}
	r.Detach()
	r.input = src
	src.Subscribe(func(text string) {
		r.SubmitText(text)
	})
}

// Detach unsubscribes from the attached input source, if any.
func (r *Responder) Detach() {
	if r.input == nil {
		return
	}
	r.input.Unsubscribe()
	r.input = nil
}

// SubmitText handles a submit event from the input surface. Blank text is
// ignored. The attached input surface is cleared and refocused either way.
func (r *Responder) SubmitText(raw string) Outcome {
	outcome := OutcomeEmpty
	if textfilter.IsBlank(raw) {
		r.metrics.observeInput(r.name, outcome)
	} else {
		outcome = r.HandleUserText(raw)
	}

	if r.input != nil {
		r.input.Clear()
		r.input.Focus()
	}
	return outcome
}

// HandleUserText selects and presents a response to raw. While speaking with
// the lock enabled the input is dropped.
func (r *Responder) HandleUserText(raw string) Outcome {
	if r.cfg.LockWhileSpeaking && r.speaking.Load() {
		r.logger.Debug("Input dropped while speaking", "input", raw)
		r.metrics.observeInput(r.name, OutcomeDropped)
		return OutcomeDropped
	}

	text := textfilter.Normalize(raw, r.cfg.CaseInsensitive)
	rule, matched := r.matcher.Select(text)

	var outcome Outcome
	switch {
	case matched && !rule.Audio.IsZero():
		r.logger.Debug("Rule selected", "rule", rule.ID, "priority", rule.Priority)
		r.Present(rule.Audio, rule.Subtitle)
		outcome = OutcomeMatched
	case !r.cfg.FallbackAudio.IsZero():
		r.logger.Debug("Using fallback audio", "matched", matched, "rule", rule.ID)
		r.Present(r.cfg.FallbackAudio, r.cfg.FallbackSubtitle)
		outcome = OutcomeFallback
	default:
		r.logger.Debug("No audio available, showing fallback subtitle", "matched", matched, "rule", rule.ID)
		r.showSubtitleOnly(r.cfg.FallbackSubtitle)
		outcome = OutcomeSubtitleOnly
	}

	r.metrics.observeInput(r.name, outcome)
	return outcome
}

// Present plays audio with subtitle, preempting anything already scheduled.
// The subtitle is cleared and the lock released once the clip's length has
// elapsed; with an unknown or zero length both happen before Present returns.
func (r *Responder) Present(audio dialogue.AudioHandle, subtitle string) {
	preempted := r.session != nil

	r.scheduler.CancelAll()
	r.setSubtitle("")

	if r.audio != nil {
		r.audio.Stop()
		r.audio.SetClip(audio)
		r.audio.Play()
	}

	if r.cfg.LockWhileSpeaking {
		r.speaking.Store(true)
	}

	duration := r.clipLength(audio)
	r.session = &Session{
		ID:       uuid.New(),
		Audio:    audio,
		Subtitle: subtitle,
		Duration: duration,
	}
	r.metrics.observePresentation(r.name, preempted)
	r.logger.Debug("Presenting response",
		"session_id", r.session.ID,
		"audio", audio,
		"duration", duration,
		"preempted", preempted)

	r.setSubtitle(subtitle)
	if duration <= 0 {
		r.setSubtitle("")
		r.release()
		return
	}
	r.scheduler.ScheduleAfter(duration, func() {
		r.setSubtitle("")
	})
	r.scheduler.ScheduleAfter(duration, r.release)
}

// IsSpeaking reports whether a presentation currently holds the lock.
func (r *Responder) IsSpeaking() bool {
	return r.speaking.Load()
}

// State returns StateSpeaking while the lock is held, StateIdle otherwise.
func (r *Responder) State() State {
	if r.speaking.Load() {
		return StateSpeaking
	}
	return StateIdle
}

// Session returns the presentation in progress, if any.
func (r *Responder) Session() (Session, bool) {
	if r.session == nil {
		return Session{}, false
	}
	return *r.session, true
}

// Config returns the responder's configuration.
func (r *Responder) Config() dialogue.Config {
	return r.cfg
}

// showSubtitleOnly is the degraded path: no audio commands and no lock, just
// the text for SubtitleOnlyDuration. It still supersedes anything scheduled.
func (r *Responder) showSubtitleOnly(text string) {
	if r.subtitles == nil {
		return
	}
	r.scheduler.CancelAll()
	r.session = nil
	r.setSubtitle(text)
	r.scheduler.ScheduleAfter(SubtitleOnlyDuration, func() {
		r.setSubtitle("")
	})
}

func (r *Responder) release() {
	r.speaking.Store(false)
	r.session = nil
}

func (r *Responder) clipLength(h dialogue.AudioHandle) time.Duration {
	if r.clips == nil || h.IsZero() {
		return 0
	}
	length, ok := r.clips.Length(h)
	if !ok {
		return 0
	}
	return length
}

func (r *Responder) setSubtitle(text string) {
	if r.subtitles != nil {
		r.subtitles.SetText(text)
	}
}
