package responder

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
	"github.com/jwebster45206/npc-responder/pkg/schedule"
)

type fakeAudio struct {
	calls []string
}

func (f *fakeAudio) Stop()                          { f.calls = append(f.calls, "stop") }
func (f *fakeAudio) SetClip(h dialogue.AudioHandle) { f.calls = append(f.calls, "clip:"+string(h)) }
func (f *fakeAudio) Play()                          { f.calls = append(f.calls, "play") }

type fakeSubtitles struct {
	text    string
	history []string
}

func (f *fakeSubtitles) SetText(text string) {
	f.text = text
	f.history = append(f.history, text)
}

type fakeInput struct {
	onSubmit     func(string)
	cleared      int
	focused      int
	unsubscribed bool
}

func (f *fakeInput) Subscribe(onSubmit func(string)) { f.onSubmit = onSubmit }
func (f *fakeInput) Unsubscribe() {
	f.onSubmit = nil
	f.unsubscribed = true
}
func (f *fakeInput) Clear() { f.cleared++ }
func (f *fakeInput) Focus() { f.focused++ }

type harness struct {
	responder *Responder
	clock     *schedule.Manual
	audio     *fakeAudio
	subtitles *fakeSubtitles
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() dialogue.Config {
	cfg := dialogue.DefaultConfig()
	cfg.Rules = []dialogue.ResponseRule{
		{ID: "greet", Keywords: []string{"hello", "hi"}, Audio: "greet.wav", Subtitle: "Well met.", Priority: 1},
		{ID: "door", Keywords: []string{"open", "the", "door"}, ExactMatch: true, Audio: "door.wav", Subtitle: "It's locked.", Priority: 2},
		{ID: "mute", Keywords: []string{"secret"}, Subtitle: "...", Priority: 5},
	}
	return cfg
}

func testClips() dialogue.ClipTable {
	return dialogue.ClipTable{
		"greet.wav": 3000,
		"door.wav":  5000,
		"huh.wav":   1000,
	}
}

func newHarness(t *testing.T, cfg dialogue.Config, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		clock:     schedule.NewManual(),
		audio:     &fakeAudio{},
		subtitles: &fakeSubtitles{},
	}
	opts = append([]Option{WithName("test"), WithLogger(testLogger())}, opts...)
	r, err := New(cfg, Collaborators{
		Audio:     h.audio,
		Clips:     testClips(),
		Subtitles: h.subtitles,
		Scheduler: h.clock,
	}, opts...)
	require.NoError(t, err)
	h.responder = r
	return h
}

func TestNew_RequiresScheduler(t *testing.T) {
	_, err := New(dialogue.DefaultConfig(), Collaborators{})
	assert.Error(t, err)
}

func TestHandleUserText_LockWhileSpeaking(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("hello there"))
	assert.True(t, h.responder.IsSpeaking())
	assert.Equal(t, StateSpeaking, h.responder.State())

	h.clock.Advance(1 * time.Second)
	assert.Equal(t, OutcomeDropped, h.responder.HandleUserText("open the door"))
	assert.Equal(t, "Well met.", h.subtitles.text)

	h.clock.Advance(2100 * time.Millisecond)
	assert.False(t, h.responder.IsSpeaking())
	assert.Equal(t, StateIdle, h.responder.State())
	assert.Equal(t, "", h.subtitles.text)

	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("open the door"))
	assert.Equal(t, "It's locked.", h.subtitles.text)
}

func TestHandleUserText_LockDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.LockWhileSpeaking = false
	h := newHarness(t, cfg)

	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("hello"))
	assert.False(t, h.responder.IsSpeaking(), "lock is never taken when disabled")

	h.clock.Advance(time.Second)
	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("open the door"))
	assert.Equal(t, "It's locked.", h.subtitles.text)

	// The first clip's 3s clear must not fire against the second presentation.
	h.clock.Advance(2500 * time.Millisecond)
	assert.Equal(t, "It's locked.", h.subtitles.text)

	h.clock.Advance(2500 * time.Millisecond)
	assert.Equal(t, "", h.subtitles.text)
}

func TestPresent_PreemptsEarlierPresentation(t *testing.T) {
	h := newHarness(t, testConfig())

	h.responder.Present("greet.wav", "first")
	h.responder.Present("door.wav", "second")
	assert.Equal(t, 2, h.clock.Pending(), "only the second presentation's actions remain")

	h.clock.Advance(3 * time.Second)
	assert.Equal(t, "second", h.subtitles.text)
	assert.True(t, h.responder.IsSpeaking())

	h.clock.Advance(2 * time.Second)
	assert.Equal(t, "", h.subtitles.text)
	assert.False(t, h.responder.IsSpeaking())

	// first shown, cleared by the second Present, second shown, cleared once by its own timer
	assert.Equal(t, []string{"", "first", "", "second", ""}, h.subtitles.history)
}

func TestPresent_AudioCommandOrder(t *testing.T) {
	h := newHarness(t, testConfig())

	h.subtitles.SetText("stale")
	h.responder.Present("greet.wav", "Well met.")

	assert.Equal(t, []string{"stop", "clip:greet.wav", "play"}, h.audio.calls)
	assert.Equal(t, []string{"stale", "", "Well met."}, h.subtitles.history)
	assert.True(t, h.responder.IsSpeaking())
}

func TestPresent_UnknownLengthReleasesImmediately(t *testing.T) {
	h := newHarness(t, testConfig())

	h.responder.Present("unlisted.wav", "Quick one.")

	assert.False(t, h.responder.IsSpeaking())
	assert.Equal(t, "", h.subtitles.text)
	assert.Equal(t, []string{"", "Quick one.", ""}, h.subtitles.history)
	assert.Equal(t, 0, h.clock.Pending())
	assert.Equal(t, []string{"stop", "clip:unlisted.wav", "play"}, h.audio.calls)

	_, ok := h.responder.Session()
	assert.False(t, ok)
}

func TestPresent_MissingAudioHandle(t *testing.T) {
	h := newHarness(t, testConfig())

	h.responder.Present("", "Subtitle only.")

	assert.False(t, h.responder.IsSpeaking())
	assert.Equal(t, []string{"", "Subtitle only.", ""}, h.subtitles.history)
	assert.Equal(t, 0, h.clock.Pending())
}

func TestHandleUserText_FallbackResolution(t *testing.T) {
	tests := []struct {
		name          string
		fallbackAudio dialogue.AudioHandle
		input         string
		outcome       Outcome
		subtitle      string
		audioCalls    []string
	}{
		{
			name:       "matched rule with audio",
			input:      "hi",
			outcome:    OutcomeMatched,
			subtitle:   "Well met.",
			audioCalls: []string{"stop", "clip:greet.wav", "play"},
		},
		{
			name:          "no match uses fallback audio",
			fallbackAudio: "huh.wav",
			input:         "tell me a story",
			outcome:       OutcomeFallback,
			subtitle:      dialogue.DefaultFallbackSubtitle,
			audioCalls:    []string{"stop", "clip:huh.wav", "play"},
		},
		{
			name:          "matched rule without audio uses fallback audio",
			fallbackAudio: "huh.wav",
			input:         "what is the secret",
			outcome:       OutcomeFallback,
			subtitle:      dialogue.DefaultFallbackSubtitle,
			audioCalls:    []string{"stop", "clip:huh.wav", "play"},
		},
		{
			name:     "matched rule without audio and no fallback audio",
			input:    "what is the secret",
			outcome:  OutcomeSubtitleOnly,
			subtitle: dialogue.DefaultFallbackSubtitle,
		},
		{
			name:     "no match and no fallback audio",
			input:    "tell me a story",
			outcome:  OutcomeSubtitleOnly,
			subtitle: dialogue.DefaultFallbackSubtitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.FallbackAudio = tt.fallbackAudio
			h := newHarness(t, cfg)

			assert.Equal(t, tt.outcome, h.responder.HandleUserText(tt.input))
			assert.Equal(t, tt.subtitle, h.subtitles.text)
			assert.Equal(t, tt.audioCalls, h.audio.calls)
		})
	}
}

func TestHandleUserText_SubtitleOnlyForTwoSeconds(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.Equal(t, OutcomeSubtitleOnly, h.responder.HandleUserText("tell me a story"))
	assert.Equal(t, dialogue.DefaultFallbackSubtitle, h.subtitles.text)
	assert.False(t, h.responder.IsSpeaking())

	h.clock.Advance(SubtitleOnlyDuration - time.Millisecond)
	assert.Equal(t, dialogue.DefaultFallbackSubtitle, h.subtitles.text)

	h.clock.Advance(time.Millisecond)
	assert.Equal(t, "", h.subtitles.text)
	assert.Empty(t, h.audio.calls)
}

func TestHandleUserText_SubtitleOnlySupersedesPlayingClip(t *testing.T) {
	cfg := testConfig()
	cfg.LockWhileSpeaking = false
	h := newHarness(t, cfg)

	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("hello"))
	audioCalls := len(h.audio.calls)

	h.clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, OutcomeSubtitleOnly, h.responder.HandleUserText("tell me a story"))
	assert.Equal(t, dialogue.DefaultFallbackSubtitle, h.subtitles.text)

	// The greeting's pending clear and release are dropped; only the
	// fallback line's own clear remains.
	assert.Equal(t, 1, h.clock.Pending())
	_, ok := h.responder.Session()
	assert.False(t, ok)
	assert.Len(t, h.audio.calls, audioCalls, "audio is left playing")

	// 3s mark: the greeting's clear would have fired here.
	h.clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, dialogue.DefaultFallbackSubtitle, h.subtitles.text)

	h.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, "", h.subtitles.text)
	assert.Equal(t, 0, h.clock.Pending())
}

func TestHandleUserText_SubtitleOnlyWithoutSubtitleSink(t *testing.T) {
	clock := schedule.NewManual()
	audio := &fakeAudio{}
	r, err := New(testConfig(), Collaborators{Audio: audio, Scheduler: clock}, WithLogger(testLogger()))
	require.NoError(t, err)

	assert.Equal(t, OutcomeSubtitleOnly, r.HandleUserText("tell me a story"))
	assert.Empty(t, audio.calls)
	assert.Equal(t, 0, clock.Pending())
}

func TestHandleUserText_CaseSensitive(t *testing.T) {
	cfg := testConfig()
	cfg.CaseInsensitive = false
	h := newHarness(t, cfg)

	assert.Equal(t, OutcomeSubtitleOnly, h.responder.HandleUserText("Open The Door"))
	h.clock.Advance(SubtitleOnlyDuration)

	assert.Equal(t, OutcomeMatched, h.responder.HandleUserText("  open the door  "))
}

func TestSubmitText(t *testing.T) {
	h := newHarness(t, testConfig())
	input := &fakeInput{}
	h.responder.Attach(input)
	require.NotNil(t, input.onSubmit)

	input.onSubmit("   ")
	assert.Empty(t, h.audio.calls, "blank input is never matched")
	assert.Empty(t, h.subtitles.history)
	assert.Equal(t, 1, input.cleared)
	assert.Equal(t, 1, input.focused)

	input.onSubmit("hello")
	assert.Equal(t, "Well met.", h.subtitles.text)
	assert.Equal(t, 2, input.cleared)
	assert.Equal(t, 2, input.focused)

	assert.Equal(t, OutcomeDropped, h.responder.SubmitText("hello again"))
	assert.Equal(t, 3, input.cleared, "input is cleared even when dropped")
}

func TestSubmitText_WithoutInputSource(t *testing.T) {
	h := newHarness(t, testConfig())

	assert.Equal(t, OutcomeEmpty, h.responder.SubmitText(""))
	assert.Equal(t, OutcomeMatched, h.responder.SubmitText("hi"))
}

func TestAttachDetach(t *testing.T) {
	h := newHarness(t, testConfig())
	first := &fakeInput{}
	second := &fakeInput{}

	h.responder.Attach(first)
	h.responder.Attach(second)
	assert.True(t, first.unsubscribed, "attaching a new source detaches the old one")
	require.NotNil(t, second.onSubmit)

	h.responder.Detach()
	assert.True(t, second.unsubscribed)

	// After detaching, submissions are not routed to the old surface.
	h.responder.SubmitText("")
	assert.Equal(t, 0, second.cleared)

	h.responder.Detach()
}

func TestSession(t *testing.T) {
	h := newHarness(t, testConfig())

	_, ok := h.responder.Session()
	assert.False(t, ok)

	h.responder.HandleUserText("hello")
	s, ok := h.responder.Session()
	require.True(t, ok)
	assert.Equal(t, dialogue.AudioHandle("greet.wav"), s.Audio)
	assert.Equal(t, "Well met.", s.Subtitle)
	assert.Equal(t, 3*time.Second, s.Duration)
	assert.NotEqual(t, [16]byte{}, [16]byte(s.ID))

	h.clock.Advance(3 * time.Second)
	_, ok = h.responder.Session()
	assert.False(t, ok)
}

func TestConfigIsCopied(t *testing.T) {
	cfg := testConfig()
	h := newHarness(t, cfg)

	cfg.Rules[0].Subtitle = "changed"
	assert.Equal(t, "Well met.", h.responder.Config().Rules[0].Subtitle)

	h.responder.HandleUserText("hello")
	assert.Equal(t, "Well met.", h.subtitles.text)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := newHarness(t, testConfig(), WithMetrics(m))

	h.responder.SubmitText(" ")
	h.responder.HandleUserText("hello")
	h.responder.HandleUserText("hello")
	h.clock.Advance(3 * time.Second)
	h.responder.HandleUserText("tell me a story")
	h.responder.Present("greet.wav", "a")
	h.responder.Present("door.wav", "b")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.inputs.WithLabelValues("test", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inputs.WithLabelValues("test", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inputs.WithLabelValues("test", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inputs.WithLabelValues("test", "subtitle_only")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.presentations.WithLabelValues("test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.preemptions.WithLabelValues("test")))
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "speaking", StateSpeaking.String())
	assert.Equal(t, "unknown", State(9).String())
	assert.Equal(t, "subtitle_only", OutcomeSubtitleOnly.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
