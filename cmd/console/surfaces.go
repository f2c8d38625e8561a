package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
	"github.com/jwebster45206/npc-responder/pkg/responder"
	"github.com/jwebster45206/npc-responder/pkg/schedule"
)

// inputBox adapts a bubbles textarea to responder.InputSource.
type inputBox struct {
	model    textarea.Model
	onSubmit func(string)
}

var _ responder.InputSource = (*inputBox)(nil)

func newInputBox() *inputBox {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 280
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	return &inputBox{model: ta}
}

func (b *inputBox) Subscribe(onSubmit func(string)) { b.onSubmit = onSubmit }
func (b *inputBox) Unsubscribe()                    { b.onSubmit = nil }
func (b *inputBox) Clear()                          { b.model.Reset() }
func (b *inputBox) Focus()                          { b.model.Focus() }

// update feeds msg to the text input and fires the submit event on enter.
func (b *inputBox) update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		if b.onSubmit != nil {
			b.onSubmit(b.model.Value())
		}
		return nil
	}
	var cmd tea.Cmd
	b.model, cmd = b.model.Update(msg)
	return cmd
}

func (b *inputBox) setWidth(w int) {
	b.model.SetWidth(w)
}

func (b *inputBox) view() string {
	return b.model.View()
}

// subtitlePanel holds the line currently on screen.
type subtitlePanel struct {
	text string
	last string // most recent non-empty line, for copying
}

var _ responder.SubtitleSink = (*subtitlePanel)(nil)

func (p *subtitlePanel) SetText(text string) {
	p.text = text
	if text != "" {
		p.last = text
	}
}

// terminalAudio stands in for an audio device: it tracks which clip is
// playing against the virtual clock and renders that as a status line.
type terminalAudio struct {
	clock   *schedule.Manual
	clips   responder.ClipLibrary
	clip    dialogue.AudioHandle
	playing bool
	started time.Duration
}

var _ responder.AudioSink = (*terminalAudio)(nil)

func (a *terminalAudio) Stop()                          { a.playing = false }
func (a *terminalAudio) SetClip(h dialogue.AudioHandle) { a.clip = h }
func (a *terminalAudio) Play() {
	if a.clip.IsZero() {
		return
	}
	a.playing = true
	a.started = a.clock.Now()
}

func (a *terminalAudio) status() string {
	if !a.playing {
		return "♪ silent"
	}
	elapsed := a.clock.Now() - a.started
	length, ok := a.clips.Length(a.clip)
	if !ok {
		return fmt.Sprintf("♪ %s (length unknown)", a.clip)
	}
	if elapsed >= length {
		a.playing = false
		return "♪ silent"
	}
	return fmt.Sprintf("♪ %s %.1fs / %.1fs", a.clip, elapsed.Seconds(), length.Seconds())
}
