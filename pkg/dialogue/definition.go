package dialogue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// ClipTable maps audio handles to clip lengths in milliseconds. It stands in
// for an audio engine's clip metadata when the host has none of its own.
type ClipTable map[AudioHandle]int

// Length returns the clip length for h, and false when it is unknown.
func (t ClipTable) Length(h AudioHandle) (time.Duration, bool) {
	ms, ok := t[h]
	if !ok || ms < 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Definition is a stored NPC responder: its identity, its rule table and the
// clip lengths for the audio it references.
type Definition struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Config
	ClipLengths ClipTable `json:"clip_lengths_ms,omitempty"`
}

// NewDefinition returns an empty definition with default options applied.
func NewDefinition(id string) *Definition {
	return &Definition{
		ID:     id,
		Config: DefaultConfig(),
	}
}

// DecodeDefinition parses a JSON definition. Absent fields keep their
// defaults. In strict mode unknown top-level fields are rejected.
func DecodeDefinition(data []byte, strict bool) (*Definition, error) {
	def := NewDefinition("")
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(def); err != nil {
		return nil, fmt.Errorf("failed to decode responder definition: %w", err)
	}
	if def.ClipLengths == nil {
		def.ClipLengths = ClipTable{}
	}
	return def, nil
}

// AudioReferences lists every non-empty audio handle the definition uses,
// fallback first, without duplicates.
func (d *Definition) AudioReferences() []AudioHandle {
	seen := make(map[AudioHandle]bool)
	var refs []AudioHandle
	add := func(h AudioHandle) {
		if h.IsZero() || seen[h] {
			return
		}
		seen[h] = true
		refs = append(refs, h)
	}
	add(d.FallbackAudio)
	for _, r := range d.Rules {
		add(r.Audio)
	}
	return refs
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// IsValidID reports whether id is lowercase snake_case, the form used for
// responder IDs and their file names.
func IsValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
