package dialogue

import "encoding/json"

const (
	DefaultRuleID           = "greeting"
	DefaultRuleSubtitle     = "Hello!"
	DefaultFallbackSubtitle = "Huh? Can you say that again?"
)

// AudioHandle is an opaque reference to an audio asset owned by the host.
// The empty handle means "no audio".
type AudioHandle string

// IsZero reports whether the handle refers to no audio at all.
func (h AudioHandle) IsZero() bool {
	return h == ""
}

// ResponseRule maps a keyword pattern to an audio + subtitle response.
type ResponseRule struct {
	ID         string      `json:"id"`                    // label only, never matched on
	Keywords   []string    `json:"keywords"`              // no keywords means the rule never matches
	ExactMatch bool        `json:"exact_match,omitempty"` // input must equal the space-joined keywords
	Audio      AudioHandle `json:"audio,omitempty"`
	Subtitle   string      `json:"subtitle"`
	Priority   int         `json:"priority,omitempty"`
}

// NewResponseRule returns a rule carrying the authoring defaults.
func NewResponseRule() ResponseRule {
	return ResponseRule{
		ID:       DefaultRuleID,
		Subtitle: DefaultRuleSubtitle,
	}
}

// UnmarshalJSON fills absent fields with the authoring defaults.
func (r *ResponseRule) UnmarshalJSON(data []byte) error {
	type plain ResponseRule
	p := plain(NewResponseRule())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = ResponseRule(p)
	return nil
}

// HasKeywords reports whether the rule can ever match.
func (r ResponseRule) HasKeywords() bool {
	return len(r.Keywords) > 0
}

// Config is the responder configuration, fixed once a responder is built.
type Config struct {
	Rules             []ResponseRule `json:"rules"`
	FallbackAudio     AudioHandle    `json:"fallback_audio,omitempty"`
	FallbackSubtitle  string         `json:"fallback_subtitle"`
	CaseInsensitive   bool           `json:"case_insensitive"`
	LockWhileSpeaking bool           `json:"lock_while_speaking"`
}

// DefaultConfig returns a configuration with no rules and the default
// fallback subtitle, case-insensitive matching and the speaking lock on.
func DefaultConfig() Config {
	return Config{
		FallbackSubtitle:  DefaultFallbackSubtitle,
		CaseInsensitive:   true,
		LockWhileSpeaking: true,
	}
}
