package dialogue

import (
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/jwebster45206/npc-responder/pkg/textfilter"
)

// Matcher selects the best response rule for a line of player input.
// It is built once from a rule table and reused for every input.
type Matcher struct {
	rules           []compiledRule
	caseInsensitive bool
}

type compiledRule struct {
	rule ResponseRule

	// exact mode
	target string

	// substring mode; searchable is false when every keyword was empty
	ac         *ahocorasick.Automaton
	searchable bool
}

// Compile prepares rules for repeated selection. Rules without keywords are
// dropped here since they can never match. Rule order is preserved.
func Compile(rules []ResponseRule, caseInsensitive bool) (*Matcher, error) {
	m := &Matcher{
		rules:           make([]compiledRule, 0, len(rules)),
		caseInsensitive: caseInsensitive,
	}

	for _, r := range rules {
		if !r.HasKeywords() {
			continue
		}

		c := compiledRule{rule: r}
		if r.ExactMatch {
			c.target = textfilter.FoldIf(strings.Join(r.Keywords, " "), caseInsensitive)
		} else {
			patterns := make([]string, 0, len(r.Keywords))
			for _, k := range r.Keywords {
				if k == "" {
					continue
				}
				patterns = append(patterns, textfilter.FoldIf(k, caseInsensitive))
			}
			if len(patterns) > 0 {
				ac, err := ahocorasick.NewBuilder().AddStrings(patterns).Build()
				if err != nil {
					return nil, fmt.Errorf("failed to compile keywords for rule %q: %w", r.ID, err)
				}
				c.ac = ac
				c.searchable = true
			}
		}
		m.rules = append(m.rules, c)
	}

	return m, nil
}

// Select returns the highest-priority rule matching input. Among matches at
// the same priority the one appearing last in the table wins. Empty input
// never matches.
func (m *Matcher) Select(input string) (ResponseRule, bool) {
	text := textfilter.Normalize(input, m.caseInsensitive)
	if text == "" {
		return ResponseRule{}, false
	}

	var (
		best         ResponseRule
		bestPriority int
		found        bool
	)
	for i := range m.rules {
		c := &m.rules[i]
		if !c.matches(text) {
			continue
		}
		// >= keeps the last match at a tied priority.
		if !found || c.rule.Priority >= bestPriority {
			best = c.rule
			bestPriority = c.rule.Priority
			found = true
		}
	}

	return best, found
}

func (c *compiledRule) matches(text string) bool {
	if c.rule.ExactMatch {
		return text == c.target
	}
	if !c.searchable {
		return false
	}
	return c.ac.IsMatch([]byte(text))
}

// SelectRule is the one-shot form of Compile followed by Select.
func SelectRule(input string, rules []ResponseRule, caseInsensitive bool) (ResponseRule, bool, error) {
	m, err := Compile(rules, caseInsensitive)
	if err != nil {
		return ResponseRule{}, false, err
	}
	rule, ok := m.Select(input)
	return rule, ok, nil
}
