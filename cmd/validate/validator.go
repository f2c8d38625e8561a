package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/npc-responder/pkg/dialogue"
)

// DefinitionValidator checks responder definition files. Errors reject the
// file; warnings flag rules that load fine but can never do anything useful.
type DefinitionValidator struct {
	errors   []string
	warnings []string
}

func (v *DefinitionValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("responder file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !dialogue.IsValidID(nameWithoutExt) {
		return fmt.Errorf("responder filename '%s' must be lowercase snake_case (e.g., old_sailor.json, not old-sailor.json or OldSailor.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	return v.validateData(nameWithoutExt, data)
}

func (v *DefinitionValidator) validateData(expectedID string, data []byte) error {
	v.errors = nil
	v.warnings = nil

	if !json.Valid(data) {
		return fmt.Errorf("%s contains invalid JSON", expectedID)
	}

	def, err := dialogue.DecodeDefinition(data, true)
	if err != nil {
		return fmt.Errorf("%s failed strict JSON unmarshaling: %w", expectedID, err)
	}

	v.validateDefinition(def, expectedID)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", expectedID, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *DefinitionValidator) validateDefinition(def *dialogue.Definition, expectedID string) {
	switch {
	case def.ID == "":
		v.addError("id is required")
	case !dialogue.IsValidID(def.ID):
		v.addError(fmt.Sprintf("id '%s' should be lowercase snake_case", def.ID))
	case expectedID != "" && def.ID != expectedID:
		v.addError(fmt.Sprintf("id '%s' does not match file name '%s'", def.ID, expectedID))
	}

	if def.FallbackAudio.IsZero() && strings.TrimSpace(def.FallbackSubtitle) == "" {
		v.addWarning("no fallback audio and an empty fallback subtitle: unmatched input shows nothing")
	}

	seen := make(map[string]int)
	for i, rule := range def.Rules {
		v.validateRule(i, rule, seen)
	}

	for handle, ms := range def.ClipLengths {
		if ms < 0 {
			v.addError(fmt.Sprintf("clip '%s' has negative length %dms", handle, ms))
		}
	}
	for _, handle := range def.AudioReferences() {
		if _, ok := def.ClipLengths[handle]; !ok {
			v.addWarning(fmt.Sprintf("audio '%s' has no clip length: it will present with zero duration", handle))
		}
	}
}

func (v *DefinitionValidator) validateRule(i int, rule dialogue.ResponseRule, seen map[string]int) {
	label := fmt.Sprintf("rule %d (%s)", i, rule.ID)

	if prev, dup := seen[rule.ID]; dup {
		v.addWarning(fmt.Sprintf("%s shares its id with rule %d", label, prev))
	} else {
		seen[rule.ID] = i
	}

	if !rule.HasKeywords() {
		v.addWarning(fmt.Sprintf("%s has no keywords and will never match", label))
		return
	}

	if rule.ExactMatch {
		if strings.TrimSpace(strings.Join(rule.Keywords, " ")) == "" {
			v.addWarning(fmt.Sprintf("%s is an exact match on blank text and will never match", label))
		}
	} else {
		usable := 0
		for _, k := range rule.Keywords {
			if k != "" {
				usable++
			}
		}
		if usable == 0 {
			v.addWarning(fmt.Sprintf("%s has only empty keywords and will never match", label))
		}
	}

	if rule.Audio.IsZero() {
		v.addWarning(fmt.Sprintf("%s has no audio: the fallback plays instead", label))
	}
}

func (v *DefinitionValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *DefinitionValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  warning: "+msg)
}
