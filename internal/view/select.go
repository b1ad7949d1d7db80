// Package view implements entry selection for the retrieval tools. The
// core is a pure filter over the store's key list; the interactive
// prompt is a thin adapter on top of it.
package view

import (
	"fmt"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/aa08453/spectra/internal/errors"
)

// Filter resolves user picks against the full key list. It preserves the
// order of the picks, drops duplicates, and rejects unknown keys and
// empty selections.
func Filter(keys, picks []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, errors.ErrEmptyStore
	}

	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}

	var selected []string
	seen := make(map[string]bool)

	for _, pick := range picks {
		pick = strings.TrimSpace(pick)
		if pick == "" {
			continue
		}
		if !known[pick] {
			return nil, errors.NewNotFound("sample", pick)
		}
		if seen[pick] {
			continue
		}
		seen[pick] = true
		selected = append(selected, pick)
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no samples selected")
	}

	return selected, nil
}

// PromptSelect interactively collects a subset of keys. Each prompt
// completes over the keys not yet chosen; an empty line finishes the
// selection.
func PromptSelect(keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, errors.ErrEmptyStore
	}

	fmt.Println("Available samples:")
	for _, k := range keys {
		fmt.Printf("  - %s\n", k)
	}
	fmt.Println("Pick samples one per line (TAB completes, empty line finishes):")

	chosen := make(map[string]bool)
	var picks []string

	for {
		remaining := make([]prompt.Suggest, 0, len(keys))
		for _, k := range keys {
			if !chosen[k] {
				remaining = append(remaining, prompt.Suggest{Text: k})
			}
		}
		if len(remaining) == 0 {
			break
		}

		completer := func(d prompt.Document) []prompt.Suggest {
			return prompt.FilterContains(remaining, d.GetWordBeforeCursor(), true)
		}

		line := prompt.Input("> ", completer)
		if strings.TrimSpace(line) == "" {
			break
		}

		picks = append(picks, line)
		chosen[strings.TrimSpace(line)] = true
	}

	return Filter(keys, picks)
}
