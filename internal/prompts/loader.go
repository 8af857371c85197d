// Package prompts loads externalized LLM prompt templates.
// Templates live in JSON files embedded at compile time and use
// {{.Key}} placeholders filled by Format.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

//go:embed *.json
var promptFiles embed.FS

var loadAll = sync.OnceValues(func() (map[string]string, error) {
	entries, err := promptFiles.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded prompts: %w", err)
	}

	all := make(map[string]string)
	for _, entry := range entries {
		data, err := promptFiles.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", entry.Name(), err)
		}
		var prompts map[string]string
		if err := json.Unmarshal(data, &prompts); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", entry.Name(), err)
		}
		for key, prompt := range prompts {
			if _, dup := all[key]; dup {
				return nil, fmt.Errorf("duplicate prompt key %q in %s", key, entry.Name())
			}
			all[key] = prompt
		}
	}
	return all, nil
})

// Get retrieves a prompt template by key.
func Get(key string) (string, error) {
	all, err := loadAll()
	if err != nil {
		return "", err
	}
	prompt, ok := all[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return prompt, nil
}

// MustGet retrieves a prompt template by key, panicking if it is missing.
// Prompt keys are compile-time constants; a missing one is a packaging bug.
func MustGet(key string) string {
	prompt, err := Get(key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces {{.Key}} placeholders in template with values from data.
func Format(template string, data map[string]string) string {
	result := template
	for key, value := range data {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{.%s}}", key), value)
	}
	return result
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 rune, so
// bounded prompt inputs stay valid text.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
