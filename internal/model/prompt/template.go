package prompt

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Placeholder names with a fixed meaning across all templates.
const (
	VarUserInput = "user_input"
	VarContext   = "context"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// RenderError reports required template variables that were absent at
// render time.
type RenderError struct {
	Missing []string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("prompt render: missing required variables: %s", strings.Join(e.Missing, ", "))
}

// Template is a parsed prompt template. Placeholders are classified as
// required or optional once, at parse time; rendering is a pure function
// of its arguments.
type Template struct {
	text     string
	names    []string
	optional map[string]bool
	tpl      einoprompt.ChatTemplate
}

// ParseTemplate scans text for {name} placeholders and classifies them.
// The knowledge context placeholder is always optional; any name listed in
// optional is too; everything else is required.
func ParseTemplate(text string, optional ...string) *Template {
	opt := map[string]bool{VarContext: true}
	for _, name := range optional {
		opt[name] = true
	}

	seen := map[string]bool{}
	names := make([]string, 0, 4)
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	return &Template{
		text:     text,
		names:    names,
		optional: opt,
		tpl:      einoprompt.FromMessages(schema.FString, schema.UserMessage(text)),
	}
}

// Vars returns the placeholder names found in the template.
func (t *Template) Vars() []string {
	return append([]string(nil), t.names...)
}

// Render substitutes userInput, the optional knowledge context and any
// extra variables into the template. Optional placeholders without a value
// resolve to the empty string and append a warning; missing required
// placeholders fail with a RenderError. No I/O is performed.
func (t *Template) Render(userInput, knowledgeContext string, extra map[string]string, warnings *[]string) (string, error) {
	vars := map[string]any{}
	var missing []string

	for _, name := range t.names {
		switch {
		case name == VarUserInput:
			vars[name] = userInput
		case name == VarContext:
			vars[name] = knowledgeContext
			if knowledgeContext == "" {
				warn(warnings, "no knowledge context supplied, the context placeholder renders empty")
			}
		default:
			if value, ok := extra[name]; ok {
				vars[name] = value
			} else if t.optional[name] {
				vars[name] = ""
				warn(warnings, fmt.Sprintf("optional variable %q not supplied, rendered empty", name))
			} else {
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &RenderError{Missing: missing}
	}
	if strings.TrimSpace(userInput) == "" {
		warn(warnings, "user input is empty")
	}

	messages, err := t.tpl.Format(context.Background(), vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("prompt render: template produced no output")
	}
	return messages[0].Content, nil
}

func warn(warnings *[]string, message string) {
	if warnings != nil {
		*warnings = append(*warnings, message)
	}
}
