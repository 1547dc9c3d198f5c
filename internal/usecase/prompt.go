package usecase

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/answer_prompt.txt
var defaultPromptTemplate string

const passageSeparator = "\n\n"

// Composer merges retrieved context and a question into a model prompt.
// It is immutable after construction and safe for concurrent use.
type Composer struct {
	tmpl *template.Template
}

type promptData struct {
	Context  string
	Question string
}

// NewComposer parses text as the prompt template. An empty text selects the
// built-in template. The template must use both {{.Context}} and {{.Question}}.
func NewComposer(text string) (*Composer, error) {
	if strings.TrimSpace(text) == "" {
		text = defaultPromptTemplate
	}

	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	c := &Composer{tmpl: tmpl}

	probe, err := c.Build([]string{"\x00context\x00"}, "\x00question\x00")
	if err != nil {
		return nil, err
	}
	if !strings.Contains(probe, "\x00context\x00") || !strings.Contains(probe, "\x00question\x00") {
		return nil, fmt.Errorf("prompt template must reference both {{.Context}} and {{.Question}}")
	}

	return c, nil
}

// LoadComposer reads the template from path, or uses the built-in one when
// path is empty.
func LoadComposer(path string) (*Composer, error) {
	if path == "" {
		return NewComposer("")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return NewComposer(string(data))
}

// Build renders the prompt. Passages are joined with a blank line; an empty
// context leaves the context slot empty. Nothing is truncated.
func (c *Composer) Build(context []string, question string) (string, error) {
	var sb strings.Builder
	err := c.tmpl.Execute(&sb, promptData{
		Context:  strings.Join(context, passageSeparator),
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
