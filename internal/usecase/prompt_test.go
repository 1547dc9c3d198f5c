package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_BuildIsDeterministic(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	ctx := []string{"Fever is a rise in temperature.", "Drink fluids."}
	a, err := c.Build(ctx, "What helps a fever?")
	require.NoError(t, err)
	b, err := c.Build(ctx, "What helps a fever?")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Contains(t, a, "Fever is a rise in temperature.\n\nDrink fluids.")
	assert.Contains(t, a, "Question: What helps a fever?")
	assert.Contains(t, a, "don't know")
}

func TestComposer_EmptyContext(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	prompt, err := c.Build(nil, "Is this in the docs?")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Context: \n")
	assert.Contains(t, prompt, "Question: Is this in the docs?")
}

func TestComposer_VerbatimText(t *testing.T) {
	c, err := NewComposer("")
	require.NoError(t, err)

	// text/template does not escape, so markup survives untouched
	passage := `dose < 5mg & "daily" {{not a template}}`
	prompt, err := c.Build([]string{passage}, "<b>why?</b>")
	require.NoError(t, err)
	assert.Contains(t, prompt, passage)
	assert.Contains(t, prompt, "<b>why?</b>")
}

func TestComposer_CustomTemplate(t *testing.T) {
	c, err := NewComposer("Q={{.Question}} C={{.Context}}")
	require.NoError(t, err)

	prompt, err := c.Build([]string{"a", "b"}, "q")
	require.NoError(t, err)
	assert.Equal(t, "Q=q C=a\n\nb", prompt)
}

func TestComposer_RejectsIncompleteTemplate(t *testing.T) {
	_, err := NewComposer("only {{.Question}}")
	assert.Error(t, err)

	_, err = NewComposer("broken {{.Question")
	assert.Error(t, err)

	_, err = NewComposer("{{.Question}} {{.Context}} {{.Missing}}")
	assert.Error(t, err)
}

func TestLoadComposer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("Context:{{.Context}}|Question:{{.Question}}"), 0644))

	c, err := LoadComposer(path)
	require.NoError(t, err)
	prompt, err := c.Build([]string{"ctx"}, "q")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "Context:ctx|"))

	_, err = LoadComposer(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
