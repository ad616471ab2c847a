package generate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteulation/internal/models"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fences", `{"files":[]}`, `{"files":[]}`},
		{"plain fences", "```\n{\"files\":[]}\n```", `{"files":[]}`},
		{"language tag", "```json\n{\"files\":[]}\n```", `{"files":[]}`},
		{"html tag", "```html\n<h1>hi</h1>\n```", "<h1>hi</h1>"},
		{"surrounding whitespace", "  ```json\n{}\n```  ", "{}"},
		{"content starting with brace on fence line", "```{\"files\":[]}\n```", `{"files":[]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripFences(tc.in))
		})
	}
}

func TestNormalizeStructuredOutput(t *testing.T) {
	raw := `{"files":[{"name":"index.html","content":"<h1>hi</h1>"},{"name":"app.js","content":"x"}]}`
	pf := Normalize(raw)

	require.Len(t, pf.Files, 2)
	assert.Equal(t, "index.html", pf.Files[0].Name)
	assert.Equal(t, "app.js", pf.Files[1].Name)
}

func TestNormalizeCoercesBareArray(t *testing.T) {
	raw := `[{"name":"index.html","content":"<h1>hi</h1>"}]`
	pf := Normalize(raw)

	require.Len(t, pf.Files, 1)
	assert.Equal(t, "index.html", pf.Files[0].Name)
}

func TestNormalizeWrapsNonConformingOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"raw html", "<!DOCTYPE html><html><body>hi</body></html>"},
		{"prose", "Sorry, I cannot do that."},
		{"empty files array", `{"files":[]}`},
		{"file without a name", `{"files":[{"name":"","content":"x"}]}`},
		{"fenced html", "```html\n<h1>hi</h1>\n```"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pf := Normalize(tc.raw)
			require.Len(t, pf.Files, 1)
			assert.Equal(t, "index.html", pf.Files[0].Name, "fallback always yields an index.html entry")
		})
	}
}

// Every stored record must parse back as the canonical structure,
// whatever the model produced.
func TestNormalizeEncodeRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`{"files":[{"name":"index.html","content":"<p>ok</p>"}]}`,
		"just some text",
	} {
		encoded := EncodeFiles(Normalize(raw))

		pf, err := models.DecodeFiles(encoded)
		require.NoError(t, err)
		require.NotEmpty(t, pf.Files)

		var shape struct {
			Files []json.RawMessage `json:"files"`
		}
		require.NoError(t, json.Unmarshal([]byte(encoded), &shape))
	}
}
