package generate

import (
	"encoding/json"
	"strings"

	"siteulation/internal/models"
)

// StripFences removes markdown code fences the models keep emitting despite
// instructions, including a language tag on the opening fence.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop a language tag like "json" or "html" on the fence line.
		first := strings.TrimSpace(s[:nl])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}<") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Normalize turns raw model output into the canonical files structure. It
// cannot fail: output that is not the target shape (after a list-to-object
// coercion attempt) is wrapped as a single index.html, so every stored
// record parses as {files: [...]} unconditionally.
func Normalize(raw string) models.ProjectFiles {
	s := StripFences(raw)

	var pf models.ProjectFiles
	if err := json.Unmarshal([]byte(s), &pf); err == nil && validFiles(pf.Files) {
		return pf
	}

	// Some models return the array without the wrapping object.
	var files []models.ProjectFile
	if err := json.Unmarshal([]byte(s), &files); err == nil && validFiles(files) {
		return models.ProjectFiles{Files: files}
	}

	return models.ProjectFiles{Files: []models.ProjectFile{
		{Name: "index.html", Content: s},
	}}
}

// EncodeFiles serializes the canonical structure for storage.
func EncodeFiles(pf models.ProjectFiles) string {
	data, _ := json.Marshal(pf)
	return string(data)
}

func validFiles(files []models.ProjectFile) bool {
	if len(files) == 0 {
		return false
	}
	for _, f := range files {
		if f.Name == "" {
			return false
		}
	}
	return true
}
