package generate

import (
	"encoding/json"
	"strings"

	"siteulation/internal/models"
)

const baseInstruction = `You are Siteulation AI. Generate a small web application from the user's prompt.

Respond with ONLY a JSON object of this exact shape, no markdown fences, no commentary:
{"files": [{"name": "index.html", "content": "..."}, ...]}

Rules:
- "files" is an array of {name, content} pairs.
- An "index.html" entry is mandatory; it is the entry point.
- Split CSS and JS into their own files when it helps, referenced with relative paths.
- The app must be fully self-contained and work offline, with no external dependencies.`

const multiplayerInstruction = `
The app is MULTIPLAYER. The page is served with a global "room" variable and an open
WebSocket at /socket. Use this event contract, every message a JSON object with a
"type" and the "room":
- send {"type":"join","room":room} once after the socket opens
- send {"type":"state_update","room":room,"data":{...}} to share state
- send {"type":"chat_message","room":room,"data":{"text":"..."}} for chat
- receive "state_update" and "chat_message" from OTHER players only; the relay never
  echoes your own events back, so apply your own state locally before sending
- receive {"type":"player_joined","player":id} and {"type":"player_left","player":id}
  to track the roster`

const mobileInstruction = `
The app targets MOBILE: set the viewport meta tag, use touch-friendly controls and a
responsive layout that works at 375px width.`

// BuildSystemInstruction assembles the provider-independent system prompt.
func BuildSystemInstruction(multiplayer, mobile bool) string {
	var sb strings.Builder
	sb.WriteString(baseInstruction)
	if multiplayer {
		sb.WriteString(multiplayerInstruction)
	}
	if mobile {
		sb.WriteString(mobileInstruction)
	}
	return sb.String()
}

// BuildUserPrompt combines the prompt with an optional remix payload. A
// payload that parses as the files structure is included as structured
// JSON; anything else is legacy single-file text and goes in verbatim.
func BuildUserPrompt(prompt, remixCode string) string {
	if remixCode == "" {
		return prompt
	}

	var sb strings.Builder
	if pf, err := models.DecodeFiles(remixCode); err == nil && len(pf.Files) > 0 {
		canonical, _ := json.Marshal(pf)
		sb.WriteString("Here is an existing project as a JSON files structure:\n")
		sb.Write(canonical)
		sb.WriteString("\n\nApply this change and return the updated structure: ")
	} else {
		sb.WriteString("Here is an existing single-file app:\n")
		sb.WriteString(remixCode)
		sb.WriteString("\n\nApply this change and return the project as the JSON files structure: ")
	}
	sb.WriteString(prompt)
	return sb.String()
}
