package handlers

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"siteulation/internal/models"
	"siteulation/internal/supabase"
)

// ServeSPA is the catch-all: API misses get a JSON 404, everything else
// gets index.html with the public environment injected, so client-side
// routing works on any path.
func (h *Handler) ServeSPA(c *fiber.Ctx) error {
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": fmt.Sprintf("API Endpoint not found: %s", c.Path())})
	}

	content, err := os.ReadFile(h.cfg.IndexFile)
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("index.html not found")
	}

	c.Type("html")
	return c.SendString(h.injectEnv(string(content)))
}

// injectEnv exposes the project URL and the PUBLIC anon key to the
// browser. The service key never goes anywhere near this.
func (h *Handler) injectEnv(markup string) string {
	script := fmt.Sprintf(`<script>
  window.env = {
    SUPABASE_URL: %q,
    SUPABASE_KEY: %q
  };
</script>
`, h.cfg.SupabaseURL, h.cfg.SupabaseAnonKey)
	return strings.Replace(markup, "</head>", script+"</head>", 1)
}

// Preview serves the social-preview shell for a cart: the computed title
// and description land in the og meta tags so link unfurls show something
// useful.
func (h *Handler) Preview(c *fiber.Ctx) error {
	cart, err := h.db.GetCart(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Cart not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load cart")
	}

	description := cart.Prompt
	if len(description) > 160 {
		description = description[:160]
	}

	return c.Render("preview", fiber.Map{
		"Title":       cart.Name,
		"Description": description,
		"ID":          cart.ID,
	})
}

// ServeCartFile serves a single file of a generated project. index.html
// gets the room id injected so multiplayer apps know which room to join.
func (h *Handler) ServeCartFile(c *fiber.Ctx) error {
	id := c.Params("id")
	name := c.Params("*")
	if name == "" {
		name = "index.html"
	}
	name = path.Clean(name)

	cart, err := h.db.GetCart(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Cart not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load cart")
	}

	files, err := models.DecodeFiles(cart.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Stored project is corrupted")
	}

	for _, f := range files.Files {
		if f.Name != name {
			continue
		}
		content := f.Content
		if name == "index.html" {
			room := fmt.Sprintf("<script>window.room = %q;</script>\n", id)
			if strings.Contains(content, "<head>") {
				content = strings.Replace(content, "<head>", "<head>\n"+room, 1)
			} else {
				content = room + content
			}
		}
		c.Type(strings.TrimPrefix(path.Ext(name), "."))
		return c.SendString(content)
	}
	return c.Status(fiber.StatusNotFound).SendString("File not found")
}
