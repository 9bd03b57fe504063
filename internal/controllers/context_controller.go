package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/prodpilot/prodpilot/internal/managers"
)

const sessionCookieName = "pp_session"

// ContextController manages per-session scratch context: uploaded feedback
// text and product documentation the assistant reads on every message.
type ContextController struct {
	contexts *managers.SessionContextManager
}

type ContextControllerDependencies struct {
	Contexts *managers.SessionContextManager
}

func NewContextController(deps ContextControllerDependencies) *ContextController {
	return &ContextController{contexts: deps.Contexts}
}

// sessionID reads the session cookie, minting one on first contact.
func (ctrl *ContextController) sessionID(c fiber.Ctx) string {
	if id := c.Cookies(sessionCookieName); id != "" {
		return id
	}

	id := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 365,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return id
}

type contextDocumentRequest struct {
	Text string `json:"text"`
}

func (ctrl *ContextController) SetFeedback(c fiber.Ctx) error {
	var req contextDocumentRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	ctrl.contexts.SetFeedback(ctrl.sessionID(c), req.Text)
	return c.JSON(fiber.Map{
		"ok":        true,
		"charCount": len(req.Text),
		"lineCount": strings.Count(req.Text, "\n") + 1,
	})
}

func (ctrl *ContextController) GetFeedback(c fiber.Ctx) error {
	text, ok := ctrl.contexts.Feedback(ctrl.sessionID(c))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No feedback uploaded"})
	}
	return c.JSON(fiber.Map{
		"feedbackText": text,
		"charCount":    len(text),
		"lineCount":    strings.Count(text, "\n") + 1,
	})
}

func (ctrl *ContextController) ClearFeedback(c fiber.Ctx) error {
	ctrl.contexts.ClearFeedback(ctrl.sessionID(c))
	return c.JSON(fiber.Map{"ok": true})
}

func (ctrl *ContextController) SetProductDoc(c fiber.Ctx) error {
	var req contextDocumentRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	ctrl.contexts.SetProductDoc(ctrl.sessionID(c), req.Text)
	return c.JSON(fiber.Map{"ok": true, "charCount": len(req.Text)})
}

func (ctrl *ContextController) GetProductDoc(c fiber.Ctx) error {
	text, ok := ctrl.contexts.ProductDoc(ctrl.sessionID(c))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No product documentation uploaded"})
	}
	return c.JSON(fiber.Map{"productDocumentation": text, "charCount": len(text)})
}

func (ctrl *ContextController) ClearProductDoc(c fiber.Ctx) error {
	ctrl.contexts.ClearProductDoc(ctrl.sessionID(c))
	return c.JSON(fiber.Map{"ok": true})
}
