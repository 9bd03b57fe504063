package controllers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/prodpilot/prodpilot/internal/vault"
)

// fiberJar adapts a fiber request context to the vault's cookie jar. Reads
// come from the request, writes go onto the response.
type fiberJar struct {
	ctx fiber.Ctx
}

func newCookieJar(ctx fiber.Ctx) vault.CookieJar {
	return &fiberJar{ctx: ctx}
}

func (j *fiberJar) Get(name string) (string, bool) {
	value := j.ctx.Cookies(name)
	return value, value != ""
}

func (j *fiberJar) Set(c vault.Cookie) {
	cookie := &fiber.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     "/",
		MaxAge:   c.MaxAge,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if c.MaxAge <= 0 {
		cookie.Value = ""
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	j.ctx.Cookie(cookie)
}
