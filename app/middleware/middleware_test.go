package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"inventory-sync-service/config"
	"inventory-sync-service/pkg"
	"inventory-sync-service/pkg/ctxutil"
)

const secret = "test-secret"

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Post("/write", Auth(secret), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Post("/internal", AuthInternal(&config.Config{InternalAuthHeader: "s3cret"}), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuth(t *testing.T) {
	c := qt.New(t)
	app := newAuthApp()

	valid, err := pkg.NewJwtToken(3, secret, time.Minute)
	c.Assert(err, qt.IsNil)
	wrongKey, err := pkg.NewJwtToken(3, "other", time.Minute)
	c.Assert(err, qt.IsNil)
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{}).SignedString([]byte(secret))
	c.Assert(err, qt.IsNil)

	tests := []struct {
		about  string
		header string
		status int
	}{{
		about:  "valid token",
		header: "Bearer " + valid,
		status: fiber.StatusNoContent,
	}, {
		about:  "missing header",
		status: fiber.StatusUnauthorized,
	}, {
		about:  "wrong signing key",
		header: "Bearer " + wrongKey,
		status: fiber.StatusUnauthorized,
	}, {
		about:  "token without uid",
		header: "Bearer " + noUser,
		status: fiber.StatusUnauthorized,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			req := httptest.NewRequest(fiber.MethodPost, "/write", nil)
			if test.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, test.header)
			}
			resp, err := app.Test(req)
			c.Assert(err, qt.IsNil)
			c.Assert(resp.StatusCode, qt.Equals, test.status)
		})
	}
}

func TestAuthInternal(t *testing.T) {
	c := qt.New(t)
	app := newAuthApp()

	for header, status := range map[string]int{
		"s3cret": fiber.StatusNoContent,
		"wrong":  fiber.StatusUnauthorized,
		"":       fiber.StatusUnauthorized,
	} {
		req := httptest.NewRequest(fiber.MethodPost, "/internal", nil)
		if header != "" {
			req.Header.Set(string(AuthInternalHeaderKey), header)
		}
		resp, err := app.Test(req)
		c.Assert(err, qt.IsNil)
		c.Assert(resp.StatusCode, qt.Equals, status, qt.Commentf("header %q", header))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	c := qt.New(t)
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(ctxutil.RequestIDKey).(string))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	resp, err := app.Test(req)
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Header.Get(RequestIDHeader), qt.Equals, "given")

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Header.Get(RequestIDHeader), qt.HasLen, 36)
}
