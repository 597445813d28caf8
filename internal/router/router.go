// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mariamm-maher/graduation-project-BE/internal/handler"
	"github.com/mariamm-maher/graduation-project-BE/internal/realtime"
)

// RegisterRoutes registers routes that do not belong to any feature
// area. Currently that is only the health check used by load balancers
// and monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication and session endpoints.
//
// The public group carries the credential endpoints; the rate limiter
// is applied there so password guessing and refresh hammering hit the
// token bucket before any handler work. Select-role is public too: it
// runs between signup and first login, before the client holds a
// token. The protected group requires a valid access token via jwtAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, o *handler.OAuthHandler, jwtAuth, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/select-role", a.SelectRole)
	g.POST("/refresh-token", a.Refresh, limiter)

	// Google OAuth entry and callback. The callback is where Google
	// redirects the browser back to, so neither route can require a
	// token.
	g.GET("/google", o.GoogleRedirect)
	g.GET("/google/callback", o.GoogleCallback)

	p := e.Group("/api/auth", jwtAuth)
	p.POST("/logout", a.Logout)
	p.POST("/logout-all", a.LogoutAll)
	p.GET("/sessions", a.ListSessions)
	p.DELETE("/sessions/:sessionId", a.RevokeSession)
}

// RegisterRealtime exposes the websocket upgrade endpoint. The gateway
// authenticates the handshake itself so no HTTP middleware is applied.
func RegisterRealtime(e *echo.Echo, gw *realtime.Gateway) {
	e.GET("/ws", gw.Handle)
}
