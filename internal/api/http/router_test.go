package http

import (
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-mini/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-mini/internal/auth"
)

func TestRegisterRoutesWiresAllEndpoints(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil),
		Tickets:        handlers.NewTicketsHandler(nil),
		Users:          handlers.NewUsersHandler(nil, nil),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager("secret", 5), nil),
	})

	want := []struct {
		method string
		path   string
	}{
		{"GET", "/health/live"},
		{"GET", "/health/ready"},
		{"GET", "/api/"},
		{"POST", "/api/auth/register"},
		{"POST", "/api/auth/login"},
		{"GET", "/api/auth/profile"},
		{"POST", "/api/tickets"},
		{"GET", "/api/tickets"},
		{"GET", "/api/tickets/:id"},
		{"PATCH", "/api/tickets/:id"},
		{"POST", "/api/tickets/:id/comments"},
		{"GET", "/api/users"},
		{"GET", "/api/users/agents"},
		{"PATCH", "/api/users/:id/role"},
		{"PATCH", "/api/users/:id/deactivate"},
	}

	registered := make(map[string]bool)
	for _, route := range app.GetRoutes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, w := range want {
		if !registered[w.method+" "+w.path] {
			t.Errorf("route %s %s not registered", w.method, w.path)
		}
	}
}
