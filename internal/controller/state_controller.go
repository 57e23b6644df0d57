package controller

import (
	"admin-dashboard-bff/internal/store"

	"github.com/gofiber/fiber/v2"
)

type IStateController interface {
	RegisterRoutes(r fiber.Router)
	Snapshot(ctx *fiber.Ctx) error
	Hydrate(ctx *fiber.Ctx) error
}

type stateController struct {
	session     *store.SessionStore
	tenant      *store.TenantStore
	orgSettings *store.OrgSettingsStore
	documents   *store.DocumentsStore
	hydrator    *store.Hydrator
}

func NewStateController(session *store.SessionStore, tenant *store.TenantStore, orgSettings *store.OrgSettingsStore, documents *store.DocumentsStore, hydrator *store.Hydrator) IStateController {
	return &stateController{
		session:     session,
		tenant:      tenant,
		orgSettings: orgSettings,
		documents:   documents,
		hydrator:    hydrator,
	}
}

func (c *stateController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/state")
	h.Get("/", c.Snapshot)
	h.Post("/hydrate", c.Hydrate)
}

// Snapshot returns the combined store state the dashboard renders from.
func (c *stateController) Snapshot(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "State snapshot",
		"data": fiber.Map{
			"session":     c.session.State(),
			"tenant":      c.tenant.State(),
			"orgSettings": c.orgSettings.State(),
			"documents":   c.documents.State(),
		},
	})
}

type hydrateRequest struct {
	Route          string          `json:"route"`
	InitializeAuth *bool           `json:"initializeAuth"`
	Snapshot       *store.Snapshot `json:"snapshot"`
}

// Hydrate seeds the stores from an optional server-prepared snapshot, then
// kicks auth initialization when the route allows it. Safe to call on every
// dashboard mount.
func (c *stateController) Hydrate(ctx *fiber.Ctx) error {
	var req hydrateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if req.Route == "" {
		req.Route = "/"
	}
	initializeAuth := true
	if req.InitializeAuth != nil {
		initializeAuth = *req.InitializeAuth
	}

	c.hydrator.Run(ctx.UserContext(), req.Snapshot, req.Route, initializeAuth)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Hydrated",
		"data": fiber.Map{
			"session": c.session.State(),
			"tenant":  c.tenant.State(),
		},
	})
}
