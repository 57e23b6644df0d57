package controller

import (
	"errors"

	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/dto"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/internal/querycache"
	"admin-dashboard-bff/internal/store"

	"github.com/gofiber/fiber/v2"
)

type ITenantController interface {
	RegisterRoutes(r fiber.Router)
	Workspaces(ctx *fiber.Ctx) error
	RefreshWorkspaces(ctx *fiber.Ctx) error
	Switch(ctx *fiber.Ctx) error
	CreateOrg(ctx *fiber.Ctx) error
	Members(ctx *fiber.Ctx) error
	Invite(ctx *fiber.Ctx) error
	Settings(ctx *fiber.Ctx) error
}

type tenantController struct {
	tenant      *store.TenantStore
	orgSettings *store.OrgSettingsStore
	api         backend.IClient
	cache       *querycache.QueryCache
	log         logger.ILogger
}

func NewTenantController(tenant *store.TenantStore, orgSettings *store.OrgSettingsStore, api backend.IClient, cache *querycache.QueryCache, log logger.ILogger) ITenantController {
	return &tenantController{tenant: tenant, orgSettings: orgSettings, api: api, cache: cache, log: log}
}

func (c *tenantController) RegisterRoutes(r fiber.Router) {
	w := r.Group("/workspaces")
	w.Get("/", c.Workspaces)
	w.Post("/refresh", c.RefreshWorkspaces)
	w.Post("/switch", c.Switch)

	o := r.Group("/orgs")
	o.Post("/", c.CreateOrg)
	o.Get("/members", c.Members)
	o.Post("/invite", c.Invite)
	o.Get("/settings", c.Settings)
}

func (c *tenantController) Workspaces(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Workspace state",
		"data":    workspaceStateResponse(c.tenant.State()),
	})
}

func (c *tenantController) RefreshWorkspaces(ctx *fiber.Ctx) error {
	c.tenant.FetchWorkspaces(ctx.Context())
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Workspaces refreshed",
		"data":    workspaceStateResponse(c.tenant.State()),
	})
}

func (c *tenantController) Switch(ctx *fiber.Ctx) error {
	var req dto.SwitchWorkspaceRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := c.tenant.SwitchWorkspace(req.Slug); err != nil {
		code := fiber.StatusNotFound
		if errors.Is(err, store.ErrSwitchInProgress) {
			code = fiber.StatusConflict
		}
		return ctx.Status(code).JSON(fiber.Map{
			"success": false,
			"code":    code,
			"message": err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Workspace switched",
		"data":    workspaceStateResponse(c.tenant.State()),
	})
}

func (c *tenantController) CreateOrg(ctx *fiber.Ctx) error {
	var req dto.CreateOrgRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	workspace, err := c.api.CreateOrg(ctx.Context(), req.Name, req.Description)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}

	c.cache.InvalidateTags(querycache.TagTenant)
	c.tenant.FetchWorkspaces(ctx.Context())

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Organization created",
		"data":    workspace,
	})
}

func (c *tenantController) Members(ctx *fiber.Ctx) error {
	tenantKey := c.tenant.ActiveTenantKey()
	if tenantKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No active workspace")
	}

	cacheKey := "members:" + tenantKey
	if cached, ok := c.cache.Get(cacheKey); ok {
		return ctx.JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "Organization members",
			"data":    cached,
		})
	}

	members, err := c.api.OrgMembers(ctx.Context(), tenantKey)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}
	c.cache.Set(cacheKey, members, querycache.TagMembers)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Organization members",
		"data":    members,
	})
}

func (c *tenantController) Invite(ctx *fiber.Ctx) error {
	var req dto.InviteMemberRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	tenantKey := c.tenant.ActiveTenantKey()
	if tenantKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No active workspace")
	}

	if err := c.api.AddOrgUser(ctx.Context(), tenantKey, req.Email, req.Role); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	c.cache.InvalidateTags(querycache.TagMembers)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Member invited",
		"data":    nil,
	})
}

func (c *tenantController) Settings(ctx *fiber.Ctx) error {
	tenantKey := c.tenant.ActiveTenantKey()
	if tenantKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "No active workspace")
	}

	cacheKey := "orgSettings:" + tenantKey
	if cached, ok := c.cache.Get(cacheKey); ok {
		return ctx.JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "Organization settings",
			"data":    cached,
		})
	}

	c.orgSettings.SetLoading(true)
	settings, err := c.api.OrgSettings(ctx.Context(), tenantKey)
	if err != nil {
		c.orgSettings.SetError(err)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}
	c.orgSettings.SetOrgSettings(settings)
	c.cache.Set(cacheKey, settings, querycache.TagOrgSettings)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Organization settings",
		"data":    settings,
	})
}

func workspaceStateResponse(state store.TenantState) dto.WorkspaceStateResponse {
	res := dto.WorkspaceStateResponse{
		ActiveTenantKey: state.ActiveTenantKey,
		IsLoading:       state.IsLoading,
		IsInitialized:   state.IsInitialized,
		IsSwitching:     state.IsSwitching,
		Error:           state.Error,
	}
	if state.Workspaces != nil {
		res.Personal = state.Workspaces.Personal
		res.Teams = state.Workspaces.Teams
	}
	return res
}
