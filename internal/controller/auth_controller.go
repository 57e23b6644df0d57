package controller

import (
	"strings"

	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/dto"
	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/internal/identity"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	SignUp(ctx *fiber.Ctx) error
	VerifyOtp(ctx *fiber.Ctx) error
	RegisterOrg(ctx *fiber.Ctx) error
	Session(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	provider identity.IProvider
	session  *store.SessionStore
	tenant   *store.TenantStore
	api      backend.IClient
	log      logger.ILogger
}

func NewAuthController(provider identity.IProvider, session *store.SessionStore, tenant *store.TenantStore, api backend.IClient, log logger.ILogger) IAuthController {
	return &authController{provider: provider, session: session, tenant: tenant, api: api, log: log}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/login", c.Login)
	h.Post("/sign-up", c.SignUp)
	h.Post("/verify-otp", c.VerifyOtp)
	h.Post("/register-org", c.RegisterOrg)
	h.Get("/session", c.Session)
	h.Post("/logout", c.Logout)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// Only allowlisted addresses may sign in; the provider never creates
	// accounts on the login path, so the check happens here, before the OTP
	// goes out.
	allowed, err := c.api.CheckEmailAllowed(ctx.Context(), req.Email)
	if err != nil {
		c.log.Error("auth_controller", "allowlist lookup failed", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"code":    500,
			"message": "Internal server error",
		})
	}
	if !allowed {
		return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"code":    403,
			"message": "Email is not authorized to sign in",
		})
	}

	if err := c.provider.RequestOneTimeCode(ctx.Context(), req.Email); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "One-time code sent",
		"data":    nil,
	})
}

func (c *authController) SignUp(ctx *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	// The identity provider creates the account on first verified code,
	// so sign-up only differs from login in what happens after verify.
	if err := c.provider.RequestOneTimeCode(ctx.Context(), req.Email); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "One-time code sent. Verify it, then register your organization.",
		"data":    nil,
	})
}

func (c *authController) VerifyOtp(ctx *fiber.Ctx) error {
	var req dto.VerifyOtpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	session, err := c.provider.VerifyOneTimeCode(ctx.Context(), req.Email, req.Token)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"code":    401,
			"message": err.Error(),
		})
	}

	// A verified code is the first moment auth can exist on a public route,
	// so finish session initialization here: idempotent if hydration already
	// ran, and otherwise it installs the provider change watcher that later
	// drives sign-out teardown.
	c.session.Initialize(ctx.UserContext())
	c.session.SetIdentity(&session.User)
	go c.tenant.FetchWorkspaces(ctx.UserContext())

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Signed in",
		"data":    sessionResponse(&session.User, c.session.Profile(), session.ExpiresAt),
	})
}

func (c *authController) RegisterOrg(ctx *fiber.Ctx) error {
	user := c.session.Identity()
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Not signed in")
	}

	workspace, err := c.api.RegisterOrg(ctx.Context(), user.Email, user.Id)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"code":    400,
			"message": err.Error(),
		})
	}

	c.tenant.SetActiveTenant(workspace.Slug)
	go c.tenant.FetchWorkspaces(ctx.UserContext())

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Organization registered",
		"data":    workspace,
	})
}

func (c *authController) Session(ctx *fiber.Ctx) error {
	state := c.session.State()
	if state.Identity == nil {
		return ctx.JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "No active session",
			"data":    nil,
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Active session",
		"data":    sessionResponse(state.Identity, state.Profile, 0),
	})
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	if err := c.provider.SignOut(ctx.Context()); err != nil {
		c.log.Warn("auth_controller", "sign-out returned error", map[string]interface{}{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Signed out",
		"data":    nil,
	})
}

func sessionResponse(user *entity.UserIdentity, profile *entity.UserProfile, expiresAt int64) dto.SessionResponse {
	res := dto.SessionResponse{
		UserId:    user.Id,
		Email:     user.Email,
		ExpiresAt: expiresAt,
	}
	if profile != nil {
		res.Name = profile.Name
		res.AvatarURL = profile.AvatarURL
	}
	return res
}
