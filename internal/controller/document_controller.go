package controller

import (
	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/dto"
	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/internal/pkg/logger"
	"admin-dashboard-bff/internal/querycache"
	"admin-dashboard-bff/internal/store"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Train(ctx *fiber.Ctx) error
	Untrain(ctx *fiber.Ctx) error
}

type documentController struct {
	documents *store.DocumentsStore
	tenant    *store.TenantStore
	api       backend.IClient
	cache     *querycache.QueryCache
	log       logger.ILogger
}

func NewDocumentController(documents *store.DocumentsStore, tenant *store.TenantStore, api backend.IClient, cache *querycache.QueryCache, log logger.ILogger) IDocumentController {
	return &documentController{documents: documents, tenant: tenant, api: api, cache: cache, log: log}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Get("/", c.List)
	h.Post("/upload", c.Upload)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/train", c.Train)
	h.Post("/:id/untrain", c.Untrain)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	cacheKey := "documents:" + c.tenant.ActiveTenantKey()
	if _, ok := c.cache.Get(cacheKey); ok && c.documents.IsInitialized() {
		return ctx.JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "Documents",
			"data":    documentListResponse(c.documents.State()),
		})
	}

	c.documents.SetLoading(true)
	docs, err := c.api.ListDocuments(ctx.Context())
	if err != nil {
		c.documents.SetError(err)
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}
	c.documents.SetDocuments(docs)
	c.cache.Set(cacheKey, len(docs), querycache.TagDocuments)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Documents",
		"data":    documentListResponse(c.documents.State()),
	})
}

func documentListResponse(state store.DocumentsState) dto.DocumentListResponse {
	return dto.DocumentListResponse{
		Documents:     state.Documents,
		IsLoading:     state.IsLoading,
		IsInitialized: state.IsInitialized,
		Error:         state.Error,
	}
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable file")
	}
	defer file.Close()

	industry := ctx.FormValue("industry")

	doc, err := c.api.UploadDocument(ctx.Context(), fileHeader.Filename, file, industry)
	if err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}

	c.documents.AddDocument(*doc)
	c.cache.InvalidateTags(querycache.TagDocuments)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Document uploaded",
		"data":    doc,
	})
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.api.DeleteDocument(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}

	c.documents.RemoveDocument(id)
	c.cache.InvalidateTags(querycache.TagDocuments)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Document deleted",
		"data":    nil,
	})
}

func (c *documentController) Train(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.api.TrainDocument(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}

	c.documents.UpdateDocument(id, func(doc *entity.Document) {
		doc.Status = entity.DocumentStatusTraining
	})
	c.cache.InvalidateTags(querycache.TagDocuments)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Training started",
		"data":    nil,
	})
}

func (c *documentController) Untrain(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.api.UntrainDocument(ctx.Context(), id); err != nil {
		return ctx.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"success": false,
			"code":    502,
			"message": err.Error(),
		})
	}

	c.documents.UpdateDocument(id, func(doc *entity.Document) {
		doc.Status = entity.DocumentStatusUploaded
	})
	c.cache.InvalidateTags(querycache.TagDocuments)

	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Training removed",
		"data":    nil,
	})
}
