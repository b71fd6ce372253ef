package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/in"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/response"
)

// KnowledgeHandler handles knowledge-base CRUD and bulk import.
type KnowledgeHandler struct {
	service in.KnowledgeService
}

func NewKnowledgeHandler(service in.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{service: service}
}

// Register registers knowledge routes.
func (h *KnowledgeHandler) Register(router fiber.Router) {
	knowledge := router.Group("/knowledge")

	knowledge.Get("/", h.List)
	knowledge.Post("/", h.Create)
	knowledge.Put("/:id", h.Update)
	knowledge.Delete("/:id", h.Delete)
	knowledge.Post("/import", h.BulkImport)
}

type chunkRequest struct {
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// List returns all knowledge chunks for the authenticated user.
// GET /api/v1/knowledge
func (h *KnowledgeHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	chunks, err := h.service.List(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, chunks)
}

// Create adds one knowledge chunk.
// POST /api/v1/knowledge
func (h *KnowledgeHandler) Create(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	var req chunkRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	chunk := &domain.KnowledgeChunk{
		Owner:    userID,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}
	if err := h.service.Create(c.Context(), chunk); err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, chunk)
}

// Update replaces one knowledge chunk's content and metadata.
// PUT /api/v1/knowledge/:id
func (h *KnowledgeHandler) Update(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return response.BadRequest(c, "chunk id is required")
	}

	var req chunkRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	chunk := &domain.KnowledgeChunk{
		ID:       id,
		Owner:    userID,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}
	if err := h.service.Update(c.Context(), chunk); err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, chunk)
}

// Delete removes one knowledge chunk.
// DELETE /api/v1/knowledge/:id
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	id := c.Params("id")
	if id == "" {
		return response.BadRequest(c, "chunk id is required")
	}

	if err := h.service.Delete(c.Context(), userID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

type bulkImportRequest struct {
	Contents []string `json:"contents"`
	Category string   `json:"category"`
}

// BulkImport creates one chunk per content entry.
// POST /api/v1/knowledge/import
func (h *KnowledgeHandler) BulkImport(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	var req bulkImportRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(req.Contents) == 0 {
		return response.BadRequest(c, "contents is required")
	}

	imported, err := h.service.BulkImport(c.Context(), userID, req.Contents, req.Category)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, fiber.Map{"imported": imported})
}
