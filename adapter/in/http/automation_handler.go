package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/domain"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/core/port/in"
	"github.com/Mr-Baga08/ai-email-marketing-sub001/pkg/response"
)

// AutomationHandler handles automation lifecycle, run history, human
// review, and feedback requests.
type AutomationHandler struct {
	service in.AutomationService
}

func NewAutomationHandler(service in.AutomationService) *AutomationHandler {
	return &AutomationHandler{service: service}
}

// Register registers automation routes.
func (h *AutomationHandler) Register(router fiber.Router) {
	automation := router.Group("/automation")

	automation.Post("/start", h.Start)
	automation.Post("/stop", h.Stop)
	automation.Get("/status", h.Status)
	automation.Get("/history", h.History)
	automation.Get("/pending", h.PendingReview)
	automation.Post("/pending/:id/send", h.SendHeldResponse)
	automation.Post("/feedback", h.SubmitFeedback)
}

type startRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// Start enables inbox automation for the authenticated user.
// POST /api/v1/automation/start
func (h *AutomationHandler) Start(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	var req startRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "invalid request body")
	}

	if err := h.service.Start(c.Context(), userID, req.IntervalMinutes); err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, fiber.Map{"started": true})
}

// Stop disables inbox automation.
// POST /api/v1/automation/stop
func (h *AutomationHandler) Stop(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	if err := h.service.Stop(c.Context(), userID); err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, fiber.Map{"stopped": true})
}

// Status reports the automation state for the authenticated user.
// GET /api/v1/automation/status
func (h *AutomationHandler) Status(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	status, err := h.service.Status(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, status)
}

// History returns a page of processed-email records, newest first.
// GET /api/v1/automation/history?page=1&page_size=20
func (h *AutomationHandler) History(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	pagination := response.GetPagination(c, 20, 100)
	records, total, err := h.service.History(c.Context(), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.FromError(c, err)
	}

	return response.OKWithMeta(c, records, &response.Meta{
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
		Total:    total,
	})
}

// PendingReview lists responses held for human review.
// GET /api/v1/automation/pending
func (h *AutomationHandler) PendingReview(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	records, err := h.service.PendingReview(c.Context(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, records)
}

type sendHeldRequest struct {
	Text string `json:"text"`
}

// SendHeldResponse releases one held response, optionally with edits.
// POST /api/v1/automation/pending/:id/send
func (h *AutomationHandler) SendHeldResponse(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	emailID := c.Params("id")
	if emailID == "" {
		return response.BadRequest(c, "email id is required")
	}

	var req sendHeldRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return response.BadRequest(c, "invalid request body")
	}

	if err := h.service.SendHeldResponse(c.Context(), userID, emailID, req.Text); err != nil {
		return response.FromError(c, err)
	}
	return response.OK(c, fiber.Map{"sent": true})
}

type feedbackRequest struct {
	AutomatedEmailID string   `json:"automated_email_id"`
	Type             string   `json:"feedback_type"`
	OriginalResponse string   `json:"original_response"`
	ImprovedResponse string   `json:"improved_response"`
	Rating           int      `json:"rating"`
	Notes            string   `json:"notes"`
	Improvements     []string `json:"improvements"`
}

// SubmitFeedback records a review action on a generated response.
// POST /api/v1/automation/feedback
func (h *AutomationHandler) SubmitFeedback(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return response.Unauthorized(c, "authentication required")
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.AutomatedEmailID == "" {
		return response.BadRequest(c, "automated_email_id is required")
	}

	improvements := make([]domain.ImprovementArea, 0, len(req.Improvements))
	for _, area := range req.Improvements {
		improvements = append(improvements, domain.ImprovementArea(area))
	}

	fb := &domain.Feedback{
		Owner:            userID,
		AutomatedEmailID: req.AutomatedEmailID,
		Type:             domain.FeedbackType(req.Type),
		OriginalResponse: req.OriginalResponse,
		ImprovedResponse: req.ImprovedResponse,
		Rating:           req.Rating,
		Notes:            req.Notes,
		Improvements:     improvements,
	}

	if err := h.service.SubmitFeedback(c.Context(), fb); err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, fb)
}
