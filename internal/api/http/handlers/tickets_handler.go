package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-mini/internal/api/dto"
	"github.com/spec-kit/helpdesk-mini/internal/auth"
	"github.com/spec-kit/helpdesk-mini/internal/domain"
	"github.com/spec-kit/helpdesk-mini/internal/service"
	apperrors "github.com/spec-kit/helpdesk-mini/pkg/errorutil"
)

// TicketsHandler exposes the lifecycle engine over HTTP.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	}
	if key := c.Get("Idempotency-Key"); key != "" {
		input.IdempotencyKey = &key
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ticket": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.TicketListInput{
		Limit:  parseInt(c.Query("limit"), 10),
		Offset: parseInt(c.Query("offset"), 0),
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		input.Search = &q
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}

	page, err := h.service.ListTickets(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Items:      items,
		Total:      page.Total,
		NextOffset: page.NextOffset,
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}

	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, entry := range detail.Comments {
		comments = append(comments, commentResponse(&entry.Comment, entry.Parent))
	}
	timeline := make([]dto.TimelineEntryResponse, 0, len(detail.Timeline))
	for _, entry := range detail.Timeline {
		timeline = append(timeline, dto.TimelineEntryResponse{
			ID:        entry.ID,
			Action:    entry.Action,
			ActorID:   entry.ActorID,
			Details:   entry.Details,
			Timestamp: entry.Timestamp,
		})
	}
	return c.JSON(dto.TicketDetailResponse{
		Ticket:   ticketResponse(detail.Ticket),
		Comments: comments,
		Timeline: timeline,
	})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Version == nil {
		return apperrors.NewFieldRequired("version")
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), actor, c.Params("id"), service.TicketUpdateInput{
		Version:    *req.Version,
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ticket": ticketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), actor, c.Params("id"), service.CommentCreateInput{
		Content:    req.Content,
		ParentID:   req.ParentID,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"comment": commentResponse(comment, nil)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		CreatedBy:      ticket.CreatedBy,
		AssignedTo:     ticket.AssignedTo,
		Deadline:       ticket.Deadline,
		Version:        ticket.Version,
		IdempotencyKey: ticket.IdempotencyKey,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func commentResponse(comment *domain.Comment, parent *domain.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:         comment.ID,
		TicketID:   comment.TicketID,
		Content:    comment.Content,
		AuthorID:   comment.AuthorID,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
	if parent != nil {
		parentResp := commentResponse(parent, nil)
		resp.Parent = &parentResp
	}
	return resp
}
