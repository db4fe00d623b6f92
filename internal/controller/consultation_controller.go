package controller

import (
	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/pkg/serverutils"
	"berry-advisory-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConsultationController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	NewTopic(ctx *fiber.Ctx) error
	BuyFollowUps(ctx *fiber.Ctx) error
	ReplaceParameters(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Topics(ctx *fiber.Ctx) error
}

type consultationController struct {
	consultationService service.IConsultationService
}

func NewConsultationController(consultationService service.IConsultationService) IConsultationController {
	return &consultationController{
		consultationService: consultationService,
	}
}

func (c *consultationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/consultation/v1")
	h.Post("message", c.SendMessage)
	h.Post("new-topic", c.NewTopic)
	h.Post("buy-questions", c.BuyFollowUps)
	h.Post("replace-params", c.ReplaceParameters)
	h.Get("history", c.History)
	// Topic inspection is for operators, not the chat channel.
	h.Get("topics", serverutils.JwtMiddleware, c.Topics)
}

func (c *consultationController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.IncomingMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.consultationService.HandleMessage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success handle message", res))
}

func (c *consultationController) NewTopic(ctx *fiber.Ctx) error {
	var req dto.NewTopicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.consultationService.NewTopic(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start new topic", res))
}

func (c *consultationController) BuyFollowUps(ctx *fiber.Ctx) error {
	var req dto.BuyFollowUpsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.consultationService.BuyFollowUps(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success buy follow-up questions", res))
}

func (c *consultationController) ReplaceParameters(ctx *fiber.Ctx) error {
	var req dto.ReplaceParametersRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	// Two-step flow: an empty text only arms the parameter prompt, the
	// actual values arrive as the next chat message.
	if req.ExternalChatId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_chat_id is required")
	}

	res, err := c.consultationService.RequestParameterReplacement(ctx.Context(), req.ExternalChatId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success request parameter replacement", res))
}

func (c *consultationController) History(ctx *fiber.Ctx) error {
	externalChatId := ctx.Query("external_chat_id", "")
	if externalChatId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_chat_id is required")
	}
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.consultationService.GetHistory(ctx.Context(), externalChatId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *consultationController) Topics(ctx *fiber.Ctx) error {
	externalChatId := ctx.Query("external_chat_id", "")
	if externalChatId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_chat_id is required")
	}
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.consultationService.ListTopics(ctx.Context(), externalChatId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list topics", res))
}
