package controller

import (
	"berry-advisory-be/internal/constant"
	"berry-advisory-be/internal/dto"
	"berry-advisory-be/internal/pkg/serverutils"
	"berry-advisory-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IBillingController interface {
	RegisterRoutes(r fiber.Router)
	TopUp(ctx *fiber.Ctx) error
	Balance(ctx *fiber.Ctx) error
	Transactions(ctx *fiber.Ctx) error
}

type billingController struct {
	userService    service.IUserService
	billingService service.IBillingService
}

func NewBillingController(userService service.IUserService, billingService service.IBillingService) IBillingController {
	return &billingController{
		userService:    userService,
		billingService: billingService,
	}
}

func (c *billingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/billing/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("top-up", c.TopUp)
	h.Get("balance", c.Balance)
	h.Get("transactions", c.Transactions)
}

func (c *billingController) TopUp(ctx *fiber.Ctx) error {
	var req dto.TopUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	user, err := c.userService.GetByExternalChatId(ctx.Context(), req.ExternalChatId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	balance, err := c.billingService.Credit(ctx.Context(), user.Id, req.Amount, constant.ReferenceAdminTopUp)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success top up balance", dto.TopUpResponse{
		UserId:       user.Id,
		TokenBalance: balance,
	}))
}

func (c *billingController) Balance(ctx *fiber.Ctx) error {
	externalChatId := ctx.Query("external_chat_id", "")
	if externalChatId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_chat_id is required")
	}

	user, err := c.userService.GetByExternalChatId(ctx.Context(), externalChatId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get balance", dto.BalanceResponse{
		UserId:       user.Id,
		TokenBalance: user.TokenBalance,
	}))
}

func (c *billingController) Transactions(ctx *fiber.Ctx) error {
	externalChatId := ctx.Query("external_chat_id", "")
	if externalChatId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "external_chat_id is required")
	}

	user, err := c.userService.GetByExternalChatId(ctx.Context(), externalChatId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	transactions, err := c.billingService.ListTransactions(ctx.Context(), user.Id)
	if err != nil {
		return err
	}

	res := make([]dto.TokenTransactionResponse, len(transactions))
	for i, t := range transactions {
		res[i] = dto.TokenTransactionResponse{
			Id:           t.Id,
			Operation:    string(t.Operation),
			Amount:       t.Amount,
			BalanceAfter: t.BalanceAfter,
			Reference:    t.Reference,
			CreatedAt:    t.CreatedAt,
		}
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list transactions", res))
}
