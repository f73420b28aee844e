package controller

import (
	"evoblast-be/internal/apperror"
	"evoblast-be/internal/dto"
	"evoblast-be/internal/pkg/serverutils"
	"evoblast-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	ListChats(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	DeleteChat(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("mainthread", c.SendMessage)
	r.Get("chats", c.ListChats)
	r.Get("history", c.History)
	r.Delete("chat", c.DeleteChat)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.NewValidation("invalid request body: %v", err)
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) ListChats(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.chatService.ListThreads(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list chats", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	threadId, err := uuid.Parse(ctx.Query("thread_id"))
	if err != nil {
		return apperror.NewValidation("invalid thread_id")
	}

	res, err := c.chatService.History(ctx.Context(), userId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) DeleteChat(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	threadId, err := uuid.Parse(ctx.Query("thread_id"))
	if err != nil {
		return apperror.NewValidation("invalid thread_id")
	}

	res, err := c.chatService.DeleteThread(ctx.Context(), userId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete chat", res))
}
