package controller

import (
	"evoblast-be/internal/pkg/serverutils"
	"evoblast-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	UserInfo(ctx *fiber.Ctx) error
}

type authController struct {
	authService service.IAuthService
}

func NewAuthController(authService service.IAuthService) IAuthController {
	return &authController{
		authService: authService,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	r.Get("user", c.UserInfo)
}

func (c *authController) UserInfo(ctx *fiber.Ctx) error {
	claims, ok := ctx.Locals("claims").(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	res := c.authService.UserInfo(claims)
	return ctx.JSON(serverutils.SuccessResponse("Success get user info", res))
}
