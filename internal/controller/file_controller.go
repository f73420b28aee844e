package controller

import (
	"io"

	"evoblast-be/internal/apperror"
	"evoblast-be/internal/pkg/serverutils"
	"evoblast-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	ListMine(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteAll(ctx *fiber.Ctx) error
}

type fileController struct {
	documentService service.IDocumentService
}

func NewFileController(documentService service.IDocumentService) IFileController {
	return &fileController{
		documentService: documentService,
	}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	r.Post("upload", c.Upload)
	r.Get("files", c.List)
	r.Get("files/my", c.ListMine)
	r.Delete("files/all", c.DeleteAll)
	r.Get("file/:id", c.Show)
	r.Delete("file/:id", c.Delete)
	r.Get("download/:id", c.Download)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	form, err := ctx.MultipartForm()
	if err != nil {
		return apperror.NewValidation("invalid multipart form: %v", err)
	}
	files := form.File["files"]

	res, err := c.documentService.Register(ctx.Context(), userId, files)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload files", res))
}

func (c *fileController) List(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.documentService.List(ctx.Context(), userId, false)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list files", res))
}

func (c *fileController) ListMine(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.documentService.List(ctx.Context(), userId, true)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list own files", res))
}

func (c *fileController) Show(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid file id")
	}

	res, err := c.documentService.Get(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show file", res))
}

func (c *fileController) Download(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid file id")
	}

	filename, rc, err := c.documentService.Download(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	ctx.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return ctx.Send(content)
}

func (c *fileController) Delete(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return apperror.NewValidation("invalid file id")
	}

	res, err := c.documentService.Remove(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete file", res))
}

func (c *fileController) DeleteAll(ctx *fiber.Ctx) error {
	res, err := c.documentService.RemoveAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete all files", res))
}
