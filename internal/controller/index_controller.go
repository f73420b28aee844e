package controller

import (
	"evoblast-be/internal/pkg/serverutils"
	"evoblast-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIndexController interface {
	RegisterRoutes(r fiber.Router)
	Reindex(ctx *fiber.Ctx) error
	IndexingStatus(ctx *fiber.Ctx) error
	VectorStore(ctx *fiber.Ctx) error
}

type indexController struct {
	indexerService service.IIndexerService
}

func NewIndexController(indexerService service.IIndexerService) IIndexController {
	return &indexController{
		indexerService: indexerService,
	}
}

func (c *indexController) RegisterRoutes(r fiber.Router) {
	r.Post("reindex", c.Reindex)
	r.Get("indexing-status", c.IndexingStatus)
	r.Get("vector-store", c.VectorStore)
}

// Reindex only acknowledges the trigger; the build outcome is observed via
// the indexing-status endpoint.
func (c *indexController) Reindex(ctx *fiber.Ctx) error {
	res, err := c.indexerService.RequestRebuild(ctx.Context(), "manual reindex")
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Reindex accepted", res))
}

func (c *indexController) IndexingStatus(ctx *fiber.Ctx) error {
	res, err := c.indexerService.Status(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get indexing status", res))
}

func (c *indexController) VectorStore(ctx *fiber.Ctx) error {
	res, err := c.indexerService.ActiveIndex(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get vector store", res))
}
