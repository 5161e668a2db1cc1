package storage

import (
	"os"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes serves stored images by their relative path.
func RegisterRoutes(r fiber.Router, store *ImageStore) {
	r.Get("/*", func(c *fiber.Ctx) error {
		abs, err := store.Path(c.Params("*"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if _, err := os.Stat(abs); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "image not found")
		}
		c.Type("jpg")
		return c.SendFile(abs)
	})
}
