package trail

import (
	"strconv"

	"backend-trailhub/internal/auth"
	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMw, adminMw fiber.Handler) {
	r.Post("/", authMw, adminMw, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}
		body := formdata.FromMultipart(form)
		defaultUser(c, body, "createdBy")

		var images []storage.Upload
		for _, fh := range formdata.Files(form, "POI_image") {
			up, err := storage.ReadUpload(fh)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			images = append(images, up)
		}

		created, err := svc.Create(c.Context(), Submission{Body: body, Images: images})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		trails, err := svc.List(c.Context())
		if err != nil {
			return err
		}
		return c.JSON(trails)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(t)
	})

	r.Patch("/:id", authMw, adminMw, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}
		body := formdata.FromMultipart(form)
		defaultUser(c, body, "updatedBy")

		updated, err := svc.Update(c.Context(), c.Params("id"), UpdateInput{Body: body})
		if err != nil {
			return err
		}
		return c.JSON(updated)
	})

	r.Delete("/:id", authMw, adminMw, func(c *fiber.Ctx) error {
		if err := svc.Delete(c.Context(), c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Get("/:id/markers", func(c *fiber.Ctx) error {
		markers, err := svc.MileMarkers(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(markers)
	})

	r.Get("/:id/export", func(c *fiber.Ctx) error {
		out, err := svc.Export(c.Context(), c.Params("id"), c.Query("format", FormatGPX))
		if err != nil {
			return err
		}
		c.Attachment(c.Params("id") + "." + out.Extension)
		c.Set(fiber.HeaderContentType, out.ContentType)
		return c.Send(out.Data)
	})
}

// defaultUser fills key with the authenticated user when the form left it
// out.
func defaultUser(c *fiber.Ctx, body formdata.Body, key string) {
	if _, ok := body.Scalar(key); ok {
		return
	}
	if id, ok := auth.UserID(c); ok {
		body[key] = []string{strconv.FormatInt(id, 10)}
	}
}
