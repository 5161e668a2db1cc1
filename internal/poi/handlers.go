package poi

import (
	"mime/multipart"
	"strconv"

	"backend-trailhub/internal/auth"
	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMw, adminMw fiber.Handler) {
	r.Post("/", authMw, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}
		body := formdata.FromMultipart(form)
		trailID, _ := body.Scalar("trailId")
		userID, _ := auth.UserID(c)

		image, err := firstUpload(form, "image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		created, err := svc.Create(c.Context(), CreateInput{
			TrailID:   trailID,
			CreatedBy: userID,
			Fields:    body.Scalars(),
			Image:     image,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return fiber.NewError(fiber.StatusBadRequest, "lat and lng required")
		}
		radius, _ := strconv.ParseFloat(c.Query("radius_mi"), 64)
		if radius <= 0 {
			radius = 1
		}
		results, err := svc.Nearby(c.Context(), geo.Coordinate{Latitude: lat, Longitude: lng}, radius)
		if err != nil {
			return err
		}
		return c.JSON(results)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		p, err := svc.Get(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	})

	r.Patch("/:id", authMw, adminMw, func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart form required")
		}
		body := formdata.FromMultipart(form)

		image, err := firstUpload(form, "image")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		updated, err := svc.Update(c.Context(), c.Params("id"), UpdateInput{
			Description: optional(body, "description"),
			IsActive:    optional(body, "isActive"),
			Image:       image,
		})
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
}

// RegisterTrailRoutes mounts the per-trail listing under the trails group.
func RegisterTrailRoutes(r fiber.Router, svc *Service) {
	r.Get("/:id/pois", func(c *fiber.Ctx) error {
		pois, err := svc.ListByTrail(c.Context(), c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(pois)
	})
}

func firstUpload(form *multipart.Form, key string) (*storage.Upload, error) {
	files := formdata.Files(form, key)
	if len(files) == 0 {
		return nil, nil
	}
	up, err := storage.ReadUpload(files[0])
	if err != nil {
		return nil, err
	}
	return &up, nil
}

func optional(body formdata.Body, key string) *string {
	v, ok := body.Scalar(key)
	if !ok {
		return nil
	}
	return &v
}
