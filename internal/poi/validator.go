package poi

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/shared/validate"
	"backend-trailhub/internal/storage"

	"github.com/google/uuid"
)

// DecodeFields reads one submitted point of interest. It reports values that
// are not of the expected type and returns the names of those fields.
func DecodeFields(prefix string, obj formdata.Object) (Fields, []string, []string) {
	var f Fields
	var msgs, failed []string
	for _, fe := range formdata.Decode(obj, &f) {
		msgs = append(msgs, prefix+fe.Error())
		failed = append(failed, fe.Field)
	}
	return f, msgs, failed
}

// CheckFields reports missing or out of range values in f, skipping fields
// that already failed to decode. Messages are prefixed with prefix.
func CheckFields(structs *validate.Structs, prefix string, f Fields, skip ...string) []string {
	msgs := structs.Check(prefix, f, skip...)
	if f.Latitude != nil && f.Longitude != nil && !geo.Valid(f.Coordinate()) {
		msgs = append(msgs, prefix+"latitude/longitude is not a valid location")
	}
	return msgs
}

// CheckImage reports a missing upload or one whose content is not an
// accepted image format.
func CheckImage(prefix string, up *storage.Upload) []string {
	if up == nil || len(up.Data) == 0 {
		return []string{prefix + "image is required"}
	}
	if mt, ok := storage.DetectImage(up.Data); !ok {
		return []string{fmt.Sprintf("%simage must be one of: jpg, jpeg, png, gif, webp (got %s)", prefix, mt)}
	}
	return nil
}

type createCheck struct {
	in     CreateInput
	fields Fields
}

func (s *Service) validateCreate(ctx context.Context, in CreateInput) (Fields, error) {
	c := &createCheck{in: in}
	err := validate.Run(ctx, c,
		validate.Category[*createCheck]{
			validate.Pure("trail id", func(c *createCheck) []string {
				return checkID("trailId", c.in.TrailID)
			}),
			validate.Pure("fields", func(c *createCheck) []string {
				fields, msgs, failed := DecodeFields("", c.in.Fields)
				c.fields = fields
				return append(msgs, CheckFields(s.structs, "", fields, failed...)...)
			}),
		},
		validate.Category[*createCheck]{
			validate.Pure("image", func(c *createCheck) []string {
				if c.in.Image == nil {
					return nil
				}
				return CheckImage("", c.in.Image)
			}),
		},
		validate.Category[*createCheck]{
			{Name: "trail exists", Check: func(ctx context.Context, c *createCheck) ([]string, error) {
				ok, err := s.trailExists(ctx, c.in.TrailID)
				if err != nil || ok {
					return nil, err
				}
				return []string{"trailId does not reference an existing trail"}, nil
			}},
			{Name: "user exists", Check: func(ctx context.Context, c *createCheck) ([]string, error) {
				return s.checkUser(ctx, "createdBy", c.in.CreatedBy)
			}},
			{Name: "image path", Check: func(ctx context.Context, c *createCheck) ([]string, error) {
				if c.in.Image == nil {
					return nil, nil
				}
				return s.checkImagePath(ctx, storage.RelPath(c.in.TrailID, storage.CategoryPOI, c.in.Image.Filename), "")
			}},
		},
	)
	return c.fields, err
}

type updateCheck struct {
	current PointOfInterest
	in      UpdateInput
	active  *bool
}

func (s *Service) validateUpdate(ctx context.Context, current PointOfInterest, in UpdateInput) (*bool, error) {
	c := &updateCheck{current: current, in: in}
	err := validate.Run(ctx, c,
		validate.Category[*updateCheck]{
			validate.Pure("description", func(c *updateCheck) []string {
				if c.in.Description != nil && strings.TrimSpace(*c.in.Description) == "" {
					return []string{"description must not be empty"}
				}
				return nil
			}),
			validate.Pure("isActive", func(c *updateCheck) []string {
				if c.in.IsActive == nil {
					return nil
				}
				b, err := strconv.ParseBool(strings.TrimSpace(*c.in.IsActive))
				if err != nil {
					return []string{"isActive must be a boolean"}
				}
				c.active = &b
				return nil
			}),
		},
		validate.Category[*updateCheck]{
			validate.Pure("image", func(c *updateCheck) []string {
				if c.in.Image == nil {
					return nil
				}
				return CheckImage("", c.in.Image)
			}),
		},
		validate.Category[*updateCheck]{
			{Name: "image path", Check: func(ctx context.Context, c *updateCheck) ([]string, error) {
				if c.in.Image == nil {
					return nil, nil
				}
				return s.checkImagePath(ctx, storage.RelPath(c.current.TrailID, storage.CategoryPOI, c.in.Image.Filename), c.current.ID)
			}},
		},
	)
	return c.active, err
}

func (s *Service) checkUser(ctx context.Context, field string, id int64) ([]string, error) {
	if id <= 0 {
		return []string{field + " is required"}, nil
	}
	ok, err := s.users.UserExists(ctx, id)
	if err != nil || ok {
		return nil, err
	}
	return []string{fmt.Sprintf("%s %d does not reference an existing user", field, id)}, nil
}

// checkImagePath rejects an image whose stored path already belongs to a
// different point of interest, since storing it would overwrite that file.
func (s *Service) checkImagePath(ctx context.Context, rel, exceptID string) ([]string, error) {
	var taken bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM points_of_interest WHERE image = $1 AND id::text <> $2)
	`, rel, exceptID).Scan(&taken)
	if err != nil || !taken {
		return nil, err
	}
	return []string{"image name " + path.Base(rel) + " is already used on this trail"}, nil
}

func checkID(field, id string) []string {
	if strings.TrimSpace(id) == "" {
		return []string{field + " is required"}
	}
	if _, err := uuid.Parse(id); err != nil {
		return []string{field + " must be a valid id"}
	}
	return nil
}
