package trail

import (
	"context"
	"fmt"
	"strings"

	"backend-trailhub/internal/formdata"
	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/shared/validate"
	"backend-trailhub/internal/storage"
)

const (
	coordsObject = "TrailCoords"
	poiObject    = "POI"
)

// Validator turns raw trail submissions into drafts and patches. Rules are
// grouped structural, cross-field and referential; a category that reports
// anything stops the ones after it.
type Validator struct {
	store   Store
	users   poi.UserChecker
	structs *validate.Structs
}

func NewValidator(store Store, users poi.UserChecker) *Validator {
	return &Validator{store: store, users: users, structs: validate.NewStructs()}
}

type createCheck struct {
	sub     Submission
	hdr     header
	coords  []geo.Coordinate
	poiObjs []formdata.Object
	pois    []DraftPOI
	// fields of each POI that did not decode
	poiFailed [][]string
}

func (v *Validator) ValidateCreate(ctx context.Context, sub Submission) (Draft, error) {
	c := &createCheck{sub: sub}
	err := validate.Run(ctx, c,
		validate.Category[*createCheck]{
			validate.Pure("header", func(c *createCheck) []string {
				return v.checkHeader(sub.Body, &c.hdr)
			}),
			validate.Pure("coordinates", func(c *createCheck) []string {
				var msgs []string
				c.coords, msgs = v.checkCoords(sub.Body)
				return msgs
			}),
			validate.Pure("poi arrays", func(c *createCheck) []string {
				if !formdata.CheckLengthOfObjectArrays(sub.Body, poiObject) {
					return []string{"POI arrays must be the same length"}
				}
				c.poiObjs = formdata.MakeObjectArray(sub.Body, poiObject)
				c.pois = make([]DraftPOI, len(c.poiObjs))
				c.poiFailed = make([][]string, len(c.poiObjs))
				var msgs []string
				for i, obj := range c.poiObjs {
					fields, found, failed := poi.DecodeFields(poiPrefix(i), obj)
					c.pois[i].Fields = fields
					c.poiFailed[i] = failed
					msgs = append(msgs, found...)
				}
				return msgs
			}),
		},
		validate.Category[*createCheck]{
			validate.Pure("coordinate count", func(c *createCheck) []string {
				if len(c.coords) < 2 {
					return []string{"TrailCoords must contain at least 2 coordinates"}
				}
				return nil
			}),
			validate.Pure("poi fields", func(c *createCheck) []string {
				var msgs []string
				for i := range c.pois {
					msgs = append(msgs, poi.CheckFields(v.structs, poiPrefix(i), c.pois[i].Fields, c.poiFailed[i]...)...)
				}
				return msgs
			}),
			validate.Pure("poi images", v.checkImages),
		},
		validate.Category[*createCheck]{
			{Name: "created by", Check: func(ctx context.Context, c *createCheck) ([]string, error) {
				return v.checkUser(ctx, "createdBy", *c.hdr.CreatedBy)
			}},
			{Name: "name", Check: func(ctx context.Context, c *createCheck) ([]string, error) {
				return v.checkName(ctx, c.hdr.Name, "")
			}},
		},
	)
	if err != nil {
		return Draft{}, err
	}

	d := Draft{
		Name:        c.hdr.Name,
		Description: c.hdr.Description,
		Difficulty:  c.hdr.Difficulty,
		CreatedBy:   *c.hdr.CreatedBy,
		Coordinates: c.coords,
		POIs:        c.pois,
	}
	if c.hdr.IsClosed != nil {
		d.IsClosed = *c.hdr.IsClosed
	}
	return d, nil
}

type updateCheck struct {
	id     string
	in     UpdateInput
	hdr    updateHeader
	coords []geo.Coordinate
}

// ValidateUpdate checks a partial edit of trail id. Coordinates are only
// checked when the body carries TrailCoords fields.
func (v *Validator) ValidateUpdate(ctx context.Context, id string, in UpdateInput) (Patch, error) {
	c := &updateCheck{id: id, in: in}
	replace := in.Body.Has(coordsObject)
	err := validate.Run(ctx, c,
		validate.Category[*updateCheck]{
			validate.Pure("header", func(c *updateCheck) []string {
				return v.checkHeader(in.Body, &c.hdr)
			}),
			validate.Pure("coordinates", func(c *updateCheck) []string {
				if !replace {
					return nil
				}
				var msgs []string
				c.coords, msgs = v.checkCoords(in.Body)
				return msgs
			}),
		},
		validate.Category[*updateCheck]{
			validate.Pure("coordinate count", func(c *updateCheck) []string {
				if replace && len(c.coords) < 2 {
					return []string{"TrailCoords must contain at least 2 coordinates"}
				}
				return nil
			}),
		},
		validate.Category[*updateCheck]{
			{Name: "updated by", Check: func(ctx context.Context, c *updateCheck) ([]string, error) {
				return v.checkUser(ctx, "updatedBy", *c.hdr.UpdatedBy)
			}},
			{Name: "name", Check: func(ctx context.Context, c *updateCheck) ([]string, error) {
				return v.checkName(ctx, c.hdr.Name, c.id)
			}},
		},
	)
	if err != nil {
		return Patch{}, err
	}

	return Patch{
		Name:        c.hdr.Name,
		Description: c.hdr.Description,
		Difficulty:  c.hdr.Difficulty,
		IsClosed:    c.hdr.IsClosed,
		UpdatedBy:   *c.hdr.UpdatedBy,
		Coordinates: c.coords,
	}, nil
}

// checkHeader decodes the top-level fields into dst, a header or
// updateHeader.
func (v *Validator) checkHeader(body formdata.Body, dst any) []string {
	var msgs, failed []string
	for _, fe := range formdata.Decode(body.Scalars(), dst) {
		msgs = append(msgs, fe.Error())
		failed = append(failed, fe.Field)
	}
	return append(msgs, v.structs.Check("", dst, failed...)...)
}

func (v *Validator) checkCoords(body formdata.Body) ([]geo.Coordinate, []string) {
	if !formdata.CheckLengthOfObjectArrays(body, coordsObject) {
		return nil, []string{"TrailCoords arrays must be the same length"}
	}

	objs := formdata.MakeObjectArray(body, coordsObject)
	coords := make([]geo.Coordinate, 0, len(objs))
	var msgs []string
	for i, obj := range objs {
		prefix := fmt.Sprintf("%s[%d] ", coordsObject, i)
		var f coordFields
		var failed []string
		for _, fe := range formdata.Decode(obj, &f) {
			msgs = append(msgs, prefix+fe.Error())
			failed = append(failed, fe.Field)
		}
		found := v.structs.Check(prefix, f, failed...)
		msgs = append(msgs, found...)
		if len(failed) > 0 || len(found) > 0 {
			continue
		}
		c := f.coordinate()
		if !geo.Valid(c) {
			msgs = append(msgs, prefix+"latitude/longitude is not a valid location")
			continue
		}
		coords = append(coords, c)
	}
	return coords, msgs
}

// checkImages pairs POI_image files with POI entries by index. Every entry
// needs an image, there may be no spare files, and two images may not map to
// the same stored name.
func (v *Validator) checkImages(c *createCheck) []string {
	images := c.sub.Images
	var msgs []string
	seen := map[string]int{}
	for i := range c.pois {
		prefix := poiPrefix(i)
		if i >= len(images) {
			msgs = append(msgs, poi.CheckImage(prefix, nil)...)
			continue
		}
		up := images[i]
		if found := poi.CheckImage(prefix, &up); len(found) > 0 {
			msgs = append(msgs, found...)
			continue
		}
		name := storage.FileName(up.Filename)
		if first, dup := seen[name]; dup {
			msgs = append(msgs, fmt.Sprintf("%simage name %s is already used by POI[%d]", prefix, name, first))
			continue
		}
		seen[name] = i
		c.pois[i].Image = up
	}
	if len(images) > len(c.pois) {
		msgs = append(msgs, fmt.Sprintf("POI_image has %d files for %d points of interest", len(images), len(c.pois)))
	}
	return msgs
}

func (v *Validator) checkUser(ctx context.Context, field string, id int64) ([]string, error) {
	ok, err := v.users.UserExists(ctx, id)
	if err != nil || ok {
		return nil, err
	}
	return []string{fmt.Sprintf("%s %d does not reference an existing user", field, id)}, nil
}

func (v *Validator) checkName(ctx context.Context, name *string, excludeID string) ([]string, error) {
	if name == nil || strings.TrimSpace(*name) == "" {
		return nil, nil
	}
	taken, err := v.store.NameTaken(ctx, *name, excludeID)
	if err != nil || !taken {
		return nil, err
	}
	return []string{"name must be unique"}, nil
}

func poiPrefix(i int) string {
	return fmt.Sprintf("%s[%d] ", poiObject, i)
}
