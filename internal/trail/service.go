package trail

import (
	"context"

	"backend-trailhub/internal/cache"
	"backend-trailhub/internal/db"
	"backend-trailhub/internal/poi"
	"backend-trailhub/internal/shared/apperr"
	"backend-trailhub/internal/shared/events"
	"backend-trailhub/internal/shared/geo"
	"backend-trailhub/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of the save pipeline.
type State string

const (
	StateReceived       State = "received"
	StateValidated      State = "validated"
	StateImagesIngested State = "images_ingested"
	StatePersisted      State = "persisted"
	StateFailed         State = "failed"
)

const listKey = "all"

type Service struct {
	store     Store
	validator *Validator
	images    *storage.ImageStore
	events    events.Notifier
	trails    *cache.Store[Trail]
	lists     *cache.Store[[]Summary]
	log       *zap.Logger
}

func NewService(store Store, users poi.UserChecker, images *storage.ImageStore, notifier events.Notifier, log *zap.Logger) *Service {
	if notifier == nil {
		notifier = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		validator: NewValidator(store, users),
		images:    images,
		events:    notifier,
		trails:    cache.New[Trail](nil, "", 0, log),
		lists:     cache.New[[]Summary](nil, "", 0, log),
		log:       log,
	}
}

// WithCache serves Get and List through the given caches.
func (s *Service) WithCache(trails *cache.Store[Trail], lists *cache.Store[[]Summary]) *Service {
	s.trails = trails
	s.lists = lists
	return s
}

// save tracks one Create request through the pipeline.
type save struct {
	id     string
	state  State
	images []string
	log    *zap.Logger
}

func (r *save) to(state State) {
	r.log.Debug("trail save transition", zap.String("from", string(r.state)), zap.String("to", string(state)))
	r.state = state
}

func (r *save) fail(err error) error {
	r.log.Info("trail save failed", zap.String("at", string(r.state)), zap.Error(err))
	r.state = StateFailed
	return err
}

// Create validates a submission, stores its images in submission order,
// computes the distance and persists the trail with its coordinates and
// points of interest in one transaction.
//
// If an image cannot be stored, every image already stored for this request
// is removed and no trail is written. A failed insert leaves the stored
// images in place and logs their paths.
func (s *Service) Create(ctx context.Context, sub Submission) (Trail, error) {
	run := &save{id: uuid.NewString(), state: StateReceived}
	run.log = s.log.With(zap.String("trail_id", run.id))

	draft, err := s.validator.ValidateCreate(ctx, sub)
	if err != nil {
		return Trail{}, run.fail(lookupErr(err))
	}
	run.to(StateValidated)

	t := Trail{
		Summary: Summary{
			ID:          run.id,
			Name:        draft.Name,
			Description: draft.Description,
			Difficulty:  draft.Difficulty,
			IsClosed:    draft.IsClosed,
			CreatedBy:   draft.CreatedBy,
		},
		Coordinates:      draft.Coordinates,
		PointsOfInterest: make([]poi.PointOfInterest, 0, len(draft.POIs)),
	}

	for i, d := range draft.POIs {
		rel, err := s.images.Store(t.ID, d.Image.Data, d.Image.Filename, storage.CategoryPOI)
		if err != nil {
			run.log.Warn("poi image ingestion failed, removing stored images",
				zap.Int("poi_index", i), zap.Strings("images", run.images), zap.Error(err))
			for _, p := range run.images {
				s.images.Remove(p)
			}
			if !apperr.IsIngestion(err) {
				err = apperr.Ingestion(err)
			}
			return Trail{}, run.fail(err)
		}
		run.images = append(run.images, rel)

		createdBy := draft.CreatedBy
		t.PointsOfInterest = append(t.PointsOfInterest, poi.PointOfInterest{
			ID:          uuid.NewString(),
			TrailID:     t.ID,
			Description: d.Fields.Description,
			Image:       &rel,
			IsActive:    *d.Fields.IsActive,
			Coordinate:  d.Fields.Coordinate(),
			CreatedBy:   &createdBy,
		})
	}
	run.to(StateImagesIngested)

	t.Distance = geo.TotalDistance(t.Coordinates)

	if err := s.store.Create(ctx, &t); err != nil {
		if db.UniqueViolation(err, "trails_name_key") {
			for _, p := range run.images {
				s.images.Remove(p)
			}
			return Trail{}, run.fail(apperr.Validation("name must be unique"))
		}
		run.log.Error("trail insert failed, stored images left for reconciliation",
			zap.Strings("images", run.images), zap.Error(err))
		return Trail{}, run.fail(apperr.Persistence(err))
	}
	run.to(StatePersisted)

	for i := range t.PointsOfInterest {
		t.PointsOfInterest[i].CreatedAt = t.CreatedAt
		t.PointsOfInterest[i].UpdatedAt = t.UpdatedAt
	}

	s.lists.Delete(ctx, listKey)
	s.events.Notify(ctx, events.Event{Kind: events.TrailCreated, TrailID: t.ID, ID: t.ID})
	return t, nil
}

// Update merges the editable fields of in onto trail id. TrailCoords, when
// sent, replace the stored coordinates and the distance is recomputed.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Trail, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return Trail{}, err
	}

	patch, err := s.validator.ValidateUpdate(ctx, id, in)
	if err != nil {
		return Trail{}, lookupErr(err)
	}

	next := current
	if patch.Name != nil {
		next.Name = patch.Name
	}
	if patch.Description != nil {
		next.Description = patch.Description
	}
	if patch.Difficulty != nil {
		next.Difficulty = *patch.Difficulty
	}
	if patch.IsClosed != nil {
		next.IsClosed = *patch.IsClosed
	}
	updatedBy := patch.UpdatedBy
	next.UpdatedBy = &updatedBy
	replace := patch.Coordinates != nil
	if replace {
		next.Coordinates = patch.Coordinates
	}
	next.Distance = geo.TotalDistance(next.Coordinates)

	if err := s.store.Update(ctx, &next, replace); err != nil {
		if apperr.IsNotFound(err) {
			return Trail{}, err
		}
		if db.UniqueViolation(err, "trails_name_key") {
			return Trail{}, apperr.Validation("name must be unique")
		}
		s.log.Error("trail update failed", zap.String("trail_id", id), zap.Error(err))
		return Trail{}, apperr.Persistence(err)
	}

	s.invalidate(ctx, id)
	s.events.Notify(ctx, events.Event{Kind: events.TrailUpdated, TrailID: id, ID: id})
	return next, nil
}

// Get returns a trail with its coordinates and points of interest.
func (s *Service) Get(ctx context.Context, id string) (Trail, error) {
	if t, ok := s.trails.Get(ctx, id); ok {
		return t, nil
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return Trail{}, err
	}
	s.trails.Set(ctx, id, t)
	return t, nil
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	if list, ok := s.lists.Get(ctx, listKey); ok {
		return list, nil
	}
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	s.lists.Set(ctx, listKey, list)
	return list, nil
}

// Delete removes the trail with its coordinates and points of interest, then
// its image directory.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.NotFound("trail", id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if apperr.IsNotFound(err) {
			return err
		}
		return apperr.Persistence(err)
	}
	s.images.RemoveTrail(id)
	s.invalidate(ctx, id)
	s.events.Notify(ctx, events.Event{Kind: events.TrailDeleted, TrailID: id, ID: id})
	return nil
}

// MileMarkers returns a point at every whole mile along the trail.
func (s *Service) MileMarkers(ctx context.Context, id string) ([]geo.Marker, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	markers := geo.MileMarkers(t.Coordinates)
	if markers == nil {
		markers = []geo.Marker{}
	}
	return markers, nil
}

// Export renders a trail as gpx, kml or an encoded polyline.
func (s *Service) Export(ctx context.Context, id, format string) (Export, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	out, err := Encode(t, format)
	if err != nil && !apperr.IsValidation(err) {
		s.log.Error("trail export failed", zap.String("trail_id", id), zap.String("format", format), zap.Error(err))
		return Export{}, err
	}
	return out, err
}

// Notify drops cached copies of a trail when one of its points of interest
// changes elsewhere.
func (s *Service) Notify(ctx context.Context, ev events.Event) {
	if ev.TrailID == "" {
		return
	}
	s.invalidate(ctx, ev.TrailID)
}

func (s *Service) load(ctx context.Context, id string) (Trail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Trail{}, apperr.NotFound("trail", id)
	}
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Trail{}, err
		}
		return Trail{}, apperr.Persistence(err)
	}
	return t, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	s.trails.Delete(ctx, id)
	s.lists.Delete(ctx, listKey)
}

// lookupErr passes validation failures through and marks everything else as
// a store failure raised while evaluating a rule.
func lookupErr(err error) error {
	if apperr.IsValidation(err) {
		return err
	}
	return apperr.Persistence(err)
}
