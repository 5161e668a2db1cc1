package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"backend-trailhub/internal/shared/apperr"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "golang.org/x/image/webp"
)

type Category string

const (
	CategoryPOI    Category = "POI"
	CategoryHazard Category = "Hazard"
)

func (c Category) Valid() bool {
	return c == CategoryPOI || c == CategoryHazard
}

// Upload is an uploaded file held in memory.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var errPathEscape = errors.New("image path escapes the save directory")

// ImageStore writes re-encoded images under root as
// {trailID}/{category}/{name}.jpg and hands back that relative path.
type ImageStore struct {
	root     string
	maxWidth int
	quality  int
	log      *zap.Logger
}

func NewImageStore(root string, maxWidth, quality int, log *zap.Logger) *ImageStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageStore{root: root, maxWidth: maxWidth, quality: quality, log: log}
}

// Store decodes data, shrinks it to the configured width, re-encodes it as
// JPEG and writes it. The final path only ever holds a complete file: the
// encoder writes to a temp file that is renamed into place.
func (s *ImageStore) Store(trailID string, data []byte, originalFilename string, category Category) (string, error) {
	staged, err := s.Stage(trailID, data, originalFilename, category)
	if err != nil {
		return "", err
	}
	if err := staged.Commit(); err != nil {
		return "", err
	}
	return staged.Rel, nil
}

// Staged is an encoded image waiting next to its final path. Nothing at Rel
// changes until Commit.
type Staged struct {
	Rel   string
	tmp   string
	final string
	store *ImageStore
}

// Stage does the decode, resize and encode work of Store but leaves the
// result in a temp file.
func (s *ImageStore) Stage(trailID string, data []byte, originalFilename string, category Category) (*Staged, error) {
	if !category.Valid() {
		return nil, apperr.Ingestion(fmt.Errorf("unknown image category %q", category))
	}
	if !safeSegment(trailID) {
		return nil, apperr.Ingestion(fmt.Errorf("invalid trail id %q", trailID))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Ingestion(fmt.Errorf("decode %s: %w", originalFilename, err))
	}
	if s.maxWidth > 0 && img.Bounds().Dx() > s.maxWidth {
		img = imaging.Resize(img, s.maxWidth, 0, imaging.Lanczos)
	}

	dir := filepath.Join(s.root, trailID, string(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Ingestion(err)
	}

	name := FileName(originalFilename)
	tmp, err := os.CreateTemp(dir, "."+name+"-"+uuid.NewString()+"-*.tmp")
	if err != nil {
		return nil, apperr.Ingestion(err)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, imaging.JPEG, imaging.JPEGQuality(s.quality)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, apperr.Ingestion(fmt.Errorf("encode %s: %w", name, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, apperr.Ingestion(err)
	}

	return &Staged{
		Rel:   RelPath(trailID, category, originalFilename),
		tmp:   tmpName,
		final: filepath.Join(dir, name),
		store: s,
	}, nil
}

// Commit renames the staged file over Rel.
func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.final); err != nil {
		os.Remove(st.tmp)
		return apperr.Ingestion(err)
	}
	st.store.log.Debug("image stored", zap.String("path", st.Rel))
	return nil
}

// Discard drops the staged file and leaves Rel untouched.
func (st *Staged) Discard() {
	if err := os.Remove(st.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		st.store.log.Warn("staged image remove failed", zap.String("path", st.Rel), zap.Error(err))
	}
}

// Remove deletes a stored image. Failures are logged and otherwise ignored.
func (s *ImageStore) Remove(rel string) {
	if rel == "" {
		return
	}
	abs, err := s.Path(rel)
	if err != nil {
		s.log.Warn("image remove skipped", zap.String("path", rel), zap.Error(err))
		return
	}
	if err := os.Remove(abs); err != nil {
		s.log.Warn("image remove failed", zap.String("path", rel), zap.Error(err))
		return
	}
	s.log.Debug("image removed", zap.String("path", rel))
}

// RemoveTrail deletes every image stored for a trail. Like Remove it only
// logs failures.
func (s *ImageStore) RemoveTrail(trailID string) {
	if !safeSegment(trailID) {
		s.log.Warn("trail images remove skipped", zap.String("trail_id", trailID))
		return
	}
	if err := os.RemoveAll(filepath.Join(s.root, trailID)); err != nil {
		s.log.Warn("trail images remove failed", zap.String("trail_id", trailID), zap.Error(err))
		return
	}
	s.log.Debug("trail images removed", zap.String("trail_id", trailID))
}

// Path resolves a stored relative path to its location on disk.
func (s *ImageStore) Path(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errPathEscape
	}
	return filepath.Join(s.root, clean), nil
}

// RelPath is the relative path Store returns for these arguments.
func RelPath(trailID string, category Category, originalFilename string) string {
	return path.Join(trailID, string(category), FileName(originalFilename))
}

// FileName is the stored file name for an uploaded file name.
func FileName(originalFilename string) string {
	return SanitizeName(originalFilename) + ".jpg"
}

// SanitizeName drops any directory and extension from a client filename and
// replaces spaces with hyphens.
func SanitizeName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
	if name == "" || name == "." || name == ".." || name == "/" {
		return "image"
	}
	return name
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
