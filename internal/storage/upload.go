package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var allowedSubtypes = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// ReadUpload loads an uploaded part into memory.
func ReadUpload(fh *multipart.FileHeader) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return Upload{Filename: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

// DetectImage sniffs the upload's content. It reports the detected MIME type
// and whether it is an accepted image format; the client supplied content
// type is not trusted.
func DetectImage(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	kind, sub, _ := strings.Cut(mt.String(), "/")
	sub, _, _ = strings.Cut(sub, ";")
	return mt.String(), kind == "image" && allowedSubtypes[sub]
}
