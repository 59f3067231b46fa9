package product

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
)

const defaultMaxImageBytes = 10 << 20

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type sniffedImage struct {
	data        []byte
	contentType string
	ext         string
}

// sniffImage reads the upload and detects its type from content, ignoring
// the client-supplied filename and headers.
func sniffImage(upload *ImageUpload, maxBytes int64) (*sniffedImage, error) {
	if upload == nil || upload.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image file is required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image file")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image file is empty")
	}
	if int64(len(data)) > maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image file too large").
			WithDetails(map[string]any{"max_bytes": maxBytes})
	}

	detected := mimetype.Detect(data)
	contentType := strings.ToLower(detected.String())
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported image type").
			WithDetails(map[string]string{
				"detected": contentType,
				"allowed":  "png, jpeg, webp or gif",
			})
	}
	return &sniffedImage{data: data, contentType: contentType, ext: ext}, nil
}

func imageObjectName(ext string) string {
	return fmt.Sprintf("products/%s%s", uuid.NewString(), ext)
}

func (s *sniffedImage) reader() io.Reader {
	return bytes.NewReader(s.data)
}
