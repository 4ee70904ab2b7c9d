package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/uchan-net/uchan/internal/common"
	"github.com/uchan-net/uchan/internal/server/media"
)

// imagePair is the inline upload embedded in thread and post bodies. Both
// fields come together or not at all.
type imagePair struct {
	Image     string `json:"image"`
	ImageName string `json:"image_name"`
}

// storeUpload validates and persists an inline base64 upload, returning
// the generated filename or "" when no image was sent.
func (s *Server) storeUpload(ctx context.Context, pair imagePair) (string, error) {
	if pair.Image == "" && pair.ImageName == "" {
		return "", nil
	}
	if pair.Image == "" || pair.ImageName == "" {
		return "", fmt.Errorf("%w: image and image_name come together", common.ErrorValidation)
	}

	data, err := base64.StdEncoding.DecodeString(pair.Image)
	if err != nil {
		return "", fmt.Errorf("%w: image is not valid base64", common.ErrorValidation)
	}

	if err := media.ValidUpload(pair.ImageName, int64(len(data)), s.config.MaxUploadBytes); err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrorValidation, err)
	}

	name, err := media.NewFilename(ctx, s.media, pair.ImageName)
	if err != nil {
		return "", err
	}

	if err := s.media.Save(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		return "", err
	}

	return name, nil
}
