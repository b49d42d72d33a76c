package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pageza/chef-next-door/backend/internal/apperr"
	"github.com/pageza/chef-next-door/backend/internal/session"
	"github.com/pageza/chef-next-door/backend/internal/storage"
)

// ImageService handles image uploads to object storage
type ImageService struct {
	objects  storage.ObjectStore
	maxBytes int64
	log      logrus.FieldLogger
}

// NewImageService creates a new ImageService instance. maxBytes of zero
// disables the size check.
func NewImageService(objects storage.ObjectStore, maxBytes int64, log logrus.FieldLogger) *ImageService {
	return &ImageService{
		objects:  objects,
		maxBytes: maxBytes,
		log:      log.WithField("component", "ImageService"),
	}
}

// Upload stores data under the current user's folder for category and
// returns its public URL. Avatars are cropped to a circle and stored as
// PNG; crop selects the region, nil meaning the default centered square.
func (s *ImageService) Upload(ctx context.Context, sess session.Session, category, filename string, data []byte, crop *image.Rectangle) (string, error) {
	user, err := session.UserID(ctx, sess)
	if err != nil {
		return "", err
	}

	if s.objects == nil {
		return "", apperr.Backend("uploadImage", errors.New("image storage is not configured"))
	}
	if !storage.ValidCategory(category) {
		return "", apperr.Validation("uploadImage", map[string]string{"category": "category must be recipies or avatars"})
	}
	if len(data) == 0 {
		return "", apperr.Validation("uploadImage", map[string]string{"file": "file is required"})
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", apperr.Validation("uploadImage", map[string]string{
			"file": fmt.Sprintf("file exceeds %d MB", s.maxBytes>>20),
		})
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", apperr.Validation("uploadImage", map[string]string{"file": "file must be an image"})
	}
	contentType, ext := mt.String(), mt.Extension()

	if category == storage.CategoryAvatar {
		rect := image.Rectangle{}
		if crop != nil {
			rect = *crop
		}
		cropped, err := storage.CropAvatar(data, rect)
		if errors.Is(err, storage.ErrImageTooLarge) {
			return "", apperr.Validation("uploadImage", map[string]string{"file": "image dimensions are too large"})
		}
		if err != nil {
			return "", apperr.Validation("uploadImage", map[string]string{"file": "image could not be decoded"})
		}
		data, contentType, ext = cropped, "image/png", ".png"
	}

	path := storage.ObjectPath(user, category, ext)
	if err := s.objects.Upload(ctx, path, contentType, bytes.NewReader(data)); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": user, "path": path}).Error("upload failed")
		return "", apperr.Backend("uploadImage", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user, "path": path, "original": filename}).Info("image uploaded")
	return s.objects.PublicURL(path), nil
}
