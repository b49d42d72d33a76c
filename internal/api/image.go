package api

import (
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/chef-next-door/backend/internal/middleware"
	"github.com/pageza/chef-next-door/backend/internal/service"
)

// ImageHandler accepts multipart uploads for recipe photos and avatars.
type ImageHandler struct {
	images service.IImageService
}

func NewImageHandler(images service.IImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

func (h *ImageHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/images", middleware.RequireAuth(), h.Upload)
}

// cropRect reads the optional crop_x, crop_y, crop_width and crop_height
// form fields. All four must be present for a crop to apply.
func cropRect(c *gin.Context) (*image.Rectangle, bool) {
	names := []string{"crop_x", "crop_y", "crop_width", "crop_height"}
	vals := make([]int, len(names))
	present := 0
	for i, name := range names {
		raw := c.PostForm(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid "+name)
			return nil, false
		}
		vals[i] = n
		present++
	}
	switch present {
	case 0:
		return nil, true
	case len(names):
		rect := image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3])
		return &rect, true
	default:
		badRequest(c, "crop needs crop_x, crop_y, crop_width and crop_height")
		return nil, false
	}
}

func (h *ImageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	crop, ok := cropRect(c)
	if !ok {
		return
	}

	f, err := header.Open()
	if err != nil {
		badRequest(c, "file could not be read")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, "file could not be read")
		return
	}

	url, err := h.images.Upload(c.Request.Context(), middleware.GetSession(c), c.PostForm("category"), header.Filename, data, crop)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
