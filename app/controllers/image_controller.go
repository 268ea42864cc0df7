package controllers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	maxFilesPerUpload = 10
	multipartMemory   = 32 << 20
	uploadTimeout     = 2 * time.Minute
)

type ImageController struct {
	images *services.ImageService
}

func NewImageController(images *services.ImageService) *ImageController {
	return &ImageController{images: images}
}

// Store uploads every "images" part of a multipart form and returns their
// public URLs in form order. Uploads keep running if the client goes away.
func (ic *ImageController) Store(c *ctx.Context) {
	limit := ic.images.MaxFileSize()*maxFilesPerUpload + 1<<20
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, limit)
	if err := c.R.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Error(http.StatusRequestEntityTooLarge, "Upload is too large")
			return
		}
		c.Error(http.StatusBadRequest, "Request must be multipart/form-data")
		return
	}
	defer c.R.MultipartForm.RemoveAll() //nolint:errcheck

	headers := c.R.MultipartForm.File["images"]
	if len(headers) == 0 {
		c.ValidationError(map[string]string{"images": "At least one image is required."})
		return
	}
	if len(headers) > maxFilesPerUpload {
		c.ValidationError(map[string]string{"images": "At most 10 images can be uploaded at once."})
		return
	}

	files := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := ic.readPart(fh)
		if err != nil {
			c.Error(http.StatusBadRequest, "Could not read uploaded file")
			return
		}
		files = append(files, up)
	}

	log := logger.WithCtx(c.Context())
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Context()), uploadTimeout)
	defer cancel()

	urls, err := ic.images.UploadMany(uploadCtx, files, func(i int, p services.Progress) {
		log.Debug("images: upload progress", "file", files[i].Name, "progress", p.Percent, "done", p.Done, "error", p.Error)
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(map[string][]string{"urls": urls})
}

// readPart reads a part into memory unless it is already over the size
// limit, in which case only its declared size is kept so validation can
// reject it.
func (ic *ImageController) readPart(fh *multipart.FileHeader) (services.Upload, error) {
	up := services.Upload{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type")}
	if fh.Size > ic.images.MaxFileSize() {
		up.SizeHint = fh.Size
		return up, nil
	}
	f, err := fh.Open()
	if err != nil {
		return up, err
	}
	defer f.Close()
	up.Data, err = io.ReadAll(f)
	return up, err
}

type deleteImagesInput struct {
	URLs []string `json:"urls" validate:"required,min=1"`
}

// Destroy deletes the listed image URLs.
func (ic *ImageController) Destroy(c *ctx.Context) {
	var in deleteImagesInput
	if !c.BindJSON(&in) {
		return
	}
	if err := ic.images.DeleteMany(c.Context(), in.URLs); err != nil {
		c.Fail(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Index lists stored images under ?folder=, newest first.
func (ic *ImageController) Index(c *ctx.Context) {
	images, err := ic.images.List(c.Context(), c.Query("folder"), c.IntQuery("limit", 0))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(images)
}

// Stats reports bucket usage.
func (ic *ImageController) Stats(c *ctx.Context) {
	stats, err := ic.images.Stats(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(stats)
}
