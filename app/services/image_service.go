package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"math"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

const (
	defaultListLimit = 100
	statsListLimit   = 1000

	// maxImagePixels bounds what Compress will decode. MAX_FILE_SIZE limits
	// bytes, and a small compressed file can declare a huge canvas.
	maxImagePixels = 50_000_000
)

// Upload is an image file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
	// SizeHint is the declared size when Data was not read, e.g. for a part
	// already known to be too large.
	SizeHint int64
}

// Size is the declared size, or the length of Data.
func (u Upload) Size() int64 {
	if u.SizeHint > 0 {
		return u.SizeHint
	}
	return int64(len(u.Data))
}

// Validation is the verdict of ImageService.Validate.
type Validation struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Progress reports an upload's state. Percent is 0 until the object is
// stored, then 100 with URL set. A failed upload reports Done with Error.
type Progress struct {
	Percent int    `json:"progress"`
	Done    bool   `json:"is_complete"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StoredImage is one object listed from the bucket.
type StoredImage struct {
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Stats summarizes bucket usage.
type Stats struct {
	TotalFiles         int    `json:"total_files"`
	TotalSize          int64  `json:"total_size"`
	TotalSizeFormatted string `json:"total_size_formatted"`
}

// ImageOptions are the rendering hints accepted by OptimizedURL.
type ImageOptions struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// ImageService validates, compresses and stores product images.
type ImageService struct {
	disk    storage.Disk
	pool    *workerpool.Pool
	cfg     config.Storefront
	keyExpr *regexp.Regexp
	now     func() time.Time
}

func NewImageService(disk storage.Disk, pool *workerpool.Pool, cfg config.Storefront) *ImageService {
	return &ImageService{
		disk:    disk,
		pool:    pool,
		cfg:     cfg,
		keyExpr: regexp.MustCompile(`/storage/v1/object/public/` + regexp.QuoteMeta(disk.Bucket()) + `/(.+)$`),
		now:     time.Now,
	}
}

// Validate checks type, size and format, in that order.
func (s *ImageService) Validate(file Upload) Validation {
	ct := mediaType(file.ContentType)
	if ct == "" && len(file.Data) > 0 {
		ct = mediaType(mimetype.Detect(file.Data).String())
	}

	if !strings.HasPrefix(ct, "image/") {
		return Validation{Message: "File must be an image"}
	}
	if file.Size() > s.cfg.MaxFileSize {
		return Validation{Message: "Image size must be less than " + sizeLabel(s.cfg.MaxFileSize)}
	}
	for _, f := range s.cfg.SupportedFormats {
		if f == ct {
			return Validation{Valid: true}
		}
	}
	return Validation{Message: "Supported formats: " + formatNames(s.cfg.SupportedFormats)}
}

// Compress downsizes the image so neither side exceeds MAX_IMAGE_DIMENSION
// and re-encodes it as JPEG. quality nil means IMAGE_QUALITY. The name is
// kept.
func (s *ImageService) Compress(file Upload, quality *float64) (Upload, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return Upload{}, &apperr.Error{Kind: apperr.KindValidation, Op: "images.compress", Message: "Failed to load image", Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return Upload{}, apperr.Invalid("images.compress",
			fmt.Sprintf("Image dimensions must not exceed %d megapixels", maxImagePixels/1_000_000))
	}

	src, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return Upload{}, &apperr.Error{Kind: apperr.KindValidation, Op: "images.compress", Message: "Failed to load image", Err: err}
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), s.cfg.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	q := s.cfg.ImageQuality
	if quality != nil {
		q = *quality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(q)}); err != nil {
		return Upload{}, &apperr.Error{Kind: apperr.KindValidation, Op: "images.compress", Message: "Failed to compress image", Err: err}
	}

	return Upload{Name: file.Name, ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}

// Upload validates, compresses and stores file, returning its public URL.
// Invalid files fail before storage is contacted. onProgress may be nil.
func (s *ImageService) Upload(ctx context.Context, file Upload, onProgress func(Progress)) (string, error) {
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}
	fail := func(outcome string, err error) (string, error) {
		metrics.ImageOperations.WithLabelValues("upload", outcome).Inc()
		notify(Progress{Done: true, Error: apperr.Public(err)})
		return "", err
	}

	notify(Progress{})

	if v := s.Validate(file); !v.Valid {
		return fail("rejected", apperr.Invalid("images.upload", v.Message))
	}
	compressed, err := s.Compress(file, nil)
	if err != nil {
		return fail("rejected", err)
	}

	key := s.objectKey(file.Name)
	body := bytes.NewReader(compressed.Data)
	if err := s.disk.Put(ctx, key, body, int64(len(compressed.Data)), compressed.ContentType); err != nil {
		logger.WithCtx(ctx).Error("images: upload failed", "key", key, "error", err)
		return fail("failed", apperr.Storage("images.upload", "Upload failed", err))
	}

	u := s.PublicURL(key)
	metrics.ImageOperations.WithLabelValues("upload", "ok").Inc()
	notify(Progress{Percent: 100, Done: true, URL: u})
	return u, nil
}

// Delete removes the object behind a public URL of this bucket.
func (s *ImageService) Delete(ctx context.Context, imageURL string) error {
	key, err := s.KeyFromURL(imageURL)
	if err != nil {
		metrics.ImageOperations.WithLabelValues("delete", "rejected").Inc()
		return err
	}
	if err := s.disk.Delete(ctx, key); err != nil {
		logger.WithCtx(ctx).Error("images: delete failed", "key", key, "error", err)
		metrics.ImageOperations.WithLabelValues("delete", "failed").Inc()
		return apperr.Storage("images.delete", "Delete failed", err)
	}
	metrics.ImageOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}

// UploadMany uploads files through the worker pool. URLs come back in input
// order. If any upload fails the whole call fails; uploads that already
// succeeded stay stored.
func (s *ImageService) UploadMany(ctx context.Context, files []Upload, onProgress func(int, Progress)) ([]string, error) {
	urls := make([]string, len(files))
	errs := s.pool.Each(len(files), func(i int) error {
		var progress func(Progress)
		if onProgress != nil {
			progress = func(p Progress) { onProgress(i, p) }
		}
		u, err := s.Upload(ctx, files[i], progress)
		urls[i] = u
		return err
	})
	if err := errors.Join(errs...); err != nil {
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.Name
		}
		if fields := rejected(names, errs); fields != nil {
			return nil, apperr.Validation("images.upload_many", fields)
		}
		return nil, apperr.Storage("images.upload_many", "Failed to upload one or more images", err)
	}
	return urls, nil
}

// rejected maps each failed input to its validation message, or returns nil
// when any failure came from storage.
func rejected(names []string, errs []error) map[string]string {
	fields := map[string]string{}
	for i, err := range errs {
		if err == nil {
			continue
		}
		if !apperr.Is(err, apperr.KindValidation) {
			return nil
		}
		fields[names[i]] = apperr.Public(err)
	}
	return fields
}

// DeleteMany deletes urls through the worker pool; any failure fails the
// call. URLs outside the bucket are reported per URL as validation errors.
func (s *ImageService) DeleteMany(ctx context.Context, urls []string) error {
	errs := s.pool.Each(len(urls), func(i int) error { return s.Delete(ctx, urls[i]) })
	if err := errors.Join(errs...); err != nil {
		if fields := rejected(urls, errs); fields != nil {
			return apperr.Validation("images.delete_many", fields)
		}
		return apperr.Storage("images.delete_many", "Failed to delete one or more images", err)
	}
	return nil
}

// EnsureBucket creates the bucket when it is missing.
func (s *ImageService) EnsureBucket(ctx context.Context) error {
	if err := s.disk.Ensure(ctx); err != nil {
		logger.WithCtx(ctx).Error("images: bucket initialization failed", "bucket", s.disk.Bucket(), "error", err)
		return apperr.Storage("images.ensure_bucket", "Bucket initialization failed", err)
	}
	return nil
}

// List returns up to limit images under folder, newest first. limit <= 0
// means 100.
func (s *ImageService) List(ctx context.Context, folder string, limit int) ([]StoredImage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	objs, err := s.disk.List(ctx, folder, limit)
	if err != nil {
		logger.WithCtx(ctx).Error("images: list failed", "folder", folder, "error", err)
		return nil, apperr.Storage("images.list", "List failed", err)
	}

	images := make([]StoredImage, len(objs))
	for i, o := range objs {
		images[i] = StoredImage{Name: o.Key, URL: s.PublicURL(o.Key), Size: o.Size, LastModified: o.LastModified}
	}
	return images, nil
}

// Stats counts up to 1000 stored files and their total size.
func (s *ImageService) Stats(ctx context.Context) (Stats, error) {
	images, err := s.List(ctx, "", statsListLimit)
	if err != nil {
		return Stats{}, err
	}
	var total int64
	for _, img := range images {
		total += img.Size
	}
	return Stats{
		TotalFiles:         len(images),
		TotalSize:          total,
		TotalSizeFormatted: humanize.IBytes(uint64(total)),
	}, nil
}

// OptimizedURL returns imageURL unchanged; no transformation service sits in
// front of the bucket.
func (s *ImageService) OptimizedURL(imageURL string, _ ImageOptions) string {
	return imageURL
}

// MaxFileSize is the per-image upload limit in bytes.
func (s *ImageService) MaxFileSize() int64 { return s.cfg.MaxFileSize }

// PublicURL is the public address of key.
func (s *ImageService) PublicURL(key string) string {
	return s.cfg.PublicObjectBase() + "/" + key
}

// KeyFromURL extracts the object key from a public URL of this bucket.
func (s *ImageService) KeyFromURL(imageURL string) (string, error) {
	invalid := apperr.Invalid("images.delete", "Invalid image URL format")

	u, err := url.Parse(imageURL)
	if err != nil {
		return "", invalid
	}
	m := s.keyExpr.FindStringSubmatch(u.EscapedPath())
	if m == nil {
		return "", invalid
	}
	key, err := url.PathUnescape(m[1])
	if err != nil || key == "" {
		return "", invalid
	}
	return key, nil
}

// objectKey names a stored file <unix millis>_<random>.<ext>, keeping the
// lowercased extension of the original name.
func (s *ImageService) objectKey(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		ext = "jpg"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d_%s.%s", s.now().UnixMilli(), token, ext)
}

// fitWithin scales w×h down so neither side exceeds max, keeping the aspect
// ratio. Images already within bounds are returned as is.
func fitWithin(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	ratio := math.Min(float64(limit)/float64(w), float64(limit)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

func jpegQuality(q float64) int {
	n := int(math.Round(q * 100))
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}

func mediaType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

func sizeLabel(n int64) string {
	const mb = 1 << 20
	if n > 0 && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return humanize.IBytes(uint64(n))
}

var formatLabels = map[string]string{
	"image/jpeg": "JPEG",
	"image/jpg":  "JPEG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
	"image/webp": "WebP",
}

func formatNames(formats []string) string {
	seen := map[string]bool{}
	var names []string
	for _, f := range formats {
		label, ok := formatLabels[f]
		if !ok {
			label = strings.ToUpper(strings.TrimPrefix(f, "image/"))
		}
		if !seen[label] {
			seen[label] = true
			names = append(names, label)
		}
	}
	return strings.Join(names, ", ")
}
