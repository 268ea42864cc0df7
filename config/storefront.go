package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// Storefront is the validated runtime configuration of the catalog service.
// Build it once at startup with LoadStorefront and pass it down explicitly.
type Storefront struct {
	BackendURL string `json:"BACKEND_URL" validate:"required,url"`
	BackendKey string `json:"BACKEND_KEY" validate:"required"`

	AdminUsername string `json:"ADMIN_USERNAME" validate:"required"`
	AdminPassword string `json:"ADMIN_PASSWORD" validate:"required"`
	AdminEmail    string `json:"ADMIN_EMAIL"    validate:"required,email"`

	MaxFileSize      int64    `json:"MAX_FILE_SIZE"           validate:"required,gt=0"`
	SupportedFormats []string `json:"SUPPORTED_IMAGE_FORMATS" validate:"required"`
	ImageQuality     float64  `json:"IMAGE_QUALITY"           validate:"required,between=0.1,1.0"`
	MaxDimension     int      `json:"MAX_IMAGE_DIMENSION"     validate:"required,gte=100"`

	Bucket            string        `json:"STORAGE_BUCKET"     validate:"required,alpha_dash"`
	UploadConcurrency int           `json:"UPLOAD_CONCURRENCY" validate:"gte=1"`
	RefreshDelay      time.Duration `json:"REFRESH_DELAY"`
}

// PublicObjectBase is the URL prefix under which every object of the bucket
// is publicly reachable.
func (s Storefront) PublicObjectBase() string {
	return strings.TrimRight(s.BackendURL, "/") + "/storage/v1/object/public/" + s.Bucket
}

// LoadStorefront reads and validates every storefront key. It returns the
// first parse failure, or all range violations together.
func LoadStorefront() (Storefront, error) {
	if err := Load(); err != nil {
		return Storefront{}, fmt.Errorf("config: %w", err)
	}

	cfg := Storefront{
		BackendURL:    get("BACKEND_URL", ""),
		BackendKey:    get("BACKEND_KEY", ""),
		AdminUsername: get("ADMIN_USERNAME", ""),
		AdminPassword: get("ADMIN_PASSWORD", ""),
		AdminEmail:    get("ADMIN_EMAIL", ""),
		Bucket:        StorageBucket(),
	}

	var err error
	if cfg.MaxFileSize, err = cast.ToInt64E(get("MAX_FILE_SIZE", "0")); err != nil {
		return Storefront{}, fmt.Errorf("config: MAX_FILE_SIZE: %w", err)
	}
	if cfg.ImageQuality, err = cast.ToFloat64E(get("IMAGE_QUALITY", "0")); err != nil {
		return Storefront{}, fmt.Errorf("config: IMAGE_QUALITY: %w", err)
	}
	if cfg.MaxDimension, err = cast.ToIntE(get("MAX_IMAGE_DIMENSION", "0")); err != nil {
		return Storefront{}, fmt.Errorf("config: MAX_IMAGE_DIMENSION: %w", err)
	}
	if cfg.UploadConcurrency, err = cast.ToIntE(get("UPLOAD_CONCURRENCY", "4")); err != nil {
		return Storefront{}, fmt.Errorf("config: UPLOAD_CONCURRENCY: %w", err)
	}
	if cfg.RefreshDelay, err = cast.ToDurationE(get("REFRESH_DELAY", "1s")); err != nil {
		return Storefront{}, fmt.Errorf("config: REFRESH_DELAY: %w", err)
	}

	cfg.SupportedFormats = splitList(get("SUPPORTED_IMAGE_FORMATS", ""))
	for _, f := range cfg.SupportedFormats {
		if !strings.HasPrefix(f, "image/") {
			return Storefront{}, fmt.Errorf("config: SUPPORTED_IMAGE_FORMATS: %q is not an image MIME type", f)
		}
	}

	if errs := validate.Struct(cfg); validate.HasErrors(errs) {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, errs[k])
		}
		return Storefront{}, fmt.Errorf("config: %s", strings.Join(msgs, " "))
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
