package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

// Category groups persisted images under the public upload tree.
type Category string

const (
	CategoryFloorPlan Category = "floor-plan"
	Category3DView    Category = "3d-view"
	CategoryMaterial  Category = "material"
)

// categoryDirs maps each category to its directory under uploads/.
var categoryDirs = map[Category]string{
	CategoryFloorPlan: "floor-plans",
	Category3DView:    "3d-views",
	CategoryMaterial:  "materials",
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if _, ok := categoryDirs[c]; !ok {
		return "", apperr.BadRequest("category", "category must be one of: floor-plan, 3d-view, material")
	}
	return c, nil
}

// Dir is the directory name of the category under uploads/.
func (c Category) Dir() string { return categoryDirs[c] }

var extByMIME = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

const defaultMaxBytes = 20 << 20

// Mirror receives a copy of every persisted image.
type Mirror interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

type Options struct {
	PublicDir  string
	URLPrefix  string
	HTTPClient *http.Client
	Mirror     Mirror
	MaxBytes   int64
}

// Store writes images to <PublicDir>/uploads/<category dir>/<projectId>/<uuid>.<ext>
// and hands back their public URL.
type Store struct {
	uploadsDir string
	urlPrefix  string
	client     *http.Client
	mirror     Mirror
	maxBytes   int64
}

type Saved struct {
	URL         string `json:"url"`
	Path        string `json:"-"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
}

func New(opt Options) *Store {
	if opt.URLPrefix == "" {
		opt.URLPrefix = "/uploads"
	}
	if opt.HTTPClient == nil {
		opt.HTTPClient = NewFetchClient(30 * time.Second)
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = defaultMaxBytes
	}
	return &Store{
		uploadsDir: filepath.Join(opt.PublicDir, "uploads"),
		urlPrefix:  strings.TrimSuffix(opt.URLPrefix, "/"),
		client:     opt.HTTPClient,
		mirror:     opt.Mirror,
		maxBytes:   opt.MaxBytes,
	}
}

// UploadsDir is the filesystem root served at the URL prefix.
func (s *Store) UploadsDir() string { return s.uploadsDir }

// Save persists an inline data URI or an http(s) URL. Any other source is a
// FormatError, returned before touching the network or disk.
func (s *Store) Save(ctx context.Context, source, projectID string, cat Category) (*Saved, error) {
	source = strings.TrimSpace(source)
	lower := strings.ToLower(source)

	var fetch func() ([]byte, string, error)
	var kind string
	switch {
	case strings.HasPrefix(lower, "data:"):
		kind = "data-uri"
		fetch = func() ([]byte, string, error) { return decodeDataURI(source) }
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		kind = "url"
		fetch = func() ([]byte, string, error) { return s.download(ctx, source) }
	default:
		return nil, apperr.New(apperr.KindFormat, "unsupported image source: expected a data URI or an http(s) URL")
	}
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if _, ok := categoryDirs[cat]; !ok {
		return nil, apperr.BadRequest("category", "unknown image category")
	}

	data, ext, err := fetch()
	if err != nil {
		return nil, err
	}
	return s.write(ctx, data, ext, projectID, cat, kind)
}

// SaveBytes persists raw image bytes, picking the extension from contentType
// or by sniffing.
func (s *Store) SaveBytes(ctx context.Context, data []byte, contentType, projectID string, cat Category) (*Saved, error) {
	if len(data) == 0 {
		return nil, apperr.MissingField("image")
	}
	if err := validateProjectID(projectID); err != nil {
		return nil, err
	}
	if _, ok := categoryDirs[cat]; !ok {
		return nil, apperr.BadRequest("category", "unknown image category")
	}
	ext := extFor(contentType, "", data)
	return s.write(ctx, data, ext, projectID, cat, "bytes")
}

// ProjectDir is the directory holding a project's images of one category.
func (s *Store) ProjectDir(projectID string, cat Category) string {
	return filepath.Join(s.uploadsDir, cat.Dir(), projectID)
}

// URLFor returns the public URL of a file inside the uploads tree.
func (s *Store) URLFor(fsPath string) (string, error) {
	rel, err := filepath.Rel(s.uploadsDir, fsPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside %s", fsPath, s.uploadsDir)
	}
	return s.urlPrefix + "/" + filepath.ToSlash(rel), nil
}

// Resolve maps a public URL produced by this store back to its file path.
func (s *Store) Resolve(publicURL string) (string, error) {
	if !strings.HasPrefix(publicURL, s.urlPrefix+"/") {
		return "", fmt.Errorf("%q is not under %s", publicURL, s.urlPrefix)
	}
	rel := path.Clean(strings.TrimPrefix(publicURL, s.urlPrefix+"/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%q escapes the uploads dir", publicURL)
	}
	return filepath.Join(s.uploadsDir, filepath.FromSlash(rel)), nil
}

// Remove deletes a file previously returned by Save or SaveBytes. A missing
// file is not an error.
func (s *Store) Remove(publicURL string) error {
	fsPath, err := s.Resolve(publicURL)
	if err != nil {
		return err
	}
	if err := os.Remove(fsPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) write(ctx context.Context, data []byte, ext, projectID string, cat Category, kind string) (*Saved, error) {
	dir := s.ProjectDir(projectID, cat)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "create image dir")
	}

	name := uuid.NewString() + ext
	fsPath := filepath.Join(dir, name)
	if err := os.WriteFile(fsPath, data, 0o644); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "write image")
	}

	contentType := mime.TypeByExtension(ext)
	saved := &Saved{
		URL:         s.urlPrefix + "/" + cat.Dir() + "/" + projectID + "/" + name,
		Path:        fsPath,
		ContentType: contentType,
		Size:        len(data),
	}
	metrics.ImagesPersisted.WithLabelValues(string(cat), kind).Inc()

	if s.mirror != nil {
		key := path.Join("uploads", cat.Dir(), projectID, name)
		if err := s.mirror.Put(ctx, key, data, contentType); err != nil {
			metrics.ImageMirrorFailures.Inc()
			logging.FromContext(ctx).Warn("image mirror upload failed", "key", key, "error", err)
		}
	}
	return saved, nil
}

func (s *Store) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindFormat, err, "invalid image URL")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return nil, "", apperr.BadRequest("source", "image URL must point to a public address")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", apperr.Wrap(apperr.KindTimeout, err, "fetching image timed out")
		}
		return nil, "", apperr.Wrap(apperr.KindIO, err, "fetch image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.New(apperr.KindIO, "fetch image: remote returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", apperr.Wrap(apperr.KindIO, err, "read image body")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", apperr.BadRequest("source", fmt.Sprintf("image exceeds %d bytes", s.maxBytes))
	}
	if len(data) == 0 {
		return nil, "", apperr.New(apperr.KindFormat, "remote image is empty")
	}

	sniffed := http.DetectContentType(data)
	if !strings.HasPrefix(sniffed, "image/") {
		return nil, "", apperr.New(apperr.KindFormat, "remote content is %s, not an image", sniffed)
	}

	return data, extFor(resp.Header.Get("Content-Type"), req.URL.Path, data), nil
}

// decodeDataURI handles data:<mime>;base64,<payload>.
func decodeDataURI(src string) ([]byte, string, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, "", apperr.New(apperr.KindFormat, "malformed data URI")
	}
	meta := strings.ToLower(src[len("data:"):comma])
	payload := src[comma+1:]

	parts := strings.Split(meta, ";")
	mediaType := strings.TrimSpace(parts[0])
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "base64" {
			isBase64 = true
		}
	}
	if !isBase64 {
		return nil, "", apperr.New(apperr.KindFormat, "data URI must be base64 encoded")
	}
	ext, ok := extByMIME[mediaType]
	if !ok {
		return nil, "", apperr.New(apperr.KindFormat, "unsupported image type %q", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, "", apperr.Wrap(apperr.KindFormat, err, "invalid base64 payload")
		}
	}
	if len(data) == 0 {
		return nil, "", apperr.New(apperr.KindFormat, "data URI is empty")
	}
	return data, ext, nil
}

func extFor(contentType, urlPath string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		if ext, ok := extByMIME[mt]; ok {
			return ext
		}
	}
	if ext := strings.ToLower(path.Ext(urlPath)); ext != "" {
		for _, known := range extByMIME {
			if known == ext {
				return ext
			}
		}
		if ext == ".jpeg" {
			return ".jpg"
		}
	}
	if ext, ok := extByMIME[http.DetectContentType(data)]; ok {
		return ext
	}
	return ".png"
}

func validateProjectID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.MissingField("projectId")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return apperr.BadRequest("projectId", "projectId contains invalid characters")
	}
	return nil
}
