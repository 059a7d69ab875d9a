package templates

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/imagestore"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
)

// MetadataFile is the sidecar read from every template directory.
const MetadataFile = "metadata.json"

type RoomCounts struct {
	Bedrooms    int `json:"bedrooms"`
	Bathrooms   int `json:"bathrooms"`
	Kitchens    int `json:"kitchens,omitempty"`
	LivingRooms int `json:"livingRooms,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Unit   string  `json:"unit,omitempty"`
}

// Metadata is the JSON sidecar of a template (or of a copy made from one).
type Metadata struct {
	ProjectID        string     `json:"projectId"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Style            string     `json:"style,omitempty"`
	ImageURL         string     `json:"imageUrl"`
	Rooms            RoomCounts `json:"rooms"`
	Dimensions       Dimensions `json:"dimensions"`
	SourceTemplateID string     `json:"sourceTemplateId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

type Template struct {
	Metadata
	dir string
}

// ID is the template's project id, falling back to its directory name.
func (t Template) ID() string {
	if t.ProjectID != "" {
		return t.ProjectID
	}
	return filepath.Base(t.dir)
}

// Store reads templates from root and copies them into project image dirs.
type Store struct {
	root   string
	images *imagestore.Store
	now    func() time.Time
}

func NewStore(root string, images *imagestore.Store) *Store {
	return &Store{root: root, images: images, now: time.Now}
}

// List scans root; directories without a readable sidecar are skipped, and
// directories produced by Copy are not templates.
func (s *Store) List(ctx context.Context) ([]Template, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return []Template{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "read templates dir")
	}

	log := logging.FromContext(ctx)
	out := make([]Template, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn("template metadata unreadable", "dir", dir, "error", err)
			}
			continue
		}
		var md Metadata
		if err := json.Unmarshal(raw, &md); err != nil {
			log.Warn("template metadata invalid", "dir", dir, "error", err)
			continue
		}
		if md.SourceTemplateID != "" {
			continue
		}
		out = append(out, Template{Metadata: md, dir: dir})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Find returns the template with the given id; ok is false when none matches.
func (s *Store) Find(ctx context.Context, id string) (tpl *Template, ok bool, err error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range all {
		if all[i].ID() == id {
			return &all[i], true, nil
		}
	}
	return nil, false, nil
}

// Copy places a fresh copy of the template image in the project's floor plan
// dir and writes a sidecar pointing at it. The template itself is only read.
func (s *Store) Copy(ctx context.Context, templateID, projectID string) (*Metadata, error) {
	tpl, ok, err := s.Find(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &apperr.Error{Kind: apperr.KindTemplateNotFound, Message: "template " + templateID + " not found"}
	}
	if projectID == "" || strings.ContainsAny(projectID, `/\`) || strings.Contains(projectID, "..") {
		return nil, apperr.BadRequest("projectId", "projectId is invalid")
	}

	src, err := tpl.imagePath()
	if err != nil {
		return nil, err
	}

	destDir := s.images.ProjectDir(projectID, imagestore.CategoryFloorPlan)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "create project dir")
	}

	dest := filepath.Join(destDir, uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	if err := copyFile(src, dest); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "copy template image")
	}

	url, err := s.images.URLFor(dest)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now().UTC()
	md := tpl.Metadata
	md.ProjectID = projectID
	md.ImageURL = url
	md.SourceTemplateID = tpl.ID()
	md.CreatedAt = now
	md.UpdatedAt = now

	raw, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := os.WriteFile(filepath.Join(destDir, MetadataFile), raw, 0o644); err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "write project metadata")
	}

	logging.FromContext(ctx).Info("template copied", "template_id", tpl.ID(), "project_id", projectID)
	return &md, nil
}

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true, ".gif": true, ".svg": true}

// imagePath finds the template image: the file named by imageUrl if present
// in the template dir, otherwise the first image file in it.
func (t Template) imagePath() (string, error) {
	if t.ImageURL != "" {
		candidate := filepath.Join(t.dir, path.Base(t.ImageURL))
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, err, "read template dir")
	}
	for _, e := range entries {
		if !e.IsDir() && imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			return filepath.Join(t.dir, e.Name()), nil
		}
	}
	return "", apperr.New(apperr.KindIO, "template %s has no image file", t.ID())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
