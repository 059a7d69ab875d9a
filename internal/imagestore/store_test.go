package imagestore

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake")

func dataURI(mime string, b []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

type recordingMirror struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *recordingMirror) Put(_ context.Context, key string, _ []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return m.err
}

func TestSave_DataURIRoundTrip(t *testing.T) {
	public := t.TempDir()
	s := New(Options{PublicDir: public})

	saved, err := s.Save(context.Background(), dataURI("image/png", pngBytes), "bw-12345-6789", CategoryFloorPlan)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(saved.URL, "/uploads/floor-plans/bw-12345-6789/"))
	assert.True(t, strings.HasSuffix(saved.URL, ".png"))

	fsPath, err := s.Resolve(saved.URL)
	require.NoError(t, err)
	assert.Equal(t, saved.Path, fsPath)

	got, err := os.ReadFile(fsPath)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
}

func TestSave_IdenticalBytesProduceDistinctFiles(t *testing.T) {
	s := New(Options{PublicDir: t.TempDir()})
	src := dataURI("image/jpeg", pngBytes)

	a, err := s.Save(context.Background(), src, "p1", CategoryMaterial)
	require.NoError(t, err)
	b, err := s.Save(context.Background(), src, "p1", CategoryMaterial)
	require.NoError(t, err)

	assert.NotEqual(t, a.URL, b.URL)
	assert.True(t, strings.HasSuffix(a.URL, ".jpg"))
	entries, err := os.ReadDir(filepath.Dir(a.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSave_UnsupportedSourceIsFormatErrorWithoutIO(t *testing.T) {
	public := t.TempDir()
	s := New(Options{PublicDir: public})

	for _, src := range []string{"ftp://example.com/a.png", "/local/path.png", "iVBORw0KGgo=", ""} {
		_, err := s.Save(context.Background(), src, "p1", CategoryFloorPlan)
		require.Error(t, err, src)
		assert.Equal(t, apperr.KindFormat, apperr.KindOf(err), src)
	}

	entries, err := os.ReadDir(public)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing should be written for rejected sources")
}

func TestSave_DataURIValidation(t *testing.T) {
	s := New(Options{PublicDir: t.TempDir()})

	cases := []string{
		"data:image/png,rawpayload",
		"data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("hi")),
		"data:image/png;base64,@@@not-base64@@@",
		"data:image/png;base64",
	}
	for _, src := range cases {
		_, err := s.Save(context.Background(), src, "p1", CategoryFloorPlan)
		assert.Equal(t, apperr.KindFormat, apperr.KindOf(err), src)
	}
}

func TestSave_RejectsUnsafeProjectID(t *testing.T) {
	s := New(Options{PublicDir: t.TempDir()})

	_, err := s.Save(context.Background(), dataURI("image/png", pngBytes), "../escape", CategoryFloorPlan)
	e := apperr.As(err)
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, "projectId", e.Field)
}

func TestSave_FetchesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	s := New(Options{PublicDir: t.TempDir(), HTTPClient: srv.Client()})

	saved, err := s.Save(context.Background(), srv.URL+"/render", "p2", Category3DView)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.URL, "/uploads/3d-views/p2/"))
	assert.True(t, strings.HasSuffix(saved.URL, ".webp"))

	got, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = s.Save(context.Background(), srv.URL+"/missing.png", "p2", Category3DView)
	assert.Equal(t, apperr.KindIO, apperr.KindOf(err))
}

func TestSave_URLTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	s := New(Options{PublicDir: t.TempDir(), HTTPClient: srv.Client(), MaxBytes: 16})
	_, err := s.Save(context.Background(), srv.URL+"/big.png", "p2", CategoryFloorPlan)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestSave_RefusesLoopbackURL(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"AccessKeyId":"AKIA","SecretAccessKey":"s3cr3t"}`))
	}))
	defer srv.Close()

	public := t.TempDir()
	s := New(Options{PublicDir: public})

	_, err := s.Save(context.Background(), srv.URL+"/latest/meta-data/iam/security-credentials/role", "p2", CategoryFloorPlan)
	e := apperr.As(err)
	require.NotNil(t, e)
	assert.Equal(t, apperr.KindBadRequest, e.Kind)
	assert.Equal(t, "source", e.Field)
	assert.Zero(t, hits)

	_, statErr := os.Stat(filepath.Join(public, "uploads"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_RejectsNonImageContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte(`{"SecretAccessKey":"s3cr3t"}`))
	}))
	defer srv.Close()

	public := t.TempDir()
	s := New(Options{PublicDir: public, HTTPClient: srv.Client()})

	_, err := s.Save(context.Background(), srv.URL+"/a.png", "p2", CategoryFloorPlan)
	assert.Equal(t, apperr.KindFormat, apperr.KindOf(err))
	_, statErr := os.Stat(filepath.Join(public, "uploads"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublicAddr(t *testing.T) {
	cases := map[string]bool{
		"93.184.216.34":    true,
		"2606:4700::1111":  true,
		"127.0.0.1":        false,
		"::1":              false,
		"10.1.2.3":         false,
		"172.16.0.9":       false,
		"192.168.1.1":      false,
		"169.254.169.254":  false,
		"fe80::1":          false,
		"fd00::1":          false,
		"0.0.0.0":          false,
		"100.64.0.1":       false,
		"::ffff:127.0.0.1": false,
	}
	for ip, want := range cases {
		assert.Equal(t, want, publicAddr(netip.MustParseAddr(ip)), ip)
	}
}

func TestCheckRedirect(t *testing.T) {
	next := httptest.NewRequest(http.MethodGet, "https://cdn.example.com/a.png", nil)
	assert.NoError(t, checkRedirect(next, make([]*http.Request, 1)))
	assert.Error(t, checkRedirect(next, make([]*http.Request, maxRedirects)))

	next = httptest.NewRequest(http.MethodGet, "https://cdn.example.com/a.png", nil)
	next.URL.Scheme = "file"
	assert.Error(t, checkRedirect(next, nil))
}

func TestSaveBytes_MirrorsAndToleratesMirrorFailure(t *testing.T) {
	m := &recordingMirror{err: errors.New("bucket unavailable")}
	s := New(Options{PublicDir: t.TempDir(), Mirror: m})

	saved, err := s.SaveBytes(context.Background(), pngBytes, "", "p3", CategoryFloorPlan)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(saved.URL, ".png"))

	require.Len(t, m.keys, 1)
	assert.Equal(t, "uploads/floor-plans/p3/"+filepath.Base(saved.Path), m.keys[0])
}

func TestResolve_RejectsForeignPaths(t *testing.T) {
	s := New(Options{PublicDir: t.TempDir()})

	_, err := s.Resolve("/static/a.png")
	assert.Error(t, err)
	_, err = s.Resolve("/uploads/../../etc/passwd")
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("3d-view")
	require.NoError(t, err)
	assert.Equal(t, "3d-views", c.Dir())

	_, err = ParseCategory("avatar")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}
