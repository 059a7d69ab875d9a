package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/buildwise-ai/buildwise-backend/internal/apperr"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/metrics"
)

const (
	// WorkDirPattern prefixes every per-job temp dir; the sweeper matches on it.
	WorkDirPattern = "enhance-*"

	defaultTimeout = 120 * time.Second
	defaultDPI     = 300
	maxStderr      = 4 << 10
	probeTimeout   = 15 * time.Second
)

type Config struct {
	// Python is the interpreter (or the tool binary when Script is empty).
	Python string
	Script string
	// WorkDir is where per-job temp dirs are created.
	WorkDir       string
	Timeout       time.Duration
	MaxConcurrent int
	DPI           int
	// ProbeArgs, when set, is run once with Python to verify the tool's
	// libraries are importable, e.g. ["-c", "import cv2, numpy"].
	ProbeArgs []string
}

// Runner executes the external floor plan processing tool, one process per job.
type Runner struct {
	cfg      Config
	sem      *semaphore.Weighted
	probedOK atomic.Bool
	lookPath func(string) (string, error)
}

func NewRunner(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaultDPI
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	r := &Runner{cfg: cfg, lookPath: exec.LookPath}
	if cfg.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	return r
}

// WorkDir returns the directory holding per-job temp dirs.
func (r *Runner) WorkDir() string { return r.cfg.WorkDir }

// CheckDependencies fails with DependencyMissing when the tool cannot be run.
func (r *Runner) CheckDependencies(ctx context.Context) error {
	if _, err := r.lookPath(r.cfg.Python); err != nil {
		return apperr.Wrap(apperr.KindDependencyMissing, err, "floor plan processor %q not found", r.cfg.Python)
	}
	if r.cfg.Script != "" {
		if _, err := os.Stat(r.cfg.Script); err != nil {
			return apperr.Wrap(apperr.KindDependencyMissing, err, "floor plan processing script %q not found", r.cfg.Script)
		}
	}
	if len(r.cfg.ProbeArgs) == 0 || r.probedOK.Load() {
		return nil
	}

	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(pctx, r.cfg.Python, r.cfg.ProbeArgs...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		e := apperr.Wrap(apperr.KindDependencyMissing, err, "floor plan processor dependencies are not installed")
		e.Detail = truncate(stderr.String())
		return e
	}
	r.probedOK.Store(true)
	return nil
}

// Run processes raw image bytes.
func (r *Runner) Run(ctx context.Context, image []byte, opts Options) (*Result, error) {
	if len(image) == 0 {
		return nil, apperr.MissingField("image")
	}
	if err := r.CheckDependencies(ctx); err != nil {
		r.record(err)
		return nil, err
	}

	return r.withWorkDir(ctx, func(dir string) (*Result, error) {
		input := filepath.Join(dir, "input"+sniffExt(image))
		if err := os.WriteFile(input, image, 0o600); err != nil {
			return nil, apperr.Wrap(apperr.KindIO, err, "write input image")
		}
		return r.execute(ctx, dir, input, opts)
	})
}

// RunFile processes an image already on disk. The input is checked before
// anything else, so a bad path never reaches the tool.
func (r *Runner) RunFile(ctx context.Context, inputPath string, opts Options) (*Result, error) {
	st, err := os.Stat(inputPath)
	if err != nil {
		e := apperr.Wrap(apperr.KindIO, err, "input image %q is not readable", inputPath)
		r.record(e)
		return nil, e
	}
	if st.IsDir() {
		e := apperr.New(apperr.KindIO, "input image %q is a directory", inputPath)
		r.record(e)
		return nil, e
	}
	if err := r.CheckDependencies(ctx); err != nil {
		r.record(err)
		return nil, err
	}

	return r.withWorkDir(ctx, func(dir string) (*Result, error) {
		return r.execute(ctx, dir, inputPath, opts)
	})
}

func (r *Runner) withWorkDir(ctx context.Context, fn func(dir string) (*Result, error)) (*Result, error) {
	if err := r.acquire(ctx); err != nil {
		r.record(err)
		return nil, err
	}
	defer r.release()

	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		e := apperr.Wrap(apperr.KindIO, err, "create work dir")
		r.record(e)
		return nil, e
	}
	dir, err := os.MkdirTemp(r.cfg.WorkDir, WorkDirPattern)
	if err != nil {
		e := apperr.Wrap(apperr.KindIO, err, "create job dir")
		r.record(e)
		return nil, e
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			metrics.EnhanceCleanupFailures.Inc()
			logging.FromContext(ctx).Warn("enhance cleanup failed", "dir", dir, "error", err)
		}
	}()

	res, err := fn(dir)
	r.record(err)
	return res, err
}

func (r *Runner) acquire(ctx context.Context) error {
	if r.sem == nil {
		return nil
	}
	if err := r.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.Wrap(apperr.KindTimeout, err, "timed out waiting for a processing slot")
		}
		return apperr.Internal(err)
	}
	return nil
}

func (r *Runner) release() {
	if r.sem != nil {
		r.sem.Release(1)
	}
}

func (r *Runner) execute(ctx context.Context, dir, input string, opts Options) (*Result, error) {
	output := filepath.Join(dir, "enhanced.png")
	dataPath := ""
	if opts.Capabilities.Has(ExportData) {
		dataPath = filepath.Join(dir, "plan-data.json")
	}

	args := r.args(input, output, dataPath, opts)

	cmdCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.cfg.Python, args...)
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := logging.FromContext(ctx)
	log.Debug("enhance job starting", "scheme", opts.Scheme, "capabilities", opts.Capabilities.String())

	metrics.EnhanceJobsRunning.Inc()
	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)
	metrics.EnhanceJobsRunning.Dec()
	metrics.EnhanceJobDuration.Observe(elapsed.Seconds())

	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		e := apperr.Wrap(apperr.KindTimeout, cmdCtx.Err(), "floor plan processing exceeded %s", r.cfg.Timeout)
		e.Detail = truncate(stderr.String())
		return nil, e
	}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.KindTimeout, ctx.Err(), "request deadline exceeded during floor plan processing")
		}
		return nil, apperr.Internal(ctx.Err())
	}
	if runErr != nil {
		e := apperr.Wrap(apperr.KindProcessingFailed, runErr, "floor plan processing failed")
		e.Detail = truncate(stderr.String())
		return nil, e
	}

	res := &Result{}
	var err error
	if res.Image, err = readOutput(output); err != nil {
		return nil, err
	}
	if opts.Capabilities.Has(Render3D) {
		if res.View3D, err = readOutput(View3DPath(output)); err != nil {
			return nil, err
		}
	}
	if dataPath != "" {
		raw, err := readOutput(dataPath)
		if err != nil {
			return nil, err
		}
		if res.Data, err = parsePlanData(raw); err != nil {
			return nil, err
		}
	}

	log.Info("enhance job finished", "duration_ms", elapsed.Milliseconds(), "bytes", len(res.Image))
	return res, nil
}

// args builds the tool's command line after the interpreter.
func (r *Runner) args(input, output, dataPath string, opts Options) []string {
	scheme := opts.Scheme
	if scheme == "" {
		scheme = SchemeDefault
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = r.cfg.DPI
	}

	var args []string
	if r.cfg.Script != "" {
		args = append(args, r.cfg.Script)
	}
	args = append(args, input, "-o", output, "-c", string(scheme), "-d", strconv.Itoa(dpi))
	if opts.HideDimensions {
		args = append(args, "--no-dimensions")
	}
	if opts.HideLabels {
		args = append(args, "--no-labels")
	}
	if opts.Capabilities.Has(Render3D) {
		args = append(args, "--3d")
	}
	if dataPath != "" {
		args = append(args, "--export-data", dataPath)
	}
	return args
}

func (r *Runner) record(err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	metrics.EnhanceJobsTotal.WithLabelValues(outcome).Inc()
}

// View3DPath is where the tool writes the 3D render for output: <base>_3d<ext>.
func View3DPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + "_3d" + ext
}

func readOutput(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, apperr.Wrap(apperr.KindProcessingFailed, err, "output not produced: %s", filepath.Base(path))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, err, "read %s", filepath.Base(path))
	}
	return b, nil
}

func parsePlanData(raw []byte) (*PlanData, error) {
	var pd PlanData
	if err := json.Unmarshal(raw, &pd); err != nil {
		return nil, apperr.Wrap(apperr.KindProcessingFailed, err, "data export is not valid JSON")
	}
	pd.Raw = raw
	return &pd, nil
}

func sniffExt(b []byte) string {
	switch http.DetectContentType(b) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".png"
	}
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		return s[len(s)-maxStderr:]
	}
	return s
}
