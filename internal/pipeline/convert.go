// Package pipeline converts a batch of inputs: it loads every file, rewrites
// them concurrently and optionally stores the results under an output
// directory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"stupyd/internal/cache"
	"stupyd/internal/diag"
	"stupyd/internal/observ"
	"stupyd/internal/rewrite"
	"stupyd/internal/source"
	"stupyd/internal/trace"
)

const (
	// DefaultExt is the extension given to files written under OutDir.
	DefaultExt = ".cpp"
	// DefaultMaxDiagnostics caps per-file bags when the request sets no limit.
	DefaultMaxDiagnostics = 100
)

// Request describes one batch conversion.
type Request struct {
	Files    []string
	Rewriter *rewrite.Rewriter
	// Jobs limits concurrent conversions; <= 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps every per-file bag; <= 0 means DefaultMaxDiagnostics.
	MaxDiagnostics int
	// Cache is optional; nil disables result caching.
	Cache *cache.DiskCache
	// OutDir, when set, receives one <base><Ext> file per input.
	OutDir   string
	Ext      string
	Progress ProgressSink
	Timer    *observ.Timer
}

// FileResult is the outcome for one input.
type FileResult struct {
	Path   string
	File   *source.File
	Lines  []string
	Bag    *diag.Bag
	Cached bool
	// Written is the output path when the result was stored under OutDir.
	Written string
	// CacheErr records a failed cache read or write; it never fails the run.
	CacheErr error
}

// Output renders the converted text.
func (r *FileResult) Output() []byte {
	return rewrite.Join(r.Lines)
}

// Result holds every converted file in request order.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// Diagnostics merges every per-file bag into one sorted, deduplicated bag.
func (r Result) Diagnostics() *diag.Bag {
	all := diag.NewBag(0)
	for i := range r.Files {
		if r.Files[i].Bag != nil {
			all.Merge(r.Files[i].Bag)
		}
	}
	all.Sort()
	all.Dedup()
	return all
}

// LoadError reports an input that could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Convert runs the batch. Every input is loaded before any conversion
// starts; a load failure aborts the whole batch with no results.
func Convert(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if req == nil || req.Rewriter == nil {
		return result, errors.New("pipeline: missing request or rewriter")
	}
	if len(req.Files) == 0 {
		return result, errors.New("pipeline: no input files")
	}
	if req.OutDir != "" {
		if err := checkOutputs(req); err != nil {
			return result, err
		}
	}

	ctx, span := trace.Start(ctx, trace.ScopeRun, "convert")
	defer span.End("")
	span.Set("files", strconv.Itoa(len(req.Files)))

	emitQueued(req.Progress, req.Files)

	fs, files, err := load(req)
	if err != nil {
		return result, err
	}
	result.FileSet = fs
	result.Files = make([]FileResult, len(files))

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	emit(req.Progress, Event{Stage: StageRewrite, Status: StatusWorking})
	started := time.Now()

	// индексы уникальны для каждой горутины, мьютекс не нужен
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, f := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			res, err := convertOne(gctx, req, req.Files[i], f)
			if err != nil {
				emit(req.Progress, Event{File: req.Files[i], Stage: lastStage(req), Status: StatusError, Err: err, Elapsed: time.Since(start)})
				return err
			}
			result.Files[i] = res
			emit(req.Progress, Event{File: req.Files[i], Stage: lastStage(req), Status: StatusDone, Cached: res.Cached, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		emit(req.Progress, Event{Stage: StageRewrite, Status: StatusError, Err: err, Elapsed: time.Since(started)})
		return result, err
	}
	emit(req.Progress, Event{Stage: StageRewrite, Status: StatusDone, Elapsed: time.Since(started)})
	return result, nil
}

func load(req *Request) (*source.FileSet, []*source.File, error) {
	fs := source.NewFileSet()
	files := make([]*source.File, len(req.Files))
	var err error
	req.Timer.Time("load", func() {
		for i, path := range req.Files {
			emit(req.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
			id, loadErr := fs.Load(path)
			if loadErr != nil {
				err = &LoadError{Path: path, Err: loadErr}
				emit(req.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err})
				return
			}
			files[i] = fs.Get(id)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return fs, files, nil
}

func convertOne(ctx context.Context, req *Request, path string, f *source.File) (FileResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeFile, path)
	defer span.End("")

	maxDiags := req.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = DefaultMaxDiagnostics
	}
	res := FileResult{Path: path, File: f, Bag: diag.NewBag(maxDiags)}
	rs := req.Rewriter.Rules()
	key := cache.Key(rs.Fingerprint(), f.Hash)

	emit(req.Progress, Event{File: path, Stage: StageRewrite, Status: StatusWorking})

	var payload cache.Payload
	hit, err := req.Cache.Get(key, &payload)
	if err != nil {
		res.CacheErr = err
	}
	if hit {
		res.Lines = payload.Lines
		res.Cached = true
		for _, d := range payload.Diags(f.Path) {
			res.Bag.Add(d)
		}
		span.Set("cache", "hit")
	} else {
		res.Lines = req.Rewriter.Rewrite(ctx, f.Lines, rewrite.Options{
			Path:     f.Path,
			Reporter: diag.BagReporter{Bag: res.Bag},
			Timer:    req.Timer,
		})
		if req.Cache != nil {
			if err := req.Cache.Put(key, cache.NewPayload(rs.Fingerprint(), f.Hash, res.Lines, res.Bag.Items())); err != nil {
				res.CacheErr = err
			}
			span.Set("cache", "miss")
		}
	}

	if req.OutDir != "" {
		emit(req.Progress, Event{File: path, Stage: StageWrite, Status: StatusWorking})
		var out string
		req.Timer.Time("write", func() {
			out, err = writeOutput(req.OutDir, path, req.Ext, res.Output())
		})
		if err != nil {
			return res, err
		}
		res.Written = out
	}
	return res, nil
}

func lastStage(req *Request) Stage {
	if req.OutDir != "" {
		return StageWrite
	}
	return StageRewrite
}

// OutputPath returns where the converted form of input is stored under dir.
func OutputPath(dir, input, ext string) string {
	if ext == "" {
		ext = DefaultExt
	}
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+ext)
}

// checkOutputs rejects batches where two inputs would be written to the same file.
func checkOutputs(req *Request) error {
	seen := make(map[string]string, len(req.Files))
	for _, in := range req.Files {
		out := OutputPath(req.OutDir, in, req.Ext)
		if prev, ok := seen[out]; ok {
			return fmt.Errorf("%s and %s both map to %s", prev, in, out)
		}
		seen[out] = in
	}
	return nil
}

func writeOutput(dir, input, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	out := OutputPath(dir, input, ext)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}
