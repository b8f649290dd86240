// Package analyzer orchestrates the six-phase analysis pipeline: graph
// construction, change detection, symbol resolution, IR extraction,
// linking with validation, and cache persistence. Dirty files are
// processed in dependency-ordered parallel batches with a full barrier
// between batches.
package analyzer

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"dartbridge/internal/core/config"
	"dartbridge/internal/core/errors"
	"dartbridge/internal/core/ports"
	"dartbridge/internal/data/cache"
	"dartbridge/internal/engine/ast"
	"dartbridge/internal/engine/extractor"
	"dartbridge/internal/engine/graph"
	"dartbridge/internal/engine/ir"
	"dartbridge/internal/engine/linker"
	"dartbridge/internal/engine/resolver"
	"dartbridge/internal/engine/symbols"
	"dartbridge/internal/engine/validator"
	"dartbridge/internal/frontend/dartlite"
	"dartbridge/internal/scanner"
	"dartbridge/internal/shared/observability"
	"dartbridge/internal/shared/util"
)

// Options carries the optional collaborators. Zero values fall back to the
// built-in frontend and noop sinks.
type Options struct {
	Frontend ports.Frontend
	Progress ports.ProgressSink
	History  ports.HistoryStore
	Logger   *slog.Logger
}

// Analyzer drives repeated analysis runs over one project. The symbol
// registry and incremental cache survive across runs; everything else is
// per-run state.
type Analyzer struct {
	cfg      *config.Config
	root     string
	project  string
	logger   *slog.Logger
	frontend ports.Frontend
	progress ports.ProgressSink
	history  ports.HistoryStore
	throttle *util.Throttle

	scanner  *scanner.Scanner
	resolver *resolver.Resolver
	cache    *cache.Cache
	registry *symbols.Registry

	mu    sync.Mutex
	phase Phase
}

// Result summarizes one completed run.
type Result struct {
	RunID      string
	App        *ir.ApplicationDeclaration
	Validation *validator.Result
	Files      int
	Dirty      int
	CacheHits  int
	Failed     []graph.FileIdentity
	Duration   time.Duration
}

// New builds an analyzer for the project at root. A missing or invalid
// manifest is a fatal initialization error; a broken cache directory is
// not, the run degrades to a full re-analysis.
func New(cfg *config.Config, root string, opts Options) (*Analyzer, error) {
	manifest, err := config.LoadManifest(root, cfg.Paths.SourceRoot)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFatal, "load manifest")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	frontend := opts.Frontend
	if frontend == nil {
		frontend = dartlite.New()
	}
	progress := opts.Progress
	if progress == nil {
		progress = &ports.NoopProgressSink{}
	}
	history := opts.History
	if history == nil {
		history = &ports.NoopHistoryStore{}
	}

	scanCfg := *cfg
	scanCfg.Paths.ProjectRoot = root
	sc, err := scanner.New(&scanCfg, logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFatal, "init scanner")
	}

	var store *cache.Cache
	if cfg.Cache.Enabled {
		store, err = cache.New(cfg.CachePath(root), cfg.Cache.MemEntries, logger)
		if err == nil {
			err = store.Initialize()
		}
		if err != nil {
			logger.Warn("cache unavailable, running without it", "error", err)
			store = nil
		}
	}

	return &Analyzer{
		cfg:      cfg,
		root:     root,
		project:  manifest.Name,
		logger:   logger,
		frontend: frontend,
		progress: progress,
		history:  history,
		throttle: util.NewThrottle(cfg.Telemetry.EventsPerSecond, 1),
		scanner:  sc,
		resolver: resolver.NewResolver(root, manifest.Name),
		cache:    store,
		registry: symbols.NewRegistry(),
		phase:    PhaseIdle,
	}, nil
}

// Phase reports the current pipeline state.
func (a *Analyzer) Phase() Phase {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

func (a *Analyzer) setPhase(p Phase) {
	a.mu.Lock()
	a.phase = p
	a.mu.Unlock()
}

// run is the per-run working set. Maps written from batch workers are
// guarded by mu.
type run struct {
	id       string
	graph    *graph.Graph
	order    []graph.FileIdentity
	contents map[graph.FileIdentity][]byte
	imports  map[graph.FileIdentity][]resolver.ResolvedImport
	dirty    map[graph.FileIdentity]bool
	hashes   map[graph.FileIdentity]string

	mu        sync.Mutex
	units     map[graph.FileIdentity]*ast.CompilationUnit
	decls     map[graph.FileIdentity]*ir.FileDeclaration
	extracted map[graph.FileIdentity]*ir.FileDeclaration
	failed    map[graph.FileIdentity]error
	cacheHits int

	app        *ir.ApplicationDeclaration
	validation *validator.Result
}

// Run executes one full pipeline pass and returns its result. Fatal errors
// (unreadable project, dependency cycles) abort the run with the Error
// phase; per-file failures are collected and the run completes.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r := &run{
		id:        uuid.NewString(),
		graph:     graph.NewGraph(),
		contents:  make(map[graph.FileIdentity][]byte),
		imports:   make(map[graph.FileIdentity][]resolver.ResolvedImport),
		dirty:     make(map[graph.FileIdentity]bool),
		hashes:    make(map[graph.FileIdentity]string),
		units:     make(map[graph.FileIdentity]*ast.CompilationUnit),
		decls:     make(map[graph.FileIdentity]*ir.FileDeclaration),
		extracted: make(map[graph.FileIdentity]*ir.FileDeclaration),
		failed:    make(map[graph.FileIdentity]error),
	}
	a.setPhase(PhaseIdle)
	a.logger.Info("analysis run starting", "run_id", r.id, "project", a.project)

	steps := []struct {
		name string
		next Phase
		fn   func(context.Context, *run) error
	}{
		{"graph", PhaseGraphBuilt, a.buildGraph},
		{"changes", PhaseChangesDetected, a.detectChanges},
		{"symbols", PhaseSymbolsResolved, a.resolveSymbols},
		{"extract", PhaseIRGenerated, a.extractIR},
		{"link", PhaseLinked, a.linkAndValidate},
		{"persist", PhaseCachePersisted, a.persist},
	}
	for _, step := range steps {
		if err := a.runPhase(ctx, r, step.name, step.next, step.fn); err != nil {
			return nil, err
		}
	}
	a.setPhase(PhaseComplete)

	res := &Result{
		RunID:      r.id,
		App:        r.app,
		Validation: r.validation,
		Files:      len(r.order),
		Dirty:      len(r.dirty),
		CacheHits:  r.cacheHits,
		Failed:     sortedFileKeys(r.failed),
		Duration:   time.Since(start),
	}
	a.saveSnapshot(r, res)
	a.logger.Info("analysis run complete",
		"run_id", r.id,
		"files", res.Files,
		"dirty", res.Dirty,
		"failed", len(res.Failed),
		"errors", len(r.validation.Errors),
		"warnings", len(r.validation.Warnings),
		"duration", res.Duration)
	return res, nil
}

func (a *Analyzer) runPhase(ctx context.Context, r *run, name string, next Phase, fn func(context.Context, *run) error) error {
	if err := ctx.Err(); err != nil {
		a.setPhase(PhaseError)
		return err
	}
	ctx, span := observability.Tracer.Start(ctx, "analyze."+name)
	defer span.End()

	started := time.Now()
	err := fn(ctx, r)
	observability.PhaseDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		a.setPhase(PhaseError)
		a.logger.Error("phase failed", "run_id", r.id, "phase", name, "error", err)
		return err
	}
	a.setPhase(next)
	return nil
}

// buildGraph scans the project, reads every source file and populates the
// dependency graph from its directives. A dependency cycle is fatal.
func (a *Analyzer) buildGraph(ctx context.Context, r *run) error {
	files, err := a.scanner.Scan()
	if err != nil {
		return errors.Wrap(err, errors.CodeFatal, "scan project")
	}
	for i, file := range files {
		r.graph.AddNode(file)
		content, err := os.ReadFile(string(file))
		if err != nil {
			// Treated as changed later; parsing will record the failure.
			a.logger.Warn("unreadable source file", "file", file, "error", err)
			continue
		}
		r.contents[file] = content
		r.imports[file] = a.resolver.Populate(r.graph, file, content)
		a.publish(r.id, "graph", i+1, len(files), "")
	}

	order, err := r.graph.TopologicalSort()
	if err != nil {
		for _, cycle := range r.graph.DetectCycles() {
			a.logger.Error("dependency cycle", "run_id", r.id, "cycle", cycle)
		}
		return errors.Wrap(err, errors.CodeCycle, "dependency graph is cyclic")
	}
	r.order = order
	return nil
}

// detectChanges computes the dirty set: files whose content hash differs
// from the cached hash, plus all of their transitive dependents. Any cache
// trouble fails open to dirty.
func (a *Analyzer) detectChanges(ctx context.Context, r *run) error {
	changed := make([]graph.FileIdentity, 0)
	for _, file := range r.order {
		content, ok := r.contents[file]
		if !ok {
			r.dirty[file] = true
			changed = append(changed, file)
			continue
		}
		hash := cache.ContentHash(content)
		r.hashes[file] = hash
		if a.cache == nil {
			r.dirty[file] = true
			changed = append(changed, file)
			continue
		}
		prev, known := a.cache.HashOf(file)
		if !known || prev != hash {
			r.dirty[file] = true
			changed = append(changed, file)
		}
	}
	for _, file := range changed {
		for _, dep := range r.graph.TransitiveDependentsOf(file) {
			r.dirty[dep] = true
		}
	}
	observability.DirtyFiles.Set(float64(len(r.dirty)))
	a.publish(r.id, "changes", len(r.dirty), len(r.order), "dirty set computed")
	return nil
}

// resolveSymbols re-registers type descriptors for every dirty file, and
// for files the registry has never seen (first run of a fresh process with
// a warm cache).
func (a *Analyzer) resolveSymbols(ctx context.Context, r *run) error {
	need := make(map[graph.FileIdentity]bool, len(r.dirty))
	for _, file := range r.order {
		if r.dirty[file] || !a.registry.HasFile(file) {
			need[file] = true
		}
	}
	batches := PlanBatches(r.order, need, r.graph, a.cfg.Analysis.MaxParallelism)
	return a.runBatches(ctx, r, "symbols", batches, len(need), func(file graph.FileIdentity) {
		unit, err := a.parseUnit(ctx, r, file)
		a.registry.RemoveAllForFile(file)
		if err != nil {
			r.fail(file, err)
			return
		}
		extractor.DescribeTypes(unit, file, a.registry)
	})
}

// extractIR produces a FileDeclaration per file: cached for clean files,
// freshly extracted for dirty ones. Extraction failures are per-file.
func (a *Analyzer) extractIR(ctx context.Context, r *run) error {
	need := make(map[graph.FileIdentity]bool)
	for _, file := range r.order {
		if !r.dirty[file] && a.cache != nil {
			if decl, ok := a.cache.Declaration(file); ok {
				r.decls[file] = decl
				r.cacheHits++
				continue
			}
		}
		need[file] = true
	}
	batches := PlanBatches(r.order, need, r.graph, a.cfg.Analysis.MaxParallelism)
	return a.runBatches(ctx, r, "extract", batches, len(need), func(file graph.FileIdentity) {
		if r.hasFailed(file) {
			// Parse already failed during symbol resolution.
			observability.ExtractionFailures.Inc()
			return
		}
		unit, err := a.parseUnit(ctx, r, file)
		if err != nil {
			r.fail(file, err)
			observability.ExtractionFailures.Inc()
			return
		}
		decl, err := extractor.Extract(unit, &extractor.AnalysisContext{
			File:     file,
			Registry: a.registry,
			Graph:    r.graph,
			Imports:  r.imports[file],
		})
		if err != nil {
			r.fail(file, err)
			observability.ExtractionFailures.Inc()
			a.logger.Warn("extraction failed", "run_id", r.id, "file", file, "error", err)
			return
		}
		r.store(file, decl)
		observability.FilesExtracted.Inc()
	})
}

// linkAndValidate assembles the application declaration from all file
// declarations and runs the structural checks.
func (a *Analyzer) linkAndValidate(ctx context.Context, r *run) error {
	files := make([]*ir.FileDeclaration, 0, len(r.decls))
	for _, decl := range r.decls {
		files = append(files, decl)
	}
	r.app = linker.Link(files, r.graph, a.registry, a.logger)
	r.validation = validator.Validate(r.app, a.registry)
	a.publish(r.id, "link", len(files), len(files), "linked and validated")
	return nil
}

// persist writes the freshly extracted declarations and their content
// hashes to the cache. Failed files keep no hash entry so the next run
// re-analyzes them.
func (a *Analyzer) persist(ctx context.Context, r *run) error {
	if a.cache == nil {
		return nil
	}
	for file := range r.extracted {
		if hash, ok := r.hashes[file]; ok {
			a.cache.SetHash(file, hash)
		}
	}
	for file := range r.failed {
		a.cache.Forget(file)
	}
	a.cache.SaveAll(r.extracted)
	a.publish(r.id, "persist", len(r.extracted), len(r.extracted), "cache persisted")
	return nil
}

func (a *Analyzer) saveSnapshot(r *run, res *Result) {
	snap := ports.RunSnapshot{
		RunID:       res.RunID,
		Timestamp:   time.Now().UTC(),
		FileCount:   res.Files,
		DirtyCount:  res.Dirty,
		FailedFiles: len(res.Failed),
		ErrorCount:  len(r.validation.Errors),
		WarnCount:   len(r.validation.Warnings),
		CacheHits:   res.CacheHits,
		Duration:    res.Duration,
		Valid:       r.validation.Valid,
	}
	if err := a.history.SaveRun(a.project, snap); err != nil {
		a.logger.Warn("history save failed", "run_id", r.id, "error", err)
	}
}

// runBatches executes fn over each batch with one goroutine per file and a
// full barrier between batches. Context cancellation is honored at batch
// boundaries.
func (a *Analyzer) runBatches(ctx context.Context, r *run, phase string, batches [][]graph.FileIdentity, total int, fn func(graph.FileIdentity)) error {
	done := 0
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		var wg sync.WaitGroup
		for _, file := range batch {
			wg.Add(1)
			go func(f graph.FileIdentity) {
				defer wg.Done()
				fn(f)
			}(file)
		}
		wg.Wait()
		done += len(batch)
		a.publish(r.id, phase, done, total, "")
	}
	return nil
}

// parseUnit parses file once per run, caching the unit for later phases.
func (a *Analyzer) parseUnit(ctx context.Context, r *run, file graph.FileIdentity) (*ast.CompilationUnit, error) {
	r.mu.Lock()
	unit, ok := r.units[file]
	r.mu.Unlock()
	if ok {
		return unit, nil
	}

	content, ok := r.contents[file]
	if !ok {
		return nil, errors.Newf(errors.CodePerFile, "no content for %s", file)
	}
	unit, err := a.frontend.Parse(ctx, file, content)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePerFile, "parse")
	}

	r.mu.Lock()
	r.units[file] = unit
	r.mu.Unlock()
	return unit, nil
}

func (a *Analyzer) publish(runID, phase string, current, total int, message string) {
	if current != total && !a.throttle.Allow() {
		return
	}
	a.progress.Publish(ports.ProgressEvent{
		RunID:   runID,
		Phase:   phase,
		Current: current,
		Total:   total,
		Message: message,
	})
}

func (r *run) fail(file graph.FileIdentity, err error) {
	r.mu.Lock()
	r.failed[file] = err
	r.mu.Unlock()
}

func (r *run) hasFailed(file graph.FileIdentity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.failed[file]
	return ok
}

func (r *run) store(file graph.FileIdentity, decl *ir.FileDeclaration) {
	r.mu.Lock()
	r.decls[file] = decl
	r.extracted[file] = decl
	r.mu.Unlock()
}

func sortedFileKeys(m map[graph.FileIdentity]error) []graph.FileIdentity {
	out := make([]graph.FileIdentity, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
