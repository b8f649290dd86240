package analyzer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"dartbridge/internal/core/config"
	"dartbridge/internal/core/errors"
	"dartbridge/internal/core/ports"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pubspec.yaml"), []byte("name: demo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAnalyzer(t *testing.T, root string, opts Options) *Analyzer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Paths.ProjectRoot = root
	cfg.Analysis.MaxParallelism = 2
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	a, err := New(cfg, root, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

const storeSource = `import 'package:flutter/foundation.dart';

class CartStore extends ChangeNotifier {
  int total = 0;

  void clear() {
    total = 0;
    notifyListeners();
  }
}
`

const labelSource = `import 'store.dart';

class PriceLabel extends StatelessWidget {
  final int amount;

  const PriceLabel({required this.amount});

  Widget build(BuildContext context) {
    return Text('total');
  }
}
`

const pageSource = `import 'label.dart';

class CartPage extends StatefulWidget {
  State<CartPage> createState() => _CartPageState();
}

class _CartPageState extends State<CartPage> {
  Widget build(BuildContext context) {
    return PriceLabel(amount: 1);
  }
}
`

func TestRunFullPipeline(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/store.dart": storeSource,
		"lib/label.dart": labelSource,
		"lib/page.dart":  pageSource,
	})
	a := newTestAnalyzer(t, root, Options{})

	res, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Phase() != PhaseComplete {
		t.Errorf("phase = %s, want complete", a.Phase())
	}
	if res.Files != 3 {
		t.Errorf("files = %d, want 3", res.Files)
	}
	if res.Dirty != 3 {
		t.Errorf("first run must treat everything dirty, got %d", res.Dirty)
	}
	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failed)
	}

	app := res.App
	if app.Component("PriceLabel") == nil || app.Component("CartPage") == nil {
		t.Fatal("expected PriceLabel and CartPage components")
	}
	if len(app.StateHolders) != 1 || app.StateHolders[0].Name != "_CartPageState" {
		t.Fatalf("expected _CartPageState holder, got %+v", app.StateHolders)
	}
	if app.Component("CartPage").StateHolderName != "_CartPageState" {
		t.Error("CartPage must bind to _CartPageState")
	}
	if len(app.ObservableStates) != 1 || app.ObservableStates[0].Name != "CartStore" {
		t.Fatalf("CartStore must reclassify as observable state, got %+v", app.ObservableStates)
	}
	if !res.Validation.Valid {
		t.Errorf("expected a valid project, errors: %v", res.Validation.Errors)
	}
}

func TestRunIncrementalCacheHits(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/store.dart": storeSource,
		"lib/label.dart": labelSource,
		"lib/page.dart":  pageSource,
	})
	a := newTestAnalyzer(t, root, Options{})
	ctx := context.Background()

	if _, err := a.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	res, err := a.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Dirty != 0 {
		t.Errorf("unchanged project must have an empty dirty set, got %d", res.Dirty)
	}
	if res.CacheHits != 3 {
		t.Errorf("cache hits = %d, want 3", res.CacheHits)
	}
	if res.App.Component("PriceLabel") == nil {
		t.Error("cached declarations must still link into the application")
	}

	// Touching label.dart dirties it and its dependents; store.dart
	// stays clean.
	changed := strings.Replace(labelSource, "'total'", "'sum'", 1)
	if err := os.WriteFile(filepath.Join(root, "lib/label.dart"), []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = a.Run(ctx)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if res.Dirty != 2 {
		t.Errorf("expected label.dart and page.dart dirty, got %d", res.Dirty)
	}
	if res.CacheHits != 1 {
		t.Errorf("store.dart must be served from cache, got %d hits", res.CacheHits)
	}
}

func TestRunSurvivesProcessRestart(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/store.dart": storeSource,
		"lib/label.dart": labelSource,
	})
	ctx := context.Background()

	first := newTestAnalyzer(t, root, Options{})
	if _, err := first.Run(ctx); err != nil {
		t.Fatalf("first process: %v", err)
	}

	// A fresh analyzer over the same cache directory simulates a
	// restart: hashes match, symbols re-register, declarations load
	// from disk.
	second := newTestAnalyzer(t, root, Options{})
	res, err := second.Run(ctx)
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if res.Dirty != 0 {
		t.Errorf("warm cache must leave nothing dirty, got %d", res.Dirty)
	}
	if res.CacheHits != 2 {
		t.Errorf("cache hits = %d, want 2", res.CacheHits)
	}
	if res.App.Component("PriceLabel") == nil {
		t.Error("expected PriceLabel from the persisted cache")
	}
}

func TestRunCycleIsFatal(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/a.dart": "import 'b.dart';\nclass A {}\n",
		"lib/b.dart": "import 'a.dart';\nclass B {}\n",
	})
	a := newTestAnalyzer(t, root, Options{})

	_, err := a.Run(context.Background())
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	if !errors.IsCode(err, errors.CodeCycle) {
		t.Errorf("expected CodeCycle, got %v", err)
	}
	if a.Phase() != PhaseError {
		t.Errorf("phase = %s, want error", a.Phase())
	}
}

func TestRunBrokenFileFailsAlone(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/good.dart": labelSource[strings.Index(labelSource, "class"):],
		"lib/bad.dart":  "class Broken {\n  void half(\n",
	})
	a := newTestAnalyzer(t, root, Options{})

	res, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("per-file failures must not abort the run: %v", err)
	}
	if len(res.Failed) != 1 || !strings.HasSuffix(string(res.Failed[0]), "bad.dart") {
		t.Fatalf("expected bad.dart to fail, got %v", res.Failed)
	}
	if res.App.Component("PriceLabel") == nil {
		t.Error("the healthy file must still extract")
	}

	// The failed file stays dirty on the next run.
	res, err = a.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Dirty == 0 {
		t.Error("a failed file must remain dirty on the following run")
	}
}

func TestMissingManifestIsFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Paths.ProjectRoot = dir

	_, err := New(cfg, dir, Options{Logger: quietLogger()})
	if err == nil {
		t.Fatal("expected a fatal error for a missing manifest")
	}
	if !errors.IsCode(err, errors.CodeFatal) {
		t.Errorf("expected CodeFatal, got %v", err)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []ports.ProgressEvent
}

func (s *recordingSink) Publish(e ports.ProgressEvent) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func TestRunPublishesProgress(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/store.dart": storeSource,
		"lib/label.dart": labelSource,
	})
	sink := &recordingSink{}
	a := newTestAnalyzer(t, root, Options{Progress: sink})

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	phases := make(map[string]bool)
	for _, e := range sink.events {
		if e.RunID == "" {
			t.Error("every event carries the run id")
		}
		phases[e.Phase] = true
	}
	for _, want := range []string{"graph", "changes", "extract", "link", "persist"} {
		if !phases[want] {
			t.Errorf("missing progress events for phase %q", want)
		}
	}
}
