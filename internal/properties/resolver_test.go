package properties

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/altafino/schedkit/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// quiet isolates a resolver from the real process: no override variable, no
// ambient overlay, an empty working directory.
func quiet(t *testing.T, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithWorkDir(t.TempDir()),
		WithGetenv(func(string) string { return "" }),
		WithEnviron(func() ([]string, error) { return nil, nil }),
		WithLogger(discardLogger()),
	}
	return append(opts, extra...)
}

func writeProps(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolveFallsBackToBundledDefaults(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t)...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString(types.PropSchedInstanceName, ""); got != "SchedkitScheduler" {
		t.Fatalf("bundled instanceName = %q", got)
	}
	if !strings.Contains(r.Source(), "default bundled resource") {
		t.Fatalf("Source() = %q, want bundled-resource provenance", r.Source())
	}
}

func TestResolvePrefersWorkingDirFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeProps(t, dir, DefaultFileName, "schedkit.scheduler.instanceName = FromFile\n")

	r := NewResolver(quiet(t, WithWorkDir(dir))...)
	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString(types.PropSchedInstanceName, ""); got != "FromFile" {
		t.Fatalf("instanceName = %q, want FromFile", got)
	}
	if !strings.Contains(r.Source(), "default file in current working dir") {
		t.Fatalf("Source() = %q, want working-dir provenance", r.Source())
	}
}

func TestResolveRequestedFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProps(t, dir, "custom.properties", "a.b = requested\n")

	r := NewResolver(quiet(t, WithGetenv(func(key string) string {
		if key == PropertiesFileVar {
			return path
		}
		return ""
	}))...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "requested" {
		t.Fatalf("a.b = %q, want requested", got)
	}
	if !strings.Contains(r.Source(), "specified file") {
		t.Fatalf("Source() = %q, want specified-file provenance", r.Source())
	}
}

func TestResolveRequestedResource(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"conf/custom.properties": {Data: []byte("a.b = from-resource\n")},
	}
	r := NewResolver(quiet(t,
		WithResources(fsys),
		WithGetenv(func(key string) string {
			if key == PropertiesFileVar {
				return "conf/custom.properties"
			}
			return ""
		}),
	)...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "from-resource" {
		t.Fatalf("a.b = %q, want from-resource", got)
	}
	if !strings.Contains(r.Source(), "specified resource") {
		t.Fatalf("Source() = %q", r.Source())
	}
}

func TestResolveRequestedFileMissingIsSticky(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t,
		WithResources(fstest.MapFS{}),
		WithGetenv(func(key string) string {
			if key == PropertiesFileVar {
				return filepath.Join(t.TempDir(), "nope.properties")
			}
			return ""
		}),
	)...)

	_, err1 := r.Resolve()
	if !errors.Is(err1, types.ErrNotFound) {
		t.Fatalf("first Resolve error = %v, want ErrNotFound", err1)
	}
	_, err2 := r.Resolve()
	if err1 != err2 {
		t.Fatalf("second Resolve returned a different error instance: %v vs %v", err1, err2)
	}
}

func TestResolveStickySuccessSkipsIO(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProps(t, dir, DefaultFileName, "a.b = once\n")

	r := NewResolver(quiet(t, WithWorkDir(dir))...)
	set1, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	// If a later call re-ran I/O it would now fail or change values.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	set2, err := r.Resolve()
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if set1 != set2 {
		t.Fatal("second Resolve returned a different set instance")
	}

	// Other entry points short-circuit the same way.
	set3, err := r.ResolveProperties(map[string]string{"x.y": "ignored"})
	if err != nil {
		t.Fatalf("ResolveProperties after success: %v", err)
	}
	if set3 != set1 {
		t.Fatal("ResolveProperties did not no-op after prior success")
	}
}

func TestOverlayWinsOverBaseLayer(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeProps(t, dir, DefaultFileName, "schedkit.scheduler.instanceName = FromFile\n")

	r := NewResolver(quiet(t,
		WithWorkDir(dir),
		WithEnviron(func() ([]string, error) {
			return []string{
				"SCHEDKIT_PROPS_schedkit_scheduler_instanceName=FromEnv",
				"PATH=/usr/bin",
			}, nil
		}),
	)...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString(types.PropSchedInstanceName, ""); got != "FromEnv" {
		t.Fatalf("instanceName = %q, want overlay value FromEnv", got)
	}
}

func TestOverlayDottedVariableTakenVerbatim(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeProps(t, dir, DefaultFileName, "a.b = base\n")

	r := NewResolver(quiet(t,
		WithWorkDir(dir),
		WithEnviron(func() ([]string, error) {
			return []string{"a.b=ambient"}, nil
		}),
	)...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "ambient" {
		t.Fatalf("a.b = %q, want ambient", got)
	}
}

func TestOverlayAccessDeniedDegradesGracefully(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeProps(t, dir, DefaultFileName, "a.b = base\n")

	r := NewResolver(quiet(t,
		WithWorkDir(dir),
		WithEnviron(func() ([]string, error) {
			return nil, errors.New("environment access denied by policy")
		}),
	)...)

	set, err := r.Resolve()
	if err != nil {
		t.Fatalf("Resolve should not fail on denied overlay: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "base" {
		t.Fatalf("a.b = %q, want base layer value", got)
	}
}

func TestResolveReaderNilIsPermanentError(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t)...)

	_, err1 := r.ResolveReader(nil)
	if !errors.Is(err1, types.ErrUnreadable) {
		t.Fatalf("error = %v, want ErrUnreadable", err1)
	}

	// Failure is sticky across all entry points, including the cascade.
	_, err2 := r.Resolve()
	if err1 != err2 {
		t.Fatalf("cascade after failure returned %v, want stored %v", err2, err1)
	}
}

func TestResolveReader(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t)...)

	set, err := r.ResolveReader(strings.NewReader("stream.key = stream-value\n"))
	if err != nil {
		t.Fatalf("ResolveReader: %v", err)
	}
	if got := set.GetString("stream.key", ""); got != "stream-value" {
		t.Fatalf("stream.key = %q", got)
	}
	if r.Source() != "an externally opened stream" {
		t.Fatalf("Source() = %q", r.Source())
	}
}

func TestResolvePropertiesSkipsOverlay(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t,
		WithEnviron(func() ([]string, error) {
			return []string{"a.b=ambient"}, nil
		}),
	)...)

	set, err := r.ResolveProperties(map[string]string{"a.b": "explicit"})
	if err != nil {
		t.Fatalf("ResolveProperties: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "explicit" {
		t.Fatalf("a.b = %q, overlay must not apply to caller-built sets", got)
	}
}

func TestResolveNoResourceContext(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t, WithResources(nil))...)

	_, err := r.Resolve()
	if !errors.Is(err, types.ErrNoResources) {
		t.Fatalf("error = %v, want ErrNoResources", err)
	}
}

func TestResolveBundledDefaultMissing(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t, WithResources(fstest.MapFS{}))...)

	_, err := r.Resolve()
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error %q should name the missing bundled default", err)
	}
}

func TestResolveFileFallsBackToFilesystem(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := writeProps(t, dir, "explicit.properties", "a.b = explicit-file\n")

	r := NewResolver(quiet(t, WithResources(fstest.MapFS{}))...)
	set, err := r.ResolveFile(path)
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	if got := set.GetString("a.b", ""); got != "explicit-file" {
		t.Fatalf("a.b = %q", got)
	}
}

func TestResolveFileMissingEverywhere(t *testing.T) {
	t.Parallel()
	r := NewResolver(quiet(t, WithResources(fstest.MapFS{}))...)

	_, err := r.ResolveFile(filepath.Join(t.TempDir(), "ghost.properties"))
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
