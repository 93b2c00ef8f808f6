package properties

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dario.cat/mergo"
	props "github.com/magiconair/properties"

	"github.com/altafino/schedkit/internal/types"
)

const (
	// PropertiesFileVar names the environment variable that redirects the
	// default cascade to an explicit properties file or bundled resource.
	PropertiesFileVar = "SCHEDKIT_PROPERTIES"

	// DefaultFileName is the conventional properties file looked up in the
	// working directory when PropertiesFileVar is unset.
	DefaultFileName = "schedkit.properties"

	// overlayKeyPrefix marks environment variables that participate in the
	// system overlay. Underscores after the prefix become dots, case is
	// preserved: SCHEDKIT_PROPS_schedkit_scheduler_instanceName overlays
	// schedkit.scheduler.instanceName.
	overlayKeyPrefix = "SCHEDKIT_PROPS_"
)

// Candidate names tried, in order, when falling back to the bundled default
// resource.
var resourceCandidates = [...]string{
	"schedkit.properties",
	"/schedkit.properties",
	"schedkit/schedkit.properties",
}

//go:embed schedkit.properties
var bundledDefaults embed.FS

var loader = &props.Loader{Encoding: props.UTF8, DisableExpansion: true}

// Resolver turns layered configuration sources into a single Set.
//
// A Resolver reaches exactly one terminal state: resolved or failed. The first
// entry point to complete wins; later calls return the stored Set without
// re-running any I/O, or replay the stored error verbatim. The mutex makes the
// check-then-set transition atomic under concurrent first calls.
type Resolver struct {
	mu     sync.Mutex
	set    *Set
	err    error
	source string

	resources fs.FS
	workDir   string
	getenv    func(string) string
	environ   func() ([]string, error)
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithResources replaces the bundled-resource lookup context. A nil fs.FS
// means no resource context is available at all.
func WithResources(fsys fs.FS) Option {
	return func(r *Resolver) { r.resources = fsys }
}

// WithWorkDir changes where the conventional default file is looked up.
func WithWorkDir(dir string) Option {
	return func(r *Resolver) { r.workDir = dir }
}

// WithGetenv replaces the lookup used for PropertiesFileVar.
func WithGetenv(fn func(string) string) Option {
	return func(r *Resolver) { r.getenv = fn }
}

// WithEnviron replaces the ambient-overlay source. The function may return an
// error when host policy denies environment access; the overlay is then
// skipped with a warning. A nil function disables the overlay entirely.
func WithEnviron(fn func() ([]string, error)) Option {
	return func(r *Resolver) { r.environ = fn }
}

// WithLogger sets the logger used for overlay warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates an unresolved Resolver with the process environment and
// the bundled defaults as lookup contexts.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		resources: bundledDefaults,
		workDir:   ".",
		getenv:    os.Getenv,
		environ:   func() ([]string, error) { return os.Environ(), nil },
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the default source cascade and returns the resolved Set:
//
//  1. A file or resource named by PropertiesFileVar, when set.
//  2. Else DefaultFileName in the working directory.
//  3. Else the bundled default resource, tried under three candidate names.
//
// The system overlay is applied on top of whichever base layer loaded. On the
// first failure the error becomes permanent.
func (r *Resolver) Resolve() (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, err, done := r.terminal(); done {
		return set, err
	}
	m, src, err := r.loadCascade()
	return r.commit(m, src, err)
}

// ResolveFile loads the named source, trying the bundled-resource context
// first and falling back to a plain filesystem path, then applies the system
// overlay.
func (r *Resolver) ResolveFile(name string) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, err, done := r.terminal(); done {
		return set, err
	}

	m, ok, err := r.loadResource(name)
	if err != nil {
		return r.commit(nil, "", unreadable(fmt.Sprintf("specified resource %q", name), err))
	}
	src := fmt.Sprintf("specified resource: %q", name)
	if !ok {
		m, err = loadFile(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return r.commit(nil, "", &types.ConfigError{
					Source: fmt.Sprintf("specified file %q", name),
					Kind:   types.ErrNotFound,
				})
			}
			return r.commit(nil, "", unreadable(fmt.Sprintf("specified file %q", name), err))
		}
		src = fmt.Sprintf("specified file: %q", name)
	}
	return r.commit(r.overlay(m), src, nil)
}

// ResolveReader consumes the stream (closing it when it is an io.Closer) and
// applies the system overlay. A nil reader is a permanent error.
func (r *Resolver) ResolveReader(rd io.Reader) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, err, done := r.terminal(); done {
		return set, err
	}

	if rd == nil {
		return r.commit(nil, "", &types.ConfigError{
			Source: "externally opened stream",
			Kind:   types.ErrUnreadable,
			Err:    errors.New("stream is nil"),
		})
	}
	b, err := io.ReadAll(rd)
	if c, ok := rd.(io.Closer); ok {
		_ = c.Close()
	}
	if err != nil {
		return r.commit(nil, "", unreadable("externally opened stream", err))
	}
	m, err := parse(b)
	if err != nil {
		return r.commit(nil, "", unreadable("externally opened stream", err))
	}
	return r.commit(r.overlay(m), "an externally opened stream", nil)
}

// ResolveProperties installs a caller-assembled property set. No file I/O
// runs and the system overlay is skipped; the caller owns the layering.
func (r *Resolver) ResolveProperties(values map[string]string) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, err, done := r.terminal(); done {
		return set, err
	}
	return r.commit(values, "an externally provided property set", nil)
}

// Resolved reports the terminal state without triggering resolution.
func (r *Resolver) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set != nil || r.err != nil
}

// Source describes where the resolved configuration came from. Empty until a
// resolution succeeds.
func (r *Resolver) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// terminal returns the recorded outcome, if any. Caller holds the lock.
func (r *Resolver) terminal() (*Set, error, bool) {
	if r.set != nil {
		return r.set, nil, true
	}
	if r.err != nil {
		return nil, r.err, true
	}
	return nil, nil, false
}

// commit records the terminal state. Caller holds the lock.
func (r *Resolver) commit(m map[string]string, src string, err error) (*Set, error) {
	if err != nil {
		r.err = err
		return nil, err
	}
	r.set = NewSet(m)
	r.source = src
	return r.set, nil
}

func (r *Resolver) loadCascade() (map[string]string, string, error) {
	if requested := r.getenv(PropertiesFileVar); requested != "" {
		if fileExists(requested) {
			m, err := loadFile(requested)
			if err != nil {
				return nil, "", unreadable(fmt.Sprintf("specified file %q", requested), err)
			}
			return r.overlay(m), fmt.Sprintf("specified file: %q", requested), nil
		}
		m, ok, err := r.loadResource(requested)
		if err != nil {
			return nil, "", unreadable(fmt.Sprintf("specified resource %q", requested), err)
		}
		if !ok {
			return nil, "", &types.ConfigError{
				Source: fmt.Sprintf("specified file %q", requested),
				Kind:   types.ErrNotFound,
			}
		}
		return r.overlay(m), fmt.Sprintf("specified resource: %q", requested), nil
	}

	path := filepath.Join(r.workDir, DefaultFileName)
	if fileExists(path) {
		m, err := loadFile(path)
		if err != nil {
			// Present but unreadable is permanent, not a fallback trigger.
			return nil, "", unreadable(fmt.Sprintf("default file %q", path), err)
		}
		return r.overlay(m), fmt.Sprintf("default file in current working dir: %q", DefaultFileName), nil
	}

	if r.resources == nil {
		return nil, "", &types.ConfigError{
			Source: "bundled default resources",
			Kind:   types.ErrNoResources,
		}
	}
	for _, name := range resourceCandidates {
		m, ok, err := r.loadResource(name)
		if err != nil {
			return nil, "", unreadable(fmt.Sprintf("bundled resource %q", name), err)
		}
		if ok {
			return r.overlay(m), fmt.Sprintf("default bundled resource: %q", DefaultFileName), nil
		}
	}
	return nil, "", &types.ConfigError{
		Source: fmt.Sprintf("default bundled resource %q missing", DefaultFileName),
		Kind:   types.ErrNotFound,
	}
}

// loadResource looks name up in the resource context. ok is false when the
// context has no such entry (or no context is configured at all).
func (r *Resolver) loadResource(name string) (map[string]string, bool, error) {
	if r.resources == nil {
		return nil, false, nil
	}
	f, err := r.resources.Open(strings.TrimPrefix(name, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, false, err
	}
	m, err := parse(b)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// overlay merges ambient process-wide properties on top of base, the overlay
// winning every collision. Denied environment access downgrades to a warning.
func (r *Resolver) overlay(base map[string]string) map[string]string {
	if r.environ == nil {
		r.logger.Warn("skipping system property overlay, no environment capability configured")
		return base
	}
	env, err := r.environ()
	if err != nil {
		r.logger.Warn("skipping system property overlay, environment access denied",
			"error", err,
		)
		return base
	}

	over := make(map[string]string)
	for _, kv := range env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch {
		case strings.Contains(k, "."):
			over[k] = v
		case strings.HasPrefix(k, overlayKeyPrefix):
			rest := strings.TrimPrefix(k, overlayKeyPrefix)
			if rest == "" {
				continue
			}
			over[strings.ReplaceAll(rest, "_", ".")] = v
		}
	}
	if len(over) == 0 {
		return base
	}
	if err := mergo.Merge(&base, over, mergo.WithOverride); err != nil {
		r.logger.Warn("failed to merge system property overlay", "error", err)
	}
	return base
}

func parse(b []byte) (map[string]string, error) {
	p, err := loader.LoadBytes(b)
	if err != nil {
		return nil, err
	}
	return p.Map(), nil
}

func loadFile(path string) (map[string]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(b)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func unreadable(source string, cause error) error {
	return &types.ConfigError{Source: source, Kind: types.ErrUnreadable, Err: cause}
}
