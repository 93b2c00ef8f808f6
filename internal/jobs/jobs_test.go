package jobs

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const validJob = `name: backup
enabled: true
schedule:
  frequency_every: hour
  frequency_amount: 6
command:
  run: /usr/local/bin/backup.sh
`

func TestLoadDefinitions(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "backup.job.yaml", validJob)
	writeFile(t, dir, "cleanup.job.yaml", `name: cleanup
enabled: false
schedule:
  frequency_every: day
  frequency_amount: 1
command:
  run: /usr/bin/find
  args: ["/tmp", "-mtime", "+7", "-delete"]
`)
	writeFile(t, dir, "README.md", "not a job file")

	defs, err := LoadDefinitions(dir, discardLogger())
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("loaded %d definitions, want 2", len(defs))
	}
	// Sorted by name
	if defs[0].Name != "backup" || defs[1].Name != "cleanup" {
		t.Fatalf("unexpected order: %s, %s", defs[0].Name, defs[1].Name)
	}
	if len(defs[1].Command.Args) != 4 {
		t.Fatalf("cleanup args = %v", defs[1].Command.Args)
	}
}

func TestLoadDefinitionsAppliesDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "defaults.yaml", `schedule:
  frequency_every: minute
  frequency_amount: 15
command:
  timeout: 30
`)
	writeFile(t, dir, "ping.job.yaml", `name: ping
enabled: true
command:
  run: /usr/bin/ping
  args: ["-c", "1", "localhost"]
`)

	defs, err := LoadDefinitions(dir, discardLogger())
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("loaded %d definitions, want 1", len(defs))
	}
	def := defs[0]
	if def.Schedule.FrequencyEvery != "minute" || def.Schedule.FrequencyAmount != 15 {
		t.Fatalf("defaults not applied: %+v", def.Schedule)
	}
	if def.Command.Timeout != 30 {
		t.Fatalf("timeout = %d, want default 30", def.Command.Timeout)
	}
	if def.Command.Run != "/usr/bin/ping" {
		t.Fatalf("definition value overridden by defaults: %q", def.Command.Run)
	}
}

func TestLoadDefinitionsExpandsEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BACKUP_SCRIPT", "/opt/backup.sh")
	writeFile(t, dir, "backup.job.yaml", `name: backup
enabled: true
schedule:
  frequency_every: hour
  frequency_amount: 1
command:
  run: ${BACKUP_SCRIPT}
`)

	defs, err := LoadDefinitions(dir, discardLogger())
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}
	if defs[0].Command.Run != "/opt/backup.sh" {
		t.Fatalf("env not expanded: %q", defs[0].Command.Run)
	}
}

func TestLoadDefinitionsRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.job.yaml", validJob)
	writeFile(t, dir, "b.job.yaml", validJob)

	_, err := LoadDefinitions(dir, discardLogger())
	if err == nil || !strings.Contains(err.Error(), "duplicate job name") {
		t.Fatalf("error = %v, want duplicate-name failure", err)
	}
}

func TestLoadDefinitionsRejectsInvalidJob(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "bad.job.yaml", `name: bad
enabled: true
schedule:
  frequency_every: fortnight
  frequency_amount: 1
command:
  run: /bin/true
`)

	_, err := LoadDefinitions(dir, discardLogger())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCommandTask(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "ok.job.yaml", `name: ok
enabled: true
schedule:
  frequency_every: minute
  frequency_amount: 1
command:
  run: /bin/sh
  args: ["-c", "exit 0"]
`)
	defs, err := LoadDefinitions(dir, discardLogger())
	if err != nil {
		t.Fatalf("LoadDefinitions: %v", err)
	}

	task := CommandTask(defs[0], discardLogger())
	if err := task(); err != nil {
		t.Fatalf("task: %v", err)
	}

	defs[0].Command.Args = []string{"-c", "exit 3"}
	failing := CommandTask(defs[0], discardLogger())
	if err := failing(); err == nil {
		t.Fatal("expected error for failing command")
	}
}
