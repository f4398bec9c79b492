package config

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

const baseYAML = `
server:
  log_level: info
lexicon:
  aliases:
    dl: Deadlift
    zerch: Zercher Squat
`

// watchedFile is a config file whose mtime moves forward one second per
// write, so change detection never depends on filesystem timestamp
// granularity.
type watchedFile struct {
	t     *testing.T
	path  string
	mtime time.Time
}

func newWatchedFile(t *testing.T, content string) *watchedFile {
	t.Helper()
	f := &watchedFile{
		t:     t,
		path:  filepath.Join(t.TempDir(), "config.yaml"),
		mtime: time.Now().Add(-time.Hour),
	}
	f.write(content)
	return f
}

func (f *watchedFile) write(content string) {
	f.t.Helper()
	if err := os.WriteFile(f.path, []byte(content), 0o644); err != nil {
		f.t.Fatalf("write %s: %v", f.path, err)
	}
	f.touch()
}

func (f *watchedFile) touch() {
	f.t.Helper()
	f.mtime = f.mtime.Add(time.Second)
	if err := os.Chtimes(f.path, f.mtime, f.mtime); err != nil {
		f.t.Fatalf("chtimes %s: %v", f.path, err)
	}
}

// diffRecorder collects the diff of every reload.
type diffRecorder struct {
	mu    sync.Mutex
	diffs []ConfigDiff
}

func (r *diffRecorder) onChange(old, new *Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diffs = append(r.diffs, Diff(old, new))
}

func (r *diffRecorder) take() []ConfigDiff {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.diffs
	r.diffs = nil
	return out
}

func aliasNames(d ConfigDiff) []string {
	var out []string
	for _, c := range d.AliasChanges {
		switch {
		case c.Added:
			out = append(out, "+"+c.Alias)
		case c.Removed:
			out = append(out, "-"+c.Alias)
		default:
			out = append(out, "~"+c.Alias)
		}
	}
	return out
}

// TestWatcher_ReloadSequence drives one watcher through a realistic run of
// edits. Polling is disabled; each step calls check directly.
func TestWatcher_ReloadSequence(t *testing.T) {
	t.Parallel()

	f := newWatchedFile(t, baseYAML)
	rec := &diffRecorder{}
	w, err := NewWatcher(f.path, rec.onChange, WithInterval(time.Hour))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	steps := []struct {
		name        string
		edit        func()
		reloaded    bool
		wantAliases []string
		wantLevel   LogLevel // "" when unchanged
		wantRestart []string
		wantCurrent LogLevel
	}{
		{
			name: "teach inline alias",
			edit: func() {
				f.write(baseYAML + "    ssb: Safety Bar Squat\n")
			},
			reloaded:    true,
			wantAliases: []string{"+ssb"},
			wantCurrent: LogInfo,
		},
		{
			name: "typo in a key is rejected",
			edit: func() {
				f.write("server:\n  log_level: debug\nlexicn:\n  aliases: {}\n")
			},
			wantCurrent: LogInfo,
		},
		{
			name: "retarget and remove after a rejected edit",
			edit: func() {
				f.write(`
server:
  log_level: debug
lexicon:
  aliases:
    dl: Deficit Deadlift
    ssb: Safety Bar Squat
`)
			},
			reloaded:    true,
			wantAliases: []string{"~dl", "-zerch"},
			wantLevel:   LogDebug,
			wantCurrent: LogDebug,
		},
		{
			name:        "touch without edit",
			edit:        f.touch,
			wantCurrent: LogDebug,
		},
		{
			name: "listen address needs a restart",
			edit: func() {
				f.write(`
server:
  listen_addr: ":9090"
  log_level: debug
lexicon:
  aliases:
    dl: Deficit Deadlift
    ssb: Safety Bar Squat
`)
			},
			reloaded:    true,
			wantRestart: []string{"server.listen_addr"},
			wantCurrent: LogDebug,
		},
	}

	for _, s := range steps {
		s.edit()
		w.check()

		diffs := rec.take()
		if !s.reloaded {
			if len(diffs) != 0 {
				t.Errorf("%s: unexpected reload %+v", s.name, diffs)
			}
		} else {
			if len(diffs) != 1 {
				t.Fatalf("%s: reloads = %d, want 1", s.name, len(diffs))
			}
			d := diffs[0]
			if got := aliasNames(d); !slices.Equal(got, s.wantAliases) {
				t.Errorf("%s: alias changes = %v, want %v", s.name, got, s.wantAliases)
			}
			if d.LogLevelChanged != (s.wantLevel != "") || d.NewLogLevel != s.wantLevel {
				t.Errorf("%s: log level change = (%v, %q), want %q", s.name, d.LogLevelChanged, d.NewLogLevel, s.wantLevel)
			}
			if !slices.Equal(d.RestartRequired, s.wantRestart) {
				t.Errorf("%s: restart required = %v, want %v", s.name, d.RestartRequired, s.wantRestart)
			}
		}
		if got := w.Current().Server.LogLevel; got != s.wantCurrent {
			t.Errorf("%s: Current log level = %q, want %q", s.name, got, s.wantCurrent)
		}
	}
}

func TestWatcher_PollsInBackground(t *testing.T) {
	t.Parallel()

	f := newWatchedFile(t, baseYAML)
	reloaded := make(chan ConfigDiff, 1)
	w, err := NewWatcher(f.path, func(old, new *Config) {
		select {
		case reloaded <- Diff(old, new):
		default:
		}
	}, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	f.write(`
server:
  log_level: warn
`)

	select {
	case d := <-reloaded:
		if !d.LogLevelChanged || d.NewLogLevel != LogWarn {
			t.Errorf("diff = %+v, want log level warn", d)
		}
		if got := aliasNames(d); !slices.Equal(got, []string{"-dl", "-zerch"}) {
			t.Errorf("alias changes = %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
}

func TestWatcher_StopEndsPolling(t *testing.T) {
	t.Parallel()

	f := newWatchedFile(t, baseYAML)
	rec := &diffRecorder{}
	w, err := NewWatcher(f.path, rec.onChange, WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()

	// Let any tick already in flight finish before editing.
	time.Sleep(50 * time.Millisecond)
	f.write("server:\n  log_level: error\n")
	time.Sleep(100 * time.Millisecond)

	if diffs := rec.take(); len(diffs) != 0 {
		t.Errorf("reloaded after Stop: %+v", diffs)
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewWatcher(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("missing file: expected error")
	}

	f := newWatchedFile(t, "server:\n  log_level: loud\n")
	if _, err := NewWatcher(f.path, nil); err == nil {
		t.Error("invalid initial config: expected error")
	}
}
