package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"fbd-go/internal/daemon"
	"fbd-go/internal/index"
	"fbd-go/internal/scan"
)

// Options are the fully resolved settings for one daemon invocation,
// after merging the config file and command-line flags.
type Options struct {
	WatchDir    string
	BackupDir   string
	Interval    float64 // seconds, fractional permitted
	LogPath     string  // empty discards the journal
	Recursive   bool
	Exclude     []string
	RewriteLog  bool
	CatalogPath string // empty disables the catalog

	// LogOutput receives the operational log. Defaults to os.Stderr.
	LogOutput io.Writer
	// IDGen produces the session ID. Defaults to random UUIDs.
	IDGen daemon.IDGenerator
}

// App owns the wired daemon and the resources it holds open for the life
// of the process.
type App struct {
	opts      Options
	watchAbs  string
	backupAbs string
	journal   *daemon.Journal
	catalog   *index.Catalog
	daemon    *daemon.Daemon
	sessionID string
	logger    daemon.Logger
}

// New validates opts, creates the backup root, opens the journal and the
// catalog (when configured), and wires the daemon. Validation failures
// abort before any backup artifact is created or any log is touched.
// The caller must call Close when done.
func New(opts Options) (*App, error) {
	if opts.RewriteLog && opts.LogPath == "" {
		return nil, fmt.Errorf("rewriting the log requires an explicit log path (-o)")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %g", opts.Interval)
	}

	watchAbs, backupAbs, err := resolveRoots(opts.WatchDir, opts.BackupDir)
	if err != nil {
		return nil, err
	}

	// The backup root must be created fresh by this invocation.
	if _, err := os.Stat(backupAbs); err == nil {
		return nil, fmt.Errorf("backup directory already exists: %s", backupAbs)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat backup directory: %w", err)
	}
	if err := os.MkdirAll(backupAbs, 0755); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	journal, err := openJournal(opts)
	if err != nil {
		return nil, err
	}
	if err := journal.Header(watchAbs, backupAbs); err != nil {
		journal.Close()
		return nil, err
	}

	exclude, err := scan.NewExclusionRule(opts.Exclude)
	if err != nil {
		journal.Close()
		return nil, err
	}

	var enum scan.Enumerator
	if opts.Recursive {
		enum = scan.NewRecursive(watchAbs, backupAbs, exclude)
	} else {
		enum = scan.NewFlat(watchAbs, exclude)
	}

	clock := daemon.RealClock{}

	idgen := opts.IDGen
	if idgen == nil {
		idgen = daemon.UUIDGenerator{}
	}
	sessionID := idgen.New()

	logOutput := opts.LogOutput
	if logOutput == nil {
		logOutput = os.Stderr
	}
	logger := &slogAdapter{l: newLogger(logOutput, sessionID)}

	var recorder daemon.Recorder = daemon.NopRecorder{}
	var catalog *index.Catalog
	if opts.CatalogPath != "" {
		catalog, err = index.Open(opts.CatalogPath)
		if err != nil {
			journal.Close()
			return nil, fmt.Errorf("opening catalog: %w", err)
		}
		if err := catalog.BeginSession(sessionID, watchAbs, backupAbs, clock.Now()); err != nil {
			catalog.Close()
			journal.Close()
			return nil, err
		}
		recorder = catalog
	}

	interval := time.Duration(opts.Interval * float64(time.Second))
	d := daemon.New(watchAbs, backupAbs, interval, enum, journal, recorder, logger, clock)

	return &App{
		opts:      opts,
		watchAbs:  watchAbs,
		backupAbs: backupAbs,
		journal:   journal,
		catalog:   catalog,
		daemon:    d,
		sessionID: sessionID,
		logger:    logger,
	}, nil
}

// Run executes the polling loop until ctx is cancelled or an operation
// fails.
func (a *App) Run(ctx context.Context) error {
	return a.daemon.Run(ctx)
}

// WatchRoot returns the resolved absolute watch directory.
func (a *App) WatchRoot() string { return a.watchAbs }

// BackupRoot returns the resolved absolute backup directory.
func (a *App) BackupRoot() string { return a.backupAbs }

// Close releases the journal and the catalog.
func (a *App) Close() error {
	var firstErr error

	if err := a.journal.Close(); err != nil {
		firstErr = fmt.Errorf("closing journal: %w", err)
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing catalog: %w", err)
		}
	}
	return firstErr
}

// openJournal opens the configured backup log, or a discarding journal
// when no path was given.
func openJournal(opts Options) (*daemon.Journal, error) {
	if opts.LogPath == "" {
		return daemon.NewJournal(io.Discard), nil
	}
	return daemon.OpenJournal(opts.LogPath, opts.RewriteLog)
}

// resolveRoots makes both directories absolute and rejects a watch
// directory that is missing, not a directory, or the same location as the
// backup directory. The watch path is resolved through symlinks; the
// backup path cannot be, since it must not exist yet.
func resolveRoots(watchDir, backupDir string) (string, string, error) {
	watchAbs, err := filepath.Abs(watchDir)
	if err != nil {
		return "", "", fmt.Errorf("resolving watch directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(watchAbs); err == nil {
		watchAbs = resolved
	}

	info, err := os.Stat(watchAbs)
	if err != nil {
		return "", "", fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return "", "", fmt.Errorf("watch path is not a directory: %s", watchAbs)
	}

	backupAbs, err := filepath.Abs(backupDir)
	if err != nil {
		return "", "", fmt.Errorf("resolving backup directory: %w", err)
	}
	// The backup dir itself must not exist yet, so resolve its parent to
	// see through symlinked ancestors before comparing.
	if parent, perr := filepath.EvalSymlinks(filepath.Dir(backupAbs)); perr == nil {
		backupAbs = filepath.Join(parent, filepath.Base(backupAbs))
	}

	if watchAbs == backupAbs {
		return "", "", fmt.Errorf("watch and backup directories are the same location: %s", watchAbs)
	}

	return watchAbs, backupAbs, nil
}
