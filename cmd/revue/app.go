package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"revue/internal/alert"
	"revue/internal/config"
	"revue/internal/confirm"
	"revue/internal/credential"
	"revue/internal/guildday"
	"revue/internal/paths"
	"revue/internal/slogutil"
	"revue/internal/storage"
)

// app bundles what a command needs: configuration, loggers and the open store
type app struct {
	dataDir string
	cfg     *config.Config
	logs    *slogutil.LoggerFactory
	logger  *slog.Logger

	db      *storage.DB
	members *storage.MemberRepository
	bosses  *storage.BossRepository
	records *storage.RecordRepository
	teams   *storage.TeamRepository
	queries *storage.QueryService
	cal     *guildday.Calendar
}

// loadSettings resolves the data directory and configuration without opening the database
func loadSettings() (string, *config.Config, error) {
	dataDir, err := paths.GetDataDir(dataDirFlag)
	if err != nil {
		return "", nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}
	cfg, err := config.LoadConfig(dataDir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return dataDir, cfg, nil
}

// openApp loads configuration and opens the database
func openApp() (*app, error) {
	dataDir, cfg, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if _, err := paths.EnsureDataDir(dataDir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logs := slogutil.NewLoggerFactory(dataDir, cfg, cliLevel())
	stderrLevel := slogutil.LevelFromVerbosity(verbosity, quietFlag)
	stderr := slogutil.NewLoggerWithFormat(os.Stderr, stderrLevel, cfg.Logging.Format)
	logger := slogutil.NewTeeLogger(stderr.Handler(), logs.StoreLogger().Handler())

	loc, err := cfg.Location()
	if err != nil {
		_ = logs.Close()
		return nil, err
	}

	db, err := storage.OpenWithOptions(cfg.DatabasePath(dataDir), logger, storage.Options{
		BusyTimeout: time.Duration(cfg.Database.BusyTimeoutMs) * time.Millisecond,
		MaxTurn:     cfg.Revue.MaxTurn,
		Notifier:    notifierFor(cfg, logs.OperatorLogger(), logger),
	})
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &app{
		dataDir: dataDir,
		cfg:     cfg,
		logs:    logs,
		logger:  logger,
		db:      db,
		members: storage.NewMemberRepository(db).WithSealer(credential.FromPassphrase(cfg.Credentials.SealKey)),
		bosses:  storage.NewBossRepository(db),
		records: storage.NewRecordRepository(db),
		teams:   storage.NewTeamRepository(db),
		queries: storage.NewQueryService(db),
		cal:     guildday.NewCalendar(loc, cfg.Revue.ResetHour),
	}, nil
}

// notifierFor always logs alerts to the operator log and also posts them when
// a webhook is configured.
func notifierFor(cfg *config.Config, operator, logger *slog.Logger) alert.Notifier {
	notifiers := alert.Multi{alert.NewLogNotifier(operator)}
	if cfg.Alerts.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewWebhookNotifier(cfg.Alerts.WebhookURL, cfg.Alerts.Format, logger))
	}
	return notifiers
}

func (a *app) sessionOptions() confirm.Options {
	return confirm.Options{
		TTL:           a.cfg.SessionTTL(),
		MaxRetries:    a.cfg.Session.MaxRetries,
		SweepInterval: a.cfg.SweepInterval(),
		Separator:     a.cfg.Revue.Separator,
	}
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close database", "error", err.Error())
	}
	_ = a.logs.Close()
}

// withApp opens the app for the duration of fn
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// confirmed asks on the command's streams and reports a refusal on stdout
func confirmed(cmd *cobra.Command, a *app, prompt string) bool {
	if confirmAction(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt, a.cfg.Session.MaxRetries) {
		return true
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
	return false
}

// confirmAction asks on in/out unless --yes was given. Unclear answers are
// asked again up to the session retry budget.
func confirmAction(in io.Reader, out io.Writer, prompt string, retries int) bool {
	if yesFlag {
		return true
	}
	if retries < 1 {
		retries = 1
	}
	scanner := bufio.NewScanner(in)
	for i := 0; i < retries; i++ {
		fmt.Fprintf(out, "%s [y/n]: ", prompt)
		if !scanner.Scan() {
			return false
		}
		switch confirm.Classify(scanner.Text()) {
		case confirm.AnswerYes:
			return true
		case confirm.AnswerNo:
			return false
		}
	}
	return false
}
