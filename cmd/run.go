package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/solvrlabs/solvr/internal/account"
	"github.com/solvrlabs/solvr/internal/app"
	"github.com/solvrlabs/solvr/internal/config"
	"github.com/solvrlabs/solvr/internal/plans"
	"github.com/solvrlabs/solvr/internal/screens/home"
	"github.com/solvrlabs/solvr/internal/session"
	"github.com/solvrlabs/solvr/internal/solve"
	"github.com/solvrlabs/solvr/internal/store"
)

// env bundles everything a command needs: config, store, session, and the
// API clients. Close releases the store and log file.
type env struct {
	cfg     config.Config
	st      *store.Store
	sess    *session.Session
	account *account.Client
	plans   *plans.Client
	logger  zerolog.Logger

	logFile *os.File
}

func (e *env) Close() {
	if e.st != nil {
		e.st.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}

// newEnv loads config, opens the store, and restores any saved session.
func newEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	var cfg config.Config
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFrom(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	e := &env{
		cfg:     cfg,
		st:      st,
		sess:    session.New(),
		account: account.NewClient(cfg.APIBaseURL),
		logger:  zerolog.Nop(),
	}

	// Debug logs go to a file next to the database so they never
	// interleave with the TUI.
	if cfg.Debug {
		logPath := filepath.Join(filepath.Dir(dbPath), "solvr.log")
		if f, ferr := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); ferr == nil {
			e.logFile = f
			e.logger = zerolog.New(f).With().Timestamp().Logger()
		}
	}

	e.plans = plans.NewClient(cfg.APIBaseURL, e.logger)

	if saved, loadErr := st.SessionRepo().Load(cmd.Context()); loadErr == nil && saved != nil {
		e.sess.SignIn(saved.Token, saved.Email, saved.Name, saved.Credits)
	}

	return e, nil
}

// newController builds a solve controller wired to the store recorder.
func (e *env) newController(notify func(solve.Update)) *solve.Controller {
	c := solve.New(solve.Options{
		SolveURL:         e.cfg.EffectiveSolveURL(),
		Cost:             e.cfg.SolveCost,
		HandshakeTimeout: e.cfg.HandshakeTimeout,
		Timeout:          e.cfg.SolveTimeout,
		Logger:           e.logger,
	}, e.sess, notify)
	c.SetRecorder(app.NewStoreRecorder(e.st.AttemptRepo(), e.st.LedgerRepo(), e.sess))
	return c
}

// persistBalance writes the session's current balance back to the saved
// session so the next launch starts from the same number.
func (e *env) persistBalance(ctx context.Context) {
	if !e.sess.SignedIn() {
		return
	}
	email, name := e.sess.Profile()
	_ = e.st.SessionRepo().Save(ctx, store.SavedSession{
		Token:   e.sess.Credential(),
		Email:   email,
		Name:    name,
		Credits: e.sess.Balance(),
	})
}

// runApp opens the environment, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	updates := make(chan solve.Update, 32)
	controller := e.newController(func(u solve.Update) {
		select {
		case updates <- u:
		default:
			// Drop rather than stall the stream when the UI lags; the
			// next snapshot carries the full state anyway.
		}
	})

	err = app.Run(app.Options{
		Deps: home.Deps{
			Config:      e.cfg,
			Session:     e.sess,
			Controller:  controller,
			Account:     e.account,
			Plans:       e.plans,
			Attempts:    e.st.AttemptRepo(),
			Ledger:      e.st.LedgerRepo(),
			SessionRepo: e.st.SessionRepo(),
			Logger:      e.logger,
		},
		Updates: updates,
	})

	e.persistBalance(context.Background())
	return err
}
