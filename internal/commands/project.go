package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/config"
	"github.com/cleared-dev/ledgerbridge/internal/gitops"
	"github.com/cleared-dev/ledgerbridge/internal/logger"
	"github.com/cleared-dev/ledgerbridge/internal/oracle"
	"github.com/cleared-dev/ledgerbridge/internal/reconcile"
	"github.com/cleared-dev/ledgerbridge/internal/store"
)

// project is an initialized ledgerbridge repository.
type project struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// newGenerator builds the oracle client. Tests replace it.
var newGenerator = func(ctx context.Context, p *project) (oracle.Generator, error) {
	key, err := p.cfg.APIKey()
	if err != nil {
		return nil, err
	}
	return oracle.NewGemini(ctx, key, p.cfg.Oracle.Model, p.log)
}

func repoFlag(cmd *cobra.Command) string {
	repo, _ := cmd.Flags().GetString("repo")
	if repo == "" {
		return "."
	}
	return repo
}

func loadProject(cmd *cobra.Command) (*project, error) {
	root, err := filepath.Abs(repoFlag(cmd))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.LoadRepo(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not a ledgerbridge project (run 'ledgerbridge init'): %w", root, err)
		}
		return nil, err
	}
	if err := config.LoadEnv(root); err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if env := os.Getenv(logger.LevelEnv); env != "" {
		level = env
	}
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	log, err := logger.New(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return &project{root: root, cfg: cfg, log: log}, nil
}

func (p *project) path(rel string) string {
	return config.Resolve(p.root, rel)
}

func (p *project) generator(ctx context.Context) (oracle.Generator, error) {
	gen, err := newGenerator(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("connecting to oracle: %w", err)
	}
	return gen, nil
}

func (p *project) batcher(gen oracle.Generator) *reconcile.Batcher {
	return reconcile.NewBatcher(oracle.NewNameMatcher(gen),
		reconcile.WithBatchSize(p.cfg.Oracle.BatchSize),
		reconcile.WithDelay(p.cfg.Oracle.BatchDelay),
		reconcile.WithLogger(p.log),
	)
}

func (p *project) store() (store.Backend, error) {
	return store.Open(store.Config{
		Backend: p.cfg.Store.Backend,
		Path:    p.path(p.cfg.Store.Path),
		URL:     p.cfg.Store.URL,
		Timeout: p.cfg.Store.Timeout,
	}, p.log)
}

// commit records the work tree when auto-commit is on. Returns the short
// hash, or "" when nothing was committed.
func (p *project) commit(ctx context.Context, message string) (string, error) {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.root) {
		return "", nil
	}
	return gitops.CommitAll(ctx, p.root, message, gitops.Author{
		Name:  p.cfg.Git.AuthorName,
		Email: p.cfg.Git.AuthorEmail,
	})
}
