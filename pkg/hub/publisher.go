package hub

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rs/zerolog"

	"github.com/smoltrace/smoltrace/internal/leaderboard"
	"github.com/smoltrace/smoltrace/internal/utils"
)

// LeaderboardFileName is the row file inside a leaderboard repo.
const LeaderboardFileName = "leaderboard.json"

// Config configures a Publisher.
type Config struct {
	// BaseURL is the remote hosting the dataset repos, e.g.
	// "https://huggingface.co/datasets".
	BaseURL string

	// Username authenticates pushes; also the dataset owner.
	Username string

	// Token enables pushing. Empty means local-only commits.
	Token string

	// WorkDir holds the working clones.
	WorkDir string

	Logger zerolog.Logger
}

// RunInfo identifies the run a dataset belongs to.
type RunInfo struct {
	RunID string
	Model string
}

// Publisher pushes run artifacts into dataset git repositories.
type Publisher struct {
	cfg Config
}

// NewPublisher creates a publisher.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{cfg: cfg}
}

// PublishRun publishes a stored run's results, traces, and metrics to
// their dataset repos. Missing artifact files are skipped.
func (p *Publisher) PublishRun(ctx context.Context, names DatasetNames, runDir string, info RunInfo) error {
	artifacts := []struct {
		repo string
		file string
		kind string
	}{
		{names.Results, "results.json", "results"},
		{names.Traces, "traces.json", "traces"},
		{names.Metrics, "metrics.json", "metrics"},
	}

	for _, a := range artifacts {
		src := filepath.Join(runDir, a.file)
		if !utils.FileExists(src) {
			p.cfg.Logger.Debug().Str("file", a.file).Msg("artifact missing, skipping dataset")
			continue
		}
		if err := p.publishFile(ctx, a.repo, src, a.kind, info); err != nil {
			return fmt.Errorf("failed to publish %s: %w", a.kind, err)
		}
		p.cfg.Logger.Info().Str("dataset", a.repo).Msg("published dataset")
	}
	return nil
}

// UpdateLeaderboard appends one row to the shared leaderboard repo,
// following read-existing, append, write-whole.
func (p *Publisher) UpdateLeaderboard(ctx context.Context, repoName string, row leaderboard.Row) error {
	dest, repo, err := p.cloneOrInit(ctx, repoName)
	if err != nil {
		return err
	}

	rowsPath := filepath.Join(dest, LeaderboardFileName)
	var rows []leaderboard.Row
	if utils.FileExists(rowsPath) {
		if err := utils.ReadJSON(rowsPath, &rows); err != nil {
			return fmt.Errorf("failed to read existing leaderboard: %w", err)
		}
	}
	rows = append(rows, row)
	if err := utils.WriteJSON(rowsPath, rows); err != nil {
		return err
	}

	manifest := Manifest{Dataset: DatasetInfo{
		Name:      repoName,
		Kind:      "leaderboard",
		CreatedAt: time.Now().Format(time.RFC3339),
	}}
	if err := WriteManifest(filepath.Join(dest, ManifestFileName), manifest); err != nil {
		return err
	}

	msg := fmt.Sprintf("Update: %s %s", row.Model, row.AgentType)
	if err := commitAll(repo, msg); err != nil {
		return err
	}
	p.cfg.Logger.Info().Str("dataset", repoName).Int("rows", len(rows)).Msg("updated leaderboard")

	return p.push(ctx, repo)
}

func (p *Publisher) publishFile(ctx context.Context, repoName, srcPath, kind string, info RunInfo) error {
	dest, repo, err := p.cloneOrInit(ctx, repoName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, filepath.Base(srcPath)), data, 0644); err != nil {
		return fmt.Errorf("failed to stage artifact: %w", err)
	}

	manifest := Manifest{Dataset: DatasetInfo{
		Name:      repoName,
		Kind:      kind,
		RunID:     info.RunID,
		Model:     info.Model,
		CreatedAt: time.Now().Format(time.RFC3339),
	}}
	if err := WriteManifest(filepath.Join(dest, ManifestFileName), manifest); err != nil {
		return err
	}

	msg := fmt.Sprintf("Add %s for run %s", kind, info.RunID)
	if err := commitAll(repo, msg); err != nil {
		return err
	}

	return p.push(ctx, repo)
}

// cloneOrInit prepares a working clone for the repo. When the remote
// does not exist yet (first publish), a fresh repository is initialized
// with origin pointing at the expected URL.
func (p *Publisher) cloneOrInit(ctx context.Context, repoName string) (string, *git.Repository, error) {
	dest := filepath.Join(p.cfg.WorkDir, path.Base(repoName))
	if err := os.RemoveAll(dest); err != nil {
		return "", nil, fmt.Errorf("failed to clear clone destination: %w", err)
	}

	url := p.repoURL(repoName)
	repo, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:   url,
		Auth:  p.auth(),
		Depth: 1,
		Tags:  git.NoTags,
	})
	if err == nil {
		return dest, repo, nil
	}

	p.cfg.Logger.Debug().Str("repo", repoName).Err(err).Msg("clone failed, initializing new repository")
	if err := utils.EnsureDir(dest); err != nil {
		return "", nil, err
	}
	repo, err = git.PlainInit(dest, false)
	if err != nil {
		return "", nil, fmt.Errorf("failed to init repository: %w", err)
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to configure remote: %w", err)
	}
	return dest, repo, nil
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository) error {
	if p.cfg.Token == "" {
		p.cfg.Logger.Debug().Msg("no token configured, skipping push")
		return nil
	}
	if err := repo.PushContext(ctx, &git.PushOptions{Auth: p.auth()}); err != nil {
		return fmt.Errorf("push failed: %w", err)
	}
	return nil
}

func (p *Publisher) auth() transport.AuthMethod {
	if p.cfg.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: p.cfg.Username,
		Password: p.cfg.Token,
	}
}

func (p *Publisher) repoURL(repoName string) string {
	return strings.TrimSuffix(p.cfg.BaseURL, "/") + "/" + repoName
}

func commitAll(repo *git.Repository, msg string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "smoltrace",
			Email: "smoltrace@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}
