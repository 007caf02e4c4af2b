// Package backup pushes store snapshots to a GitHub repository for
// disaster recovery. With no token configured it degrades to a no-op.
package backup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/hearth/internal/host/store"
	"golang.org/x/oauth2"
)

// contentsClient abstracts the GitHub Contents API calls we use,
// enabling test mocks.
type contentsClient interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
	UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
}

// snapshotter is the slice of the store the backup layer needs.
type snapshotter interface {
	TakeSnapshot() (*store.Snapshot, error)
}

// Opts holds backup construction parameters.
type Opts struct {
	Store  snapshotter // required
	Owner  string
	Repo   string
	Branch string // default "main"
	Path   string // default "snapshots/hearth.json"
	Token  string // empty disables backups
	// For testing: inject a mock client instead of the real GitHub API.
	Client contentsClient
}

// Backup snapshots the store and commits the JSON to a repo path.
type Backup struct {
	st     snapshotter
	client contentsClient
	owner  string
	repo   string
	branch string
	path   string
}

// New creates a Backup. It returns (nil, nil) when no token or client
// is configured; callers treat a nil Backup as disabled.
func New(opts Opts) (*Backup, error) {
	if opts.Token == "" && opts.Client == nil {
		return nil, nil
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("backup: store is required")
	}
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("backup: owner and repo are required")
	}
	if opts.Branch == "" {
		opts.Branch = "main"
	}
	if opts.Path == "" {
		opts.Path = "snapshots/hearth.json"
	}

	b := &Backup{
		st:     opts.Store,
		owner:  opts.Owner,
		repo:   opts.Repo,
		branch: opts.Branch,
		path:   opts.Path,
	}
	if opts.Client != nil {
		b.client = opts.Client
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		b.client = github.NewClient(oauth2.NewClient(context.Background(), ts)).Repositories
	}
	return b, nil
}

// Run takes a snapshot and commits it, creating or updating the file as
// needed.
func (b *Backup) Run(ctx context.Context) error {
	snap, err := b.st.TakeSnapshot()
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	message := fmt.Sprintf("hearth snapshot %s", snap.TakenAt.Format(time.RFC3339))
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: data,
		Branch:  github.String(b.branch),
	}

	existing, _, _, err := b.client.GetContents(ctx, b.owner, b.repo, b.path,
		&github.RepositoryContentGetOptions{Ref: b.branch})
	if err == nil && existing != nil && existing.SHA != nil {
		opts.SHA = existing.SHA
		if _, _, err := b.client.UpdateFile(ctx, b.owner, b.repo, b.path, opts); err != nil {
			return fmt.Errorf("backup: update %s: %w", b.path, err)
		}
	} else {
		if _, _, err := b.client.CreateFile(ctx, b.owner, b.repo, b.path, opts); err != nil {
			return fmt.Errorf("backup: create %s: %w", b.path, err)
		}
	}
	log.Printf("backup: snapshot committed to %s/%s:%s", b.owner, b.repo, b.path)
	return nil
}

// RunEvery commits a snapshot on the given interval until ctx is
// cancelled. Failures are logged and retried next interval.
func (b *Backup) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Run(ctx); err != nil {
				log.Printf("backup: %v", err)
			}
		}
	}
}
