package backup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/hearth/internal/host/store"
)

// mockContents simulates the Contents API: file exists iff sha != "".
type mockContents struct {
	sha     string
	created int
	updated int
	lastSHA string
	err     error
}

func (m *mockContents) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	if m.sha == "" {
		return nil, nil, nil, errors.New("404 not found")
	}
	return &github.RepositoryContent{SHA: github.String(m.sha)}, nil, nil, nil
}

func (m *mockContents) CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.created++
	return nil, nil, nil
}

func (m *mockContents) UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	m.updated++
	if opts.SHA != nil {
		m.lastSHA = *opts.SHA
	}
	return nil, nil, nil
}

// fixedSnapshotter returns a canned snapshot.
type fixedSnapshotter struct {
	snap *store.Snapshot
	err  error
}

func (f *fixedSnapshotter) TakeSnapshot() (*store.Snapshot, error) {
	return f.snap, f.err
}

func testSnapshotter() *fixedSnapshotter {
	return &fixedSnapshotter{snap: &store.Snapshot{State: map[string]string{"k": "v"}}}
}

func TestNew_DisabledWithoutToken(t *testing.T) {
	b, err := New(Opts{Store: testSnapshotter(), Owner: "org", Repo: "r"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != nil {
		t.Error("expected nil (disabled) backup without token")
	}
}

func TestNew_TokenRequiresOwnerRepo(t *testing.T) {
	_, err := New(Opts{Store: testSnapshotter(), Token: "ghp_x"})
	if err == nil {
		t.Fatal("expected error without owner/repo")
	}
	if !strings.Contains(err.Error(), "owner and repo") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestRun_CreatesWhenFileMissing(t *testing.T) {
	client := &mockContents{}
	b, err := New(Opts{Store: testSnapshotter(), Owner: "org", Repo: "r", Client: client})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if client.created != 1 || client.updated != 0 {
		t.Errorf("created/updated = %d/%d, want 1/0", client.created, client.updated)
	}
}

func TestRun_UpdatesWithExistingSHA(t *testing.T) {
	client := &mockContents{sha: "abc123"}
	b, err := New(Opts{Store: testSnapshotter(), Owner: "org", Repo: "r", Client: client})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if client.updated != 1 || client.created != 0 {
		t.Errorf("created/updated = %d/%d, want 0/1", client.created, client.updated)
	}
	if client.lastSHA != "abc123" {
		t.Errorf("update SHA = %q, want %q", client.lastSHA, "abc123")
	}
}

func TestRun_SnapshotErrorPropagates(t *testing.T) {
	st := &fixedSnapshotter{err: errors.New("db gone")}
	b, err := New(Opts{Store: st, Owner: "org", Repo: "r", Client: &mockContents{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Run(context.Background()); err == nil {
		t.Error("expected snapshot error to propagate")
	}
}

func TestRun_CommitErrorWrapped(t *testing.T) {
	client := &mockContents{err: errors.New("403 forbidden")}
	b, err := New(Opts{Store: testSnapshotter(), Owner: "org", Repo: "r", Client: client})
	if err != nil {
		t.Fatal(err)
	}
	err = b.Run(context.Background())
	if err == nil {
		t.Fatal("expected commit error")
	}
	if !strings.Contains(err.Error(), "backup:") {
		t.Errorf("error = %q, want backup: prefix", err.Error())
	}
}
