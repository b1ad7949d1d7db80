// Package gitsync keeps the store file in a version-controlled remote
// location. It clones or pulls the repository before an ingestion run
// and stages, commits and pushes the store file afterwards.
package gitsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/aa08453/spectra/internal/errors"
	"github.com/aa08453/spectra/internal/ingest"
	"github.com/aa08453/spectra/internal/logging"
)

// Options configures a sync client.
type Options struct {
	// URL is the remote repository. Authentication relies on the
	// caller's pre-existing credentials (SSH agent, credential helper).
	URL string

	// Dir is the local checkout directory.
	Dir string

	// StoreFile is the store file path relative to Dir.
	StoreFile string

	// Branch is the branch to clone and push. Empty means the remote's
	// default branch.
	Branch string

	// Remote is the remote name. Empty means "origin".
	Remote string

	// AuthorName and AuthorEmail identify the tool's commits.
	AuthorName  string
	AuthorEmail string

	// Timeout bounds each remote operation.
	Timeout time.Duration
}

// Client synchronizes the store file with its remote repository.
type Client struct {
	opts Options
}

// New creates a sync client.
func New(opts Options) *Client {
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.AuthorName == "" {
		opts.AuthorName = "spectra"
	}
	if opts.AuthorEmail == "" {
		opts.AuthorEmail = "spectra@localhost"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Client{opts: opts}
}

// EnsureRepo makes the local checkout current: it clones the remote when
// the checkout does not exist yet and pulls otherwise.
func (c *Client) EnsureRepo(ctx context.Context) error {
	log := logging.Component("gitsync")

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	repo, err := git.PlainOpen(c.opts.Dir)
	if err == git.ErrRepositoryNotExists {
		log.Info("cloning repository", "url", c.opts.URL, "dir", c.opts.Dir)

		cloneOpts := &git.CloneOptions{URL: c.opts.URL}
		if c.opts.Branch != "" {
			cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(c.opts.Branch)
			cloneOpts.SingleBranch = true
		}

		if _, err := git.PlainCloneContext(ctx, c.opts.Dir, false, cloneOpts); err != nil {
			return errors.NewSync("clone", err)
		}
		return nil
	}
	if err != nil {
		return errors.NewSync("open", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.NewSync("worktree", err)
	}

	log.Info("pulling repository", "dir", c.opts.Dir)
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: c.opts.Remote})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.NewSync("pull", err)
	}

	return nil
}

// Sync stages the store file, commits it with a message built from the
// summary, and pushes. A failure leaves the local store untouched; the
// caller reports it and moves on.
func (c *Client) Sync(ctx context.Context, summary *ingest.Summary) error {
	log := logging.Component("gitsync")

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	repo, err := git.PlainOpen(c.opts.Dir)
	if err != nil {
		return errors.NewSync("open", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.NewSync("worktree", err)
	}

	if _, err := wt.Add(c.opts.StoreFile); err != nil {
		return errors.NewSync("stage", err)
	}

	status, err := wt.Status()
	if err != nil {
		return errors.NewSync("status", err)
	}
	if status.IsClean() {
		log.Info("store unchanged, nothing to commit")
		return nil
	}

	message := CommitMessage(summary)
	commit, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.opts.AuthorName,
			Email: c.opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return errors.NewSync("commit", err)
	}
	log.Info("committed store update", "commit", commit.String())

	err = repo.PushContext(ctx, &git.PushOptions{RemoteName: c.opts.Remote})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errors.NewSync("push", err)
	}

	log.Info("pushed store update", "remote", c.opts.Remote)
	return nil
}

// CommitMessage deterministically formats the run summary into a
// human-readable commit message.
func CommitMessage(s *ingest.Summary) string {
	status := "without metadata update"
	if s.MetadataUpdated {
		status = "with metadata update"
	}

	timestamps := "None"
	if len(s.Timestamps) > 0 {
		timestamps = strings.Join(s.Timestamps, ", ")
	}

	return fmt.Sprintf("Updated sample store: added %d samples from %s %s\nTimestamps: %s",
		s.NewSamples, s.SensorType.Label(), status, timestamps)
}
