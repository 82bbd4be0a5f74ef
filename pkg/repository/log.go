package repository

import (
	stderrors "errors"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/arthur-debert/configsync/pkg/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const shortHashLen = 7

// CommitInfo describes one commit of the managed history
type CommitInfo struct {
	Hash      string
	ShortHash string
	When      time.Time
	Author    string
	Summary   string
	Message   string
	Parents   []string
}

func newCommitInfo(c *object.Commit) CommitInfo {
	hash := c.Hash.String()
	info := CommitInfo{
		Hash:      hash,
		ShortHash: hash[:shortHashLen],
		When:      c.Committer.When,
		Author:    c.Author.Name,
		Summary:   summary(c.Message),
		Message:   c.Message,
	}
	for _, p := range c.ParentHashes {
		info.Parents = append(info.Parents, p.String())
	}
	return info
}

func summary(message string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(message), "\n")
	return strings.TrimSpace(line)
}

// Log walks history from HEAD, newest first by committer time, yielding at
// most limit commits (all of them when limit is not positive). The walk is
// lazy and starts afresh on every range. An unborn branch yields nothing.
func (r *Repository) Log(limit int) iter.Seq2[CommitInfo, error] {
	return func(yield func(CommitInfo, error) bool) {
		head, err := r.repo.Head()
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return
		}
		if err != nil {
			yield(CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to read HEAD"))
			return
		}

		commits, err := r.repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
		if err != nil {
			yield(CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to walk history"))
			return
		}
		defer commits.Close()

		for n := 0; limit <= 0 || n < limit; n++ {
			c, err := commits.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(CommitInfo{}, errors.Wrap(err, errors.ErrRepository, "failed to walk history"))
				return
			}
			if !yield(newCommitInfo(c), nil) {
				return
			}
		}
	}
}

// History collects Log into a slice
func (r *Repository) History(limit int) ([]CommitInfo, error) {
	var out []CommitInfo
	for info, err := range r.Log(limit) {
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}
