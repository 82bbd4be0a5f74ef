// Package repository wraps the version-controlled managed directory with the
// small set of operations configsync needs: init, clone, open, commit-all,
// push, fast-forward-only pull, revert and history.
//
// It is built on go-git, so no git binary is required. The branch is resolved
// once when a Repository is created and carried by it afterwards; push and
// pull always operate on that branch and the configured remote.
//
// Pull never merges. Local history is either already up to date, strictly
// behind the remote (fast-forwarded, working tree force-updated) or diverged,
// which is reported as an ErrDiverged failure with local refs untouched.
package repository
