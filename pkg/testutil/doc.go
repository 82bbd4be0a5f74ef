// Package testutil provides helpers shared by configsync tests: isolated
// directory layouts with a resolved paths.Environment, bare repositories that
// stand in for remotes, and small file assertions.
package testutil
