// Package core implements the configsync commands on top of the repository,
// reconcile, secrets, watch and manifest packages.
//
// An App is built once per invocation from a resolved paths.Environment, the
// tool settings, a filesystem and a credential provider, and every command is
// a method on it. Commands return a Result carrying non-fatal outcomes
// (warnings, pull classification, the commit made, the reconciliation report)
// alongside the error for fatal ones.
package core
