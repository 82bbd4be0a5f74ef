// Package reconcile makes a machine's filesystem match the team model.
//
// For every entry in scope for the machine's roles, plain files and
// directories are exposed at their destination as symlinks into the managed
// directory, and secrets are decrypted and written as owner-only regular
// files. The engine never removes or overwrites anything it did not create:
// an occupied destination is reported as a conflict.
//
// A pass never stops early. Every entry gets a Result, and the Report
// aggregates them so callers can decide how to surface partial application.
package reconcile
