// Package filesystem provides filesystem implementations for configsync.
//
// This package contains the OS implementation of the types.FS interface
// used by the manifest, secrets, reconcile and core packages.
package filesystem
