// Package types defines the declarative model shared by every configsync
// component: the team configuration stored in the repository, its tracked
// entries and their role scopes, and the machine-local state. It also holds
// the FS interface the filesystem-touching packages are written against.
package types
