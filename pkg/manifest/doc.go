// Package manifest reads and writes the two TOML documents configsync keeps:
// the team model (team-config.toml, inside the repository) and the machine
// state (state.toml, in the data directory).
//
// The on-disk layout is a shared contract between machines and is kept apart
// from the in-memory model in package types. Role scopes in particular are a
// tagged value in memory but a plain optional "roles" list on disk: an absent
// key and an empty list both mean the entry applies to every machine.
package manifest
