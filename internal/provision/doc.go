// Package provision creates and verifies the destination tables.
//
// ResetSchema is destructive: it drops both tables (and anything depending
// on them) before recreating them from the canonical definitions, all in
// one transaction. Callers must pass ConfirmDestructiveReset to run it.
package provision
