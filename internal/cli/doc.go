// Package cli provides the interactive docsync command-line client.
//
// It wires configuration, the local store, the remote document collection
// and the sync orchestrator into an interactive REPL. Typical flow: paste an
// access token, let the identifier migration catch up, and execute user
// commands.
//
// Key features:
//   - Login / Logout (token-based; signed-out operation stays local)
//   - Add / Update / Delete documents with attachments
//   - List / Show documents
//   - Full and single-document sync
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
