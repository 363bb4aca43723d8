// Package lspbridge converts diag.Issue and diag.Result values into the
// wire types of github.com/tliron/glsp's protocol_3_16 package, grouped by
// document URI the way textDocument/publishDiagnostics expects.
//
// This package stops at the data shape. It does not open a connection,
// dispatch a request, or otherwise implement any part of the Language
// Server Protocol's runtime — that dispatch loop is out of scope here.
// Its only job is proving the diagnostic model already lines up with LSP's
// shape closely enough that a server could be built on top of it without
// reshaping diag first.
package lspbridge
