// Package history keeps a local log of executed transactions.
//
// Every install, removal, or upgrade appends one Record to a JSON
// lines file under the user's state directory. The log powers the
// history command and makes it possible to reconstruct what vuru did
// to a system and when.
//
// Logging is best effort: a failure to append never blocks or rolls
// back the transaction it describes.
package history
