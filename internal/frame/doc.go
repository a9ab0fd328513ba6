// Package frame runs the embedded side of the bridge. A Runtime owns the
// frame document, announces itself with a ready message, builds the facade
// module on init and reports a resize and a sanitized render snapshot after
// every document mutation.
package frame
