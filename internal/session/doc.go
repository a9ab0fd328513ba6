// Package session keeps a registry of live frame sessions.
//
// Each websocket connection to the frame server registers its runtime under
// a sess_ ULID and removes it on disconnect. Listings take a fresh snapshot
// of every runtime, so they always show the current path and phase.
package session
