// Package registry holds the client's local view of who has published which
// public key.
//
// It is fed by the relay's seed snapshot on connect and by every register
// frame afterwards. Entries are never removed and a re-registration simply
// replaces the previous key. The registry is owned by the client event loop
// and is not safe for concurrent use.
package registry
