// Package relay is the broadcast transport veilchat clients talk through.
//
// The wire protocol is a stream of frames over TCP. Each frame is a 4-byte
// big-endian length followed by a CBOR encoded Frame carrying exactly one
// event:
//   - Seed: the relay's registrations so far, sent once on connect.
//   - Register: a username and public key, rebroadcast to every peer.
//   - Message: a chat envelope, rebroadcast to every peer.
//
// Conn is the client side and implements domain.Publisher. Server is the
// relay itself: it keeps registrations in memory, fans every frame out to all
// connected peers including the sender, and drops peers that fall behind
// rather than stalling the others. The relay never inspects payloads.
//
// Advertise and Discover publish and find a relay on the local network over
// mDNS.
package relay
