// Package confidentiality seals chat lines for a single recipient and opens
// the ones addressed to the local participant.
//
// Lines without a target travel as plaintext. Lines with a target are
// RSA-OAEP encrypted to the target's registered key and carry the target's
// username in the clear so every other client can tell they are not the
// intended reader.
package confidentiality
