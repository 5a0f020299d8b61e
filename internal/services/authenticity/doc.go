// Package authenticity signs outgoing chat lines and checks inbound ones
// against the key the claimed sender registered.
//
// Every line is signed with the local key, even while the local user claims
// someone else's name. Receivers therefore catch impersonation because the
// signature does not verify under the claimed name's registered key. A bad
// verdict is advisory: the line is always still shown.
package authenticity
