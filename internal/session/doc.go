// Package session holds the per-client mode state machines and the glue that
// routes typed lines and relayed envelopes through the active pipeline.
//
// Contents
//
//   - ParseDirective: classifies an input line into a Directive. It knows the
//     command syntax and nothing about modes.
//   - ConfidentialMode (Public, PrivateTo) and NextConfidential.
//   - ClaimedIdentity and NextClaimed.
//   - ConfidentialSession and AuthenticSession, which apply directives,
//     call the pipelines, publish to the relay and render to the console.
//
// Sessions are driven from a single goroutine and hold no locks.
package session
