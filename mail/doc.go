// Package mail provides Mailer implementations for the aurauth engine.
//
//   - [SMTP] delivers over an authenticated SMTP relay.
//   - [Log] writes messages to a structured logger, for development and
//     tests where no relay exists.
//
// Message composition lives in the engine; this package only moves
// bytes.
package mail
