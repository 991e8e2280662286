// Package guidancedesk implements the authentication and verification core
// of the guidance-office backend: one-time email codes, counselor
// credentials with first-time password setup, and document-store-backed
// sessions referenced by signed tokens.
//
// The package is the public surface. An [Engine], built through [Builder],
// exposes the OTP operations (SendOTP, VerifyOTP, DeleteOTP) and the
// credential/session operations (Login, SetupPassword, Logout,
// ValidateSession). Engine methods are safe for concurrent use after
// [Builder.Build]; the engine holds no mutable request state and delegates
// all persistence to the injected [docstore.Store].
//
// # Architecture boundaries
//
//   - Persistence lives behind docstore; the engine never sees a Redis or
//     SQL client.
//   - Mail delivery lives behind [mail.Sender].
//   - HTTP concerns (JSON envelopes, cookies, redirects) live in httpapi
//     and middleware, never here.
//
// # Failure semantics
//
// Collaborator failures are wrapped, not retried: mail failures surface as
// [ErrDelivery], store failures as [ErrStore]. A persist failure after a
// successful send leaves an emailed but unrecorded code; the engine logs
// the address so operators can reconcile.
package guidancedesk
