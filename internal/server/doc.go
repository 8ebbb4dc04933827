// Package server provides the HTTP host adapter for the hook engine.
//
// Every request to an event route becomes exactly one dispatch; the
// result is mapped onto the response:
//
//	Handled    200, the hook's value as JSON
//	Denied     403 PERMISSION_DENIED
//	Unhandled  404 NOT_FOUND, with a suggested name when one is close
//
// # API Endpoints
//
//	POST /{actorID}/methods/{name}        method
//	POST /{actorID}/actions/{name}        action
//	GET  /{actorID}/properties/{path...}  property, payload {"operation":"get"}
//	PUT  /{actorID}/properties/{path...}  property, payload {"operation":"put","value":...}
//	POST /{actorID}/callbacks/{name}      callback
//	POST /{actorID}/subscriptions/{name}  subscription
//	POST /{actorID}/lifecycle/{name}      lifecycle
//	POST /callbacks/{name}                app_callback, no actor
//	GET  /hooks                           registrations
//	GET  /metrics                         dispatch metrics
//	GET  /event                           event stream (SSE)
//	GET  /health
//
// The Authorization header is classified into the auth context handed to
// the permission gate: Basic credentials as basic, a bearer token as
// oauth, or as trust when the X-ActingWeb-Peer header names the peer.
// Requests without credentials are anonymous.
//
// # Host Disciplines
//
// Without a scheduler each request goroutine drives its own dispatch and
// waits for suspendable hooks in place. WithScheduler turns the server
// into a cooperative host: dispatch steps run on the scheduler and the
// request goroutine only waits for the final result.
package server
