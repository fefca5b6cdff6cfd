// Package session runs one logical gateway session.
//
// Ownership boundary:
// - Hello / Identify / Resume handshake
// - heartbeat scheduling and liveness
// - transport replacement, resume and reconnect backoff
// - dispatch fan-out to the events registry
// - outbound voice state commands
//
// A Session owns its state on a single loop goroutine. Transport reads,
// heartbeat timers and API calls are delivered to that loop as events, and
// inputs from a transport or heartbeat that has since been replaced are
// discarded.
package session
