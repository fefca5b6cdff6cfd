// Package protocol owns the gateway wire contract.
//
// Ownership boundary:
// - opcode table
// - envelope encode/decode
// - handshake-critical payload shapes (hello, identify, resume, ready)
package protocol
