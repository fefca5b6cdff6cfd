// Package transport owns the full-duplex message connection to the gateway.
//
// Ownership boundary:
// - dialing and TLS client setup
// - one text frame per Read
// - close status classification (code, reason, clean)
//
// It never interprets frame content.
package transport
