// Package hub fans refreshed dashboard views out to websocket clients.
// Run owns the client set; clients join and leave through channels.
package hub

// Message is one JSON-encoded View frame, sent as websocket text.
type Message struct {
	Data []byte
}
