// Package queue defines message payloads exchanged over the message broker.
package queue

// RenderRequestedEvent is published when a pass is issued and its PDF
// document should be rendered in the background. The consumer loads
// the pass by ID, so the payload stays small.
type RenderRequestedEvent struct {
    PassID      uint64 `json:"pass_id"`
    PassNumber  string `json:"pass_number"`
    RequestedAt string `json:"requested_at"`
}
