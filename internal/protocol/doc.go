// Package protocol defines the wire messages exchanged with the session
// coordinator.
//
// Inbound frames are JSON objects tagged by a "type" field. Decode maps each
// known type onto a concrete variant; anything else becomes an Unknown value
// so that new coordinator message kinds never break the consumer.
package protocol
