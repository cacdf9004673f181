// Package events defines the closed set of well-known event shapes that ship
// with dedicated codecs.
//
// Codecs only accept canonical JSON text. Input coercion serializes already
// structured inputs before handing them to a codec, so both representations
// of an event decode identically.
//
// Timestamps are Timestamp values: JSON numbers are epoch nanoseconds and
// strings are RFC 3339.
package events
