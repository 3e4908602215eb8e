// Package nmea is the sentence codec of NMEA Link.
//
// It is deliberately small and covers what the gateway needs:
// - XOR checksum computation and verification
// - Classification of a raw bus line into a coarse Category
// - Building the fixed catalog of template sentences used by the generator
// - Normalizing user-edited sentences so the checksum is always authoritative
//
// Nothing in this package returns an error. A noisy serial bus must never stall
// the pipeline, so malformed input degrades to OTHER or to an empty-fields
// sentence instead.
package nmea
