// Package nmea tokenizes, validates, decodes and encodes NMEA-0183 sentences.
//
// Parsing never panics on malformed input: structural and checksum problems
// are reported through Tokenized.Malformed and Tokenized.Valid, and field
// decode failures through Sentence.Err. Unrecognized command words produce a
// KindUnknown sentence with no capabilities.
package nmea
