// Package model defines stable boundary types for API layers.
//
// Fingerprints and canonical bytes are unaffected by any projection. These
// structs are the only types intended for direct JSON serialization by
// consumers of the CLI and HTTP service.
package model
