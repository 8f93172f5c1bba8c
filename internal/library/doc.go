// Package library defines the read-only view of a DJ library: tracks,
// playlists, and the Source interface that database readers implement.
//
// Readers live in subpackages (rekordboxdb for master.db, rekordboxxml for
// collection exports) and register themselves by format name so the export
// pipeline never imports a concrete backend.
package library
