// Package rekordboxdb reads playlists from a rekordbox 6 master.db.
//
// The database is opened read-only for the duration of each call and
// released afterwards so rekordbox can keep running. Transient SQLITE_BUSY
// failures are retried with a short backoff. Encrypted databases cannot be
// opened; point the tool at a decrypted copy or a rekordbox XML export.
package rekordboxdb
