// Package rekordboxxml reads playlists from a rekordbox collection export
// (File > Export Collection in xml format). Exports are unencrypted and are
// the portable alternative to reading master.db directly.
package rekordboxxml
