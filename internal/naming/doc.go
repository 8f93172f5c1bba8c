// Package naming turns playlist tracks into file names the CDJ-350 can
// display and read from a FAT32 stick.
//
// Rules carries the device constraints (length ceiling, permitted
// punctuation, separator, position prefix). Namer romanizes each track's base
// name, maps it onto the permitted charset, truncates it, and resolves
// collisions case-insensitively in playlist order so the same playlist always
// produces the same names.
package naming
