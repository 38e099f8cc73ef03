// Package catalogid computes and classifies the 64-bit identifiers used for
// every artist, album and song in the catalog.
//
// The top 4 bits of an ID carry the entity class, the low 60 bits are the
// leading bytes of the SHA-256 of the entity's canonical key. The scanner
// computes IDs the same way, so an ID taken from a client request can be
// classified without touching the database.
package catalogid

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"strconv"
)

// ID is a self-describing catalog identifier.
type ID uint64

// Class is the entity class stored in the top 4 bits of an ID.
type Class uint8

const (
	Album   Class = 0
	Artist  Class = 1
	Song    Class = 2
	Unknown Class = 0xf
)

const (
	classShift = 60
	hashMask   = uint64(1)<<classShift - 1

	// HexLen is the fixed width of an ID on the wire.
	HexLen = 16
)

// Invalid is what malformed or missing wire IDs decode to. Its class tag is
// 0xf, so it classifies as Unknown and never collides with a real Album ID.
const Invalid = ID(^uint64(0))

var ErrMalformed = errors.New("malformed catalog id")

func (c Class) String() string {
	switch c {
	case Album:
		return "album"
	case Artist:
		return "artist"
	case Song:
		return "song"
	}
	return "unknown"
}

// Compute hashes key and tags the result with class. An empty key is a
// normal input and yields the tagged hash of the empty string.
func Compute(class Class, key string) ID {
	sum := sha256.Sum256([]byte(key))
	h := binary.BigEndian.Uint64(sum[:8])
	return ID(uint64(class)<<classShift | h&hashMask)
}

// ClassOf returns the class tag of id, or Unknown for tags outside the
// three known classes.
func ClassOf(id ID) Class {
	c := Class(uint64(id) >> classShift)
	switch c {
	case Album, Artist, Song:
		return c
	}
	return Unknown
}

func (id ID) Class() Class { return ClassOf(id) }

// Hex encodes id as 16 lowercase hex digits.
func (id ID) Hex() string {
	const digits = "0123456789abcdef"
	var buf [HexLen]byte
	n := uint64(id)
	for i := HexLen - 1; i >= 0; i-- {
		buf[i] = digits[n&0xf]
		n >>= 4
	}
	return string(buf[:])
}

func (id ID) String() string { return id.Hex() }

// ParseHexStrict decodes a 16 digit hex ID. Upper case digits are accepted.
func ParseHexStrict(s string) (ID, error) {
	if len(s) != HexLen {
		return Invalid, ErrMalformed
	}
	n, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Invalid, ErrMalformed
	}
	return ID(n), nil
}

// ParseHex is ParseHexStrict without the error: anything malformed becomes
// Invalid, which misses every catalog lookup.
func ParseHex(s string) ID {
	id, err := ParseHexStrict(s)
	if err != nil {
		return Invalid
	}
	return id
}

// ArtistKey is the canonical key of an artist.
func ArtistKey(artist string) string {
	return artist
}

// AlbumKey is the canonical key of an album: title@artist.
func AlbumKey(title, artist string) string {
	return title + "@" + artist
}

// SongKey is the canonical key of a song: track@disc@title@album@artist.
func SongKey(track, disc int, title, album, artist string) string {
	return strconv.Itoa(track) + "@" + strconv.Itoa(disc) + "@" + title + "@" + album + "@" + artist
}

func ArtistID(artist string) ID {
	return Compute(Artist, ArtistKey(artist))
}

func AlbumID(title, artist string) ID {
	return Compute(Album, AlbumKey(title, artist))
}

func SongID(track, disc int, title, album, artist string) ID {
	return Compute(Song, SongKey(track, disc, title, album, artist))
}
