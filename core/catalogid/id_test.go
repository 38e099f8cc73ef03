package catalogid

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDeterministic(t *testing.T) {
	keys := []string{"", "Daft Punk", "Discovery@Daft Punk", "1@1@One More Time@Discovery@Daft Punk"}
	for _, class := range []Class{Album, Artist, Song} {
		for _, key := range keys {
			a := Compute(class, key)
			b := Compute(class, key)
			assert.Equal(t, a, b)
			assert.Equal(t, class, ClassOf(a))
		}
	}
}

func TestComputeMatchesScannerLayout(t *testing.T) {
	sum := sha256.Sum256([]byte("Daft Punk"))
	want := uint64(1)<<60 | binary.BigEndian.Uint64(sum[:8])&(uint64(1)<<60-1)
	assert.Equal(t, ID(want), ArtistID("Daft Punk"))
}

func TestComputeClassesNeverCollide(t *testing.T) {
	key := "Discovery@Daft Punk"
	assert.NotEqual(t, Compute(Album, key), Compute(Artist, key))
	assert.NotEqual(t, Compute(Album, key), Compute(Song, key))
	// same hash bits, different tag
	assert.Equal(t, uint64(Compute(Album, key))&hashMask, uint64(Compute(Song, key))&hashMask)
}

func TestClassOfUnknownTags(t *testing.T) {
	for tag := uint64(3); tag < 16; tag++ {
		assert.Equal(t, Unknown, ClassOf(ID(tag<<60|12345)))
	}
	assert.Equal(t, Unknown, ClassOf(Invalid))
	assert.Equal(t, Album, ClassOf(ID(0)))
}

func TestHexRoundTrip(t *testing.T) {
	ids := []ID{0, 1, Invalid, ArtistID("Daft Punk"), AlbumID("Discovery", "Daft Punk"), ID(0x2000000000000abc)}
	for _, id := range ids {
		s := id.Hex()
		assert.Len(t, s, HexLen)
		back, err := ParseHexStrict(s)
		assert.NoError(t, err)
		assert.Equal(t, id, back)
	}
	assert.Equal(t, "0000000000000001", ID(1).Hex())
}

func TestParseHexMalformed(t *testing.T) {
	bad := []string{"", "0ff", "123", "zzzzzzzzzzzzzzzz", "0x00000000000001", "00000000000000001", "-000000000000001", "+000000000000001"}
	for _, s := range bad {
		_, err := ParseHexStrict(s)
		assert.ErrorIs(t, err, ErrMalformed, s)
		assert.Equal(t, Invalid, ParseHex(s), s)
		assert.Equal(t, Unknown, ClassOf(ParseHex(s)), s)
	}
	assert.Equal(t, ID(0xabcdef), ParseHex("0000000000ABCDEF"))
}

func TestCanonicalKeys(t *testing.T) {
	assert.Equal(t, "Discovery@Daft Punk", AlbumKey("Discovery", "Daft Punk"))
	assert.Equal(t, "3@1@Digital Love@Discovery@Daft Punk", SongKey(3, 1, "Digital Love", "Discovery", "Daft Punk"))
	assert.Equal(t, Compute(Album, "Discovery@Daft Punk"), AlbumID("Discovery", "Daft Punk"))
	assert.Equal(t, Song, SongID(3, 1, "Digital Love", "Discovery", "Daft Punk").Class())
}
