package model

import (
	"strings"

	"supersonic/core/catalogid"
)

// Song represents one audio file in the catalog.
type Song struct {
	ID       catalogid.ID `json:"id"`
	Title    string       `json:"title"`
	AlbumID  catalogid.ID `json:"albumId"`
	Album    string       `json:"album"`
	ArtistID catalogid.ID `json:"artistId"`
	Artist   string       `json:"artist"`
	Track    int          `json:"track"`
	Disc     int          `json:"discNumber"`
	Year     int          `json:"year"`
	Duration int          `json:"duration"` // seconds
	BitRate  int          `json:"bitRate"`  // kbps
	Genre    string       `json:"genre"`
	Suffix   string       `json:"suffix"` // file type as recorded by the scanner: mp3, ogg, flac
	Filename string       `json:"-"`      // absolute, or relative to a search dir
}

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"ogg":  "audio/ogg",
	"flac": "audio/flac",
}

// ContentType maps the suffix to a MIME type, empty when unknown.
func (s *Song) ContentType() string {
	return ContentTypeOf(s.Suffix)
}

// ContentTypeOf maps a file suffix (with or without the dot) to a MIME type.
func ContentTypeOf(suffix string) string {
	return contentTypes[strings.ToLower(strings.TrimPrefix(suffix, "."))]
}
