package model

import "supersonic/core/catalogid"

// Album 专辑，ID = Compute(Album, "title@artist")
type Album struct {
	ID       catalogid.ID `json:"id"`
	Title    string       `json:"title"`
	ArtistID catalogid.ID `json:"artistId"`
	Artist   string       `json:"artist"`
	HasCover bool         `json:"hasCover"`
}

