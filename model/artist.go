package model

import "supersonic/core/catalogid"

// Artist 艺术家，ID = Compute(Artist, name)
type Artist struct {
	ID   catalogid.ID `json:"id"`
	Name string       `json:"name"`
}
