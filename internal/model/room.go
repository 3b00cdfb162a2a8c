package model

// Room is a bookable space.  Rooms are seeded from the backing store at
// startup and are read-only for the API.
//
// Fields:
//
//	ID       – opaque identifier, unique and immutable.
//	Name     – display name.
//	Capacity – maximum number of simultaneous occupants.
type Room struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Capacity int    `json:"capacity" yaml:"capacity"`
}
