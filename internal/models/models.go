package models

// Joke is either fetched from the upstream API (ID is the upstream id) or
// read back from the jokes table (ID is the store-assigned id). ID is zero
// until the joke has been saved.
type Joke struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Setup     string `json:"setup"`
	Punchline string `json:"punchline"`
}

type FavoriteAction string

const (
	ActionSaved   FavoriteAction = "saved"
	ActionUpdated FavoriteAction = "updated"
	ActionDeleted FavoriteAction = "deleted"
)
