package models

// ShareLink maps a public, unguessable token to exactly one file. Deleting
// the file cascades to its share links.
type ShareLink struct {
	Token  string
	FileID string
}
