package domain

import "time"

// NoteEntry is one unit of clinical-note text supplied by the import
// collaborator. The categorization core only reads Text and writes
// Categories; Selected belongs to the presentation layer and Date to the
// importer.
type NoteEntry struct {
	ID         string     `json:"id"`
	Date       *time.Time `json:"date,omitempty"`
	Text       string     `json:"text"`
	Snippet    string     `json:"snippet,omitempty"`
	Selected   bool       `json:"selected"`
	Categories []string   `json:"categories,omitempty"`
}
