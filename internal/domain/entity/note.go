package entity

import "strings"

type Note struct {
	Base   `bson:",inline"`
	Title  string   `json:"title" bson:"title"`
	Body   string   `json:"body" bson:"body"`
	Tags   []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Author string   `json:"author,omitempty" bson:"author,omitempty"`
}

func NewNote(title, body, author string, tags ...string) (*Note, error) {
	n := &Note{
		Title:  strings.TrimSpace(title),
		Body:   body,
		Author: author,
		Tags:   tags,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the note content; the id is assigned later, when the note is staged.
func (n *Note) Validate() error {
	if n.Title == "" {
		return ErrTitleRequired
	}
	return nil
}

// NoteSummary is the list shape of a note.
type NoteSummary struct {
	ID       string `json:"id" bson:"_id"`
	Title    string `json:"title" bson:"title"`
	Author   string `json:"author,omitempty" bson:"author,omitempty"`
	Disabled bool   `json:"disabled" bson:"disabled"`
}
