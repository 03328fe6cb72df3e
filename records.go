package main

import "time"

// Record - Model of a single to-do item. The id doubles as the document
// key in the remote collection and is assigned by the caller.
type Record struct {
	ID      string `json:"id" bson:"_id"`
	Title   string `json:"title" bson:"title"`
	Body    string `json:"body" bson:"body"`
	Date    string `json:"date" bson:"date"`
	Sticker string `json:"sticker" bson:"sticker"`
	Done    bool   `json:"done" bson:"done"`
}

var dateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
}

// normalizeDate rewrites a calendar date into YYYY-MM-DD. Input that
// matches none of the accepted layouts passes through unchanged.
func normalizeDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}
