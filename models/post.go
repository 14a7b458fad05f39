package models

import "time"

// Post is a community post visible to every live connection.
type Post struct {
	ID        string    `bson:"id" json:"id"`
	AuthorID  string    `bson:"authorId" json:"authorId"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
