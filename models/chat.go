package models

import "time"

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one entry in an owner's append-only conversation.
type ChatMessage struct {
	ID        string    `bson:"id" json:"id"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Sender    Sender    `bson:"sender" json:"sender"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}
