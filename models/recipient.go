package models

// Recipient is the directory view of a registered user.
type Recipient struct {
	ID       string `bson:"id" json:"id"`
	FCMToken string `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
}
