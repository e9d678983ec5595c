package models

import "time"

type Contact struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	ProfileImage string `json:"profileImage,omitempty"`
	About        string `json:"about,omitempty"`
	Online       bool   `json:"-"`
}

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageAudio MessageType = "audio"
)

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

type Message struct {
	ID          int64         `json:"id"`
	SenderID    int64         `json:"senderId"`
	RecipientID int64         `json:"recieverId"` // sic, backend spelling
	Body        string        `json:"message"`
	Type        MessageType   `json:"type"`
	Status      MessageStatus `json:"messageStatus"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Reply is a canned bot response. Its delay lives in local storage, not on
// the backend.
type Reply struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// ImportEntry is one contact accepted for a batch import.
type ImportEntry struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
}
