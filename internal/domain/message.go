package domain

import "time"

// Message and LocationMessage are transient payloads: built, delivered, dropped.
// CreatedAt is server time in epoch milliseconds, never client-supplied.

type Message struct {
	Username  string `json:"username"`
	Text      string `json:"message"`
	CreatedAt int64  `json:"createdAt"`
}

type LocationMessage struct {
	Username    string `json:"username"`
	LocationURL string `json:"locationUrl"`
	CreatedAt   int64  `json:"createdAt"`
}

func NewMessage(text, username string) Message {
	return Message{
		Username:  username,
		Text:      text,
		CreatedAt: time.Now().UnixMilli(),
	}
}

func NewLocationMessage(url, username string) LocationMessage {
	return LocationMessage{
		Username:    username,
		LocationURL: url,
		CreatedAt:   time.Now().UnixMilli(),
	}
}
