package model

import "time"

// Chat is a direct conversation between exactly two users. The realtime
// gateway only needs the participant pair to authorize joins and sends;
// listing and pagination live with the chat collaborator, not here.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – first participant.
//  OtherUserID   – second participant.
//  LastMessageAt – bumped on every message for inbox ordering.
type Chat struct {
	ID            uint64     // chats.id
	UserID        uint64     // chats.user_id
	OtherUserID   uint64     // chats.other_user_id
	LastMessageAt *time.Time // chats.last_message_at (nullable)
}

// Participant reports whether the given user is one of the two
// members of the chat.
func (c Chat) Participant(userID uint64) bool {
	return c.UserID == userID || c.OtherUserID == userID
}

// Recipient returns the other participant relative to the sender.
func (c Chat) Recipient(senderID uint64) uint64 {
	if c.UserID == senderID {
		return c.OtherUserID
	}
	return c.UserID
}

// Message is one chat message row. The gateway persists messages via
// the chat store and pushes them to connected participants.
//
// Fields:
//  ID        – primary key identifier.
//  ChatID    – conversation the message belongs to.
//  SenderID  – author of the message.
//  Content   – message body.
//  CreatedAt – timestamp of creation.
type Message struct {
	ID        uint64    // messages.id
	ChatID    uint64    // messages.chat_id
	SenderID  uint64    // messages.sender_id
	Content   string    // messages.content
	CreatedAt time.Time // messages.created_at
}
