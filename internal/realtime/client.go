package realtime

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4096
)

// Client is one authenticated websocket connection. All writes to the
// socket go through the send channel so the write pump is the only
// goroutine touching the connection for output.
type Client struct {
	gw     *Gateway
	conn   *websocket.Conn
	userID uint64
	send   chan []byte
}

// frame is the envelope for every message in either direction.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type chatRef struct {
	ChatID uint64 `json:"chatId"`
}

type sendMessageReq struct {
	ChatID  uint64 `json:"chatId"`
	Content string `json:"content"`
}

type typingReq struct {
	ChatID   uint64 `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

func marshalFrame(event string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	out, err := json.Marshal(frame{Event: event, Data: raw})
	if err != nil {
		return nil
	}
	return out
}

// sendEvent queues an event to this client only.
func (c *Client) sendEvent(event string, data interface{}) {
	if out := marshalFrame(event, data); out != nil {
		select {
		case c.send <- out:
		default:
		}
	}
}

func (c *Client) sendError(msg string) {
	c.sendEvent("error", map[string]string{"message": msg})
}

func userRoom(userID uint64) string { return "user:" + strconv.FormatUint(userID, 10) }
func chatRoom(chatID uint64) string { return "chat:" + strconv.FormatUint(chatID, 10) }

// readPump consumes inbound frames until the connection drops, then
// detaches the client from the hub.
func (c *Client) readPump() {
	defer func() {
		c.gw.Hub.Remove(c)
		close(c.send)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error (user %d): %v", c.userID, err)
			}
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.sendError("invalid message format")
			continue
		}
		c.dispatch(f)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(f frame) {
	switch f.Event {
	case "join_chat":
		var req chatRef
		if err := json.Unmarshal(f.Data, &req); err != nil || req.ChatID == 0 {
			c.sendError("chatId is required")
			return
		}
		c.joinChat(req.ChatID)
	case "leave_chat":
		var req chatRef
		if err := json.Unmarshal(f.Data, &req); err != nil || req.ChatID == 0 {
			c.sendError("chatId is required")
			return
		}
		c.gw.Hub.Leave(chatRoom(req.ChatID), c)
	case "send_message":
		var req sendMessageReq
		if err := json.Unmarshal(f.Data, &req); err != nil || req.ChatID == 0 || req.Content == "" {
			c.sendError("chatId and content are required")
			return
		}
		c.sendMessage(req)
	case "typing":
		var req typingReq
		if err := json.Unmarshal(f.Data, &req); err != nil || req.ChatID == 0 {
			c.sendError("chatId is required")
			return
		}
		c.typing(req)
	default:
		c.sendError("unknown event: " + f.Event)
	}
}

// joinChat subscribes the client to a chat room after verifying it is
// one of the two participants.
func (c *Client) joinChat(chatID uint64) {
	chat, err := c.authorizeChat(chatID)
	if err != nil {
		return
	}
	c.gw.Hub.Join(chatRoom(chat.ID), c)
	c.sendEvent("chat_joined", chatRef{ChatID: chat.ID})
}

// sendMessage persists the message, fans it out to the chat room and
// notifies the recipient's personal room so an unopened conversation
// still surfaces the message.
func (c *Client) sendMessage(req sendMessageReq) {
	chat, err := c.authorizeChat(req.ChatID)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	msg, err := c.gw.Chats.SaveMessage(ctx, chat.ID, c.userID, req.Content)
	if err != nil {
		log.Printf("save message failed (chat %d): %v", chat.ID, err)
		c.sendError("message could not be delivered")
		return
	}

	payload := map[string]interface{}{
		"id":        msg.ID,
		"chatId":    msg.ChatID,
		"senderId":  msg.SenderID,
		"content":   msg.Content,
		"createdAt": msg.CreatedAt,
	}
	if out := marshalFrame("new_message", payload); out != nil {
		c.gw.Hub.Broadcast(chatRoom(chat.ID), out, nil)
	}
	if out := marshalFrame("new_message_notification", payload); out != nil {
		c.gw.Hub.Broadcast(userRoom(chat.Recipient(c.userID)), out, c)
	}
}

// typing relays a transient typing indicator to the other members of
// the chat room. Nothing is persisted.
func (c *Client) typing(req typingReq) {
	chat, err := c.authorizeChat(req.ChatID)
	if err != nil {
		return
	}
	out := marshalFrame("typing", map[string]interface{}{
		"chatId":   chat.ID,
		"userId":   c.userID,
		"isTyping": req.IsTyping,
	})
	if out != nil {
		c.gw.Hub.Broadcast(chatRoom(chat.ID), out, c)
	}
}

// authorizeChat loads the chat and checks membership, emitting a scoped
// error event on failure.
func (c *Client) authorizeChat(chatID uint64) (model.Chat, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	chat, err := c.gw.Chats.GetChat(ctx, chatID)
	if err != nil {
		c.sendError("chat not found")
		return model.Chat{}, err
	}
	if !chat.Participant(c.userID) {
		c.sendError("not a participant of this chat")
		return model.Chat{}, errNotParticipant
	}
	return chat, nil
}
