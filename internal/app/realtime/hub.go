// Package realtime relays chat messages between connected clients.
//
// A Hub tracks connections and the rooms they joined. A room is either a
// group chat ID or a user ID (a user's own room receives their direct
// messages). Sends are persisted before they are broadcast, and within a
// room delivery order equals persistence order. Delivery is at-most-once:
// each client has a bounded outbound queue and events that do not fit are
// dropped.
package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cmsdesk/internal/app/system/ratelimit"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxContentLength caps a chat message, in characters.
const MaxContentLength = 4000

// broadcastKey orders sends that target every connection.
const broadcastKey = "*"

// User-facing error texts.
const (
	msgSendFailed   = "Failed to send message"
	msgRateLimited  = "You are sending messages too quickly"
	msgSenderAbsent = "Sender not found"
)

// Config tunes a Hub. Zero values select the defaults.
type Config struct {
	SendBuffer int           // outbound queue per client; default 64
	RateLimit  int           // sends per sender per window; 0 disables
	RateWindow time.Duration // default 10s
}

// Hub is the relay. Build one per process with NewHub and share it.
type Hub struct {
	messages   store.Messages
	users      store.Users
	groupChats store.GroupChats
	log        *zap.Logger

	sendBuffer int
	limiter    *ratelimit.Limiter
	order      *keyedLocks

	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

// NewHub constructs a relay over the given stores. groupChats may be nil,
// in which case group chat rooms are open to every connection.
func NewHub(messages store.Messages, users store.Users, groupChats store.GroupChats, cfg Config, logger *zap.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = 10 * time.Second
	}
	return &Hub{
		messages:   messages,
		users:      users,
		groupChats: groupChats,
		log:        logger,
		sendBuffer: cfg.SendBuffer,
		limiter:    ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		order:      newKeyedLocks(),
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
	}
}

// Close disconnects every client and stops background work. Transports
// see Done and close their sockets.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.Disconnect(c)
	}
	h.limiter.Stop()
}

// Client is one connection. UserID is the signed-in user the connection
// was opened by, or "" for an anonymous connection.
type Client struct {
	ID     string
	UserID string

	hub   *Hub
	out   chan []byte
	done  chan struct{}
	once  sync.Once
	rooms map[string]struct{} // guarded by hub.mu
}

// Outbound yields encoded frames for the transport to write.
func (c *Client) Outbound() <-chan []byte { return c.out }

// Done is closed when the client disconnects.
func (c *Client) Done() <-chan struct{} { return c.done }

// enqueue never blocks; it reports whether the frame was queued.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- frame:
		return true
	default:
		return false
	}
}

// Connect registers a new connection. It belongs to no room yet.
func (h *Hub) Connect(userID string) *Client {
	c := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		hub:    h,
		out:    make(chan []byte, h.sendBuffer),
		done:   make(chan struct{}),
		rooms:  make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	h.log.Debug("relay client connected", zap.String("client_id", c.ID), zap.String("user_id", userID))
	return c
}

// JoinRoom adds c to room. Joining twice is a no-op. A signed-in
// connection may only join rooms whose history it could read: its own
// user room, any user room when it is an admin, and group chats it takes
// part in.
func (h *Hub) JoinRoom(ctx context.Context, c *Client, room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return apperr.Validation("room id is required")
	}
	if err := h.authorizeJoin(ctx, c, room); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return apperr.NotFound("connection closed")
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
	return nil
}

var errJoinForbidden = apperr.Forbidden("You cannot join this room")

// authorizeJoin mirrors the message history rules. Anonymous connections
// carry no identity and are not checked; rooms that are neither a user nor
// a group chat are open.
func (h *Hub) authorizeJoin(ctx context.Context, c *Client, room string) error {
	if c.UserID == "" || room == c.UserID {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	me, err := h.users.GetByID(ctx, c.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return errJoinForbidden
		}
		return err
	}
	if me.Role == models.RoleAdmin {
		return nil
	}

	_, err = h.users.GetByID(ctx, room)
	switch {
	case err == nil:
		return errJoinForbidden
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}

	if h.groupChats == nil {
		return nil
	}
	g, err := h.groupChats.GetByID(ctx, room)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case len(g.ParticipantIDs) > 0 && !g.HasParticipant(c.UserID):
		return errJoinForbidden
	}
	return nil
}

// LeaveRoom removes c from room. Leaving a room c is not in is a no-op.
func (h *Hub) LeaveRoom(c *Client, room string) {
	room = strings.TrimSpace(room)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Disconnect removes c and all of its memberships. Safe to call twice.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	h.log.Debug("relay client disconnected", zap.String("client_id", c.ID))
}

// Connections reports how many clients are connected.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize reports how many clients are in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Rooms returns the rooms c is in.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	return out
}

// SendMessage validates, persists and fans out one chat message from c.
// Any failure is reported to c as exactly one error event and returned;
// nothing is broadcast unless the message was stored.
func (h *Hub) SendMessage(ctx context.Context, c *Client, p SendPayload) (models.MessageView, error) {
	view, err := h.send(ctx, c, p)
	if err != nil {
		msg := apperr.Message(err, msgSendFailed)
		if apperr.Status(err) >= 500 {
			h.log.Error("relay send failed",
				zap.String("client_id", c.ID),
				zap.String("sender_id", p.SenderID),
				zap.Error(err))
		}
		h.Reject(c, msg)
		return models.MessageView{}, err
	}
	return view, nil
}

// Reject sends an error event to c.
func (h *Hub) Reject(c *Client, msg string) {
	if !c.enqueue(errorFrame(msg)) {
		h.log.Warn("relay error event dropped", zap.String("client_id", c.ID))
	}
}

var errRateLimited = apperr.Validation(msgRateLimited)

func (h *Hub) send(ctx context.Context, c *Client, p SendPayload) (models.MessageView, error) {
	msg, err := h.validate(c, p)
	if err != nil {
		return models.MessageView{}, err
	}
	if !h.limiter.Allow(msg.SenderID) {
		return models.MessageView{}, errRateLimited
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	sender, err := h.users.GetByID(ctx, msg.SenderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.MessageView{}, apperr.NotFound(msgSenderAbsent)
		}
		return models.MessageView{}, err
	}

	keys := orderKeys(msg)
	unlock := h.order.Lock(keys...)
	defer unlock()

	stored, err := h.messages.Create(ctx, msg)
	if err != nil {
		return models.MessageView{}, err
	}
	view := models.MessageView{Message: stored, SenderName: sender.Name}
	frame, err := newMessageFrame(view)
	if err != nil {
		return models.MessageView{}, err
	}
	h.fanOut(msg, keys, frame)
	return view, nil
}

func (h *Hub) validate(c *Client, p SendPayload) (models.Message, error) {
	content := htmlsanitize.Text(p.Content)
	senderID := strings.TrimSpace(p.SenderID)
	group := trimmedPtr(p.GroupChatID)
	receiver := trimmedPtr(p.ReceiverID)

	switch {
	case content == "":
		return models.Message{}, apperr.Validation("content is required")
	case utf8.RuneCountInString(content) > MaxContentLength:
		return models.Message{}, apperr.Validation("content is too long")
	case senderID == "":
		return models.Message{}, apperr.Validation("senderId is required")
	case group != nil && receiver != nil:
		return models.Message{}, apperr.Validation("a message targets a group chat or a receiver, not both")
	case c.UserID != "" && senderID != c.UserID:
		return models.Message{}, apperr.Validation("senderId does not match the signed-in user")
	}
	return models.Message{
		Content:     content,
		SenderID:    senderID,
		GroupChatID: group,
		ReceiverID:  receiver,
	}, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// orderKeys are the rooms whose delivery order a message participates in.
func orderKeys(m models.Message) []string {
	switch {
	case m.GroupChatID != nil:
		return []string{*m.GroupChatID}
	case m.ReceiverID != nil:
		return []string{*m.ReceiverID, m.SenderID}
	default:
		return []string{broadcastKey}
	}
}

// fanOut delivers frame to the members of rooms, each connection once.
// The broadcast key targets every connection.
func (h *Hub) fanOut(m models.Message, rooms []string, frame []byte) {
	h.mu.RLock()
	var targets []*Client
	if len(rooms) == 1 && rooms[0] == broadcastKey {
		targets = make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		seen := make(map[string]struct{})
		for _, r := range rooms {
			for id, c := range h.rooms[r] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	dropped := 0
	for _, c := range targets {
		if !c.enqueue(frame) {
			dropped++
		}
	}
	if dropped > 0 {
		h.log.Warn("relay dropped events for slow or closed clients",
			zap.String("message_id", m.ID),
			zap.Int("dropped", dropped),
			zap.Int("targets", len(targets)))
	}
}
