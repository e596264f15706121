// internal/app/features/chat/handler.go
package chat

import (
	"context"
	"net/http"
	"slices"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/auth"
	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cmsdesk/internal/app/system/httpjson"
	"github.com/dalemusser/cmsdesk/internal/app/system/normalize"
	"github.com/dalemusser/cmsdesk/internal/app/system/timeouts"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultHistoryLimit caps a history request when none is configured.
const DefaultHistoryLimit = 100

// Handler serves chat rooms and message history. Live delivery goes
// through the realtime relay; this is what a client loads on open.
type Handler struct {
	GroupChats   store.GroupChats
	Messages     store.Messages
	Users        store.Users
	HistoryLimit int
	Log          *zap.Logger
}

func NewHandler(groupChats store.GroupChats, messages store.Messages, users store.Users, historyLimit int, logger *zap.Logger) *Handler {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Handler{
		GroupChats:   groupChats,
		Messages:     messages,
		Users:        users,
		HistoryLimit: historyLimit,
		Log:          logger,
	}
}

type groupChatsResponse struct {
	GroupChats []models.GroupChat `json:"groupChats"`
}

type groupChatResponse struct {
	GroupChat models.GroupChat `json:"groupChat"`
}

type createGroupRequest struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participantIds"`
}

type messagesResponse struct {
	Messages []models.MessageView `json:"messages"`
}

// ListGroupChats handles GET /group-chats.
func (h *Handler) ListGroupChats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list group chats")
	defer cancel()

	list, err := h.GroupChats.List(ctx)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch group chats")
		return
	}
	httpjson.Write(w, http.StatusOK, groupChatsResponse{GroupChats: list})
}

// CreateGroupChat handles POST /group-chats. The creator is always a
// participant; every other participant must exist.
func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	var req createGroupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create group chat")
		return
	}
	name := normalize.Name(htmlsanitize.Text(req.Name))
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "Name is required.")
		return
	}

	ids := make([]string, 0, len(req.ParticipantIDs)+1)
	if su != nil {
		ids = append(ids, su.ID)
	}
	for _, id := range req.ParticipantIDs {
		if p := normalize.OptionalID(&id); p != nil && !slices.Contains(ids, *p) {
			ids = append(ids, *p)
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create group chat")
	defer cancel()

	found, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create group chat")
		return
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			httpjson.Error(w, http.StatusBadRequest, "Unknown participant "+id)
			return
		}
	}

	g, err := h.GroupChats.Create(ctx, models.GroupChat{Name: name, ParticipantIDs: ids})
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to create group chat")
		return
	}
	h.Log.Info("group chat created", zap.String("group_chat_id", g.ID), zap.Int("participants", len(ids)))
	httpjson.Write(w, http.StatusCreated, groupChatResponse{GroupChat: g})
}

// ListMessages handles GET /messages with either groupChatId, or peerId
// (and optionally userId, which defaults to the caller). Results are the
// latest HistoryLimit messages, oldest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	groupID := normalize.QueryParam(q.Get("groupChatId"))
	peerID := normalize.QueryParam(q.Get("peerId"))
	userID := normalize.QueryParam(q.Get("userId"))
	if userID == "" {
		userID = su.ID
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "message history")
	defer cancel()

	var (
		msgs []models.Message
		err  error
	)
	switch {
	case groupID != "" && peerID != "":
		httpjson.Error(w, http.StatusBadRequest, "Use groupChatId or peerId, not both.")
		return
	case groupID != "":
		g, gerr := h.GroupChats.GetByID(ctx, groupID)
		if gerr != nil {
			httpjson.Fail(w, h.Log, gerr, "Failed to fetch messages")
			return
		}
		if len(g.ParticipantIDs) > 0 && !g.HasParticipant(su.ID) && !su.IsAdmin() {
			httpjson.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		msgs, err = h.Messages.ListGroup(ctx, groupID, h.HistoryLimit)
	case peerID != "":
		if userID != su.ID && !su.IsAdmin() {
			httpjson.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		msgs, err = h.Messages.ListDirect(ctx, userID, peerID, h.HistoryLimit)
	default:
		httpjson.Error(w, http.StatusBadRequest, "groupChatId or peerId is required.")
		return
	}
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch messages")
		return
	}

	views, err := h.withSenderNames(ctx, msgs)
	if err != nil {
		httpjson.Fail(w, h.Log, err, "Failed to fetch messages")
		return
	}
	httpjson.Write(w, http.StatusOK, messagesResponse{Messages: views})
}

// withSenderNames attaches display names; a deleted sender shows as
// "Unknown".
func (h *Handler) withSenderNames(ctx context.Context, msgs []models.Message) ([]models.MessageView, error) {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if !slices.Contains(ids, m.SenderID) {
			ids = append(ids, m.SenderID)
		}
	}
	users := map[string]models.User{}
	if len(ids) > 0 {
		var err error
		if users, err = h.Users.GetMany(ctx, ids); err != nil {
			return nil, err
		}
	}
	out := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		name := "Unknown"
		if u, ok := users[m.SenderID]; ok {
			name = u.Name
		}
		out = append(out, models.MessageView{Message: m, SenderName: name})
	}
	return out, nil
}

