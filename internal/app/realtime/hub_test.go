package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/cmsdesk/internal/app/store"
	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/dalemusser/cmsdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type relayEnv struct {
	hub   *Hub
	b     store.Backend
	alice models.User
	bob   models.User
	carol models.User
}

func newRelayEnv(t *testing.T, cfg Config) *relayEnv {
	t.Helper()
	b := testutil.SetupSQLBackend(t)
	fx := testutil.NewFixtures(t, b)
	ctx := context.Background()
	env := &relayEnv{
		b:     b,
		alice: fx.CreateEmployee(ctx, "Alice", "alice@example.com"),
		bob:   fx.CreateEmployee(ctx, "Bob", "bob@example.com"),
		carol: fx.CreateAdmin(ctx, "Carol", "carol@example.com"),
	}
	env.hub = NewHub(b.Messages, b.Users, b.GroupChats, cfg, zap.NewNop())
	t.Cleanup(env.hub.Close)
	return env
}

func strPtr(s string) *string { return &s }

// next reads one frame from c or fails after a short wait.
func next(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case b := <-c.Outbound():
		var f Frame
		require.NoError(t, json.Unmarshal(b, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: no frame received", c.ID)
		return Frame{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case b := <-c.Outbound():
		t.Fatalf("client %s: unexpected frame %s", c.ID, b)
	default:
	}
}

func decodeView(t *testing.T, f Frame) models.MessageView {
	t.Helper()
	require.Equal(t, EventNewMessage, f.Event)
	var v models.MessageView
	require.NoError(t, json.Unmarshal(f.Data, &v))
	return v
}

func decodeError(t *testing.T, f Frame) string {
	t.Helper()
	require.Equal(t, EventError, f.Event)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(f.Data, &p))
	return p.Message
}

func TestGroupMessageReachesExactlyRoomMembers(t *testing.T) {
	env := newRelayEnv(t, Config{})
	ctx := context.Background()

	in1 := env.hub.Connect("")
	in2 := env.hub.Connect("")
	out := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), in1, "g1"))
	require.NoError(t, env.hub.JoinRoom(context.Background(), in2, "g1"))
	require.NoError(t, env.hub.JoinRoom(context.Background(), out, "g2"))

	view, err := env.hub.SendMessage(ctx, in1, SendPayload{
		Content:     "hello team",
		SenderID:    env.alice.ID,
		GroupChatID: strPtr("g1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.SenderName)
	assert.NotEmpty(t, view.ID)

	for _, c := range []*Client{in1, in2} {
		got := decodeView(t, next(t, c))
		assert.Equal(t, view.ID, got.ID)
		assert.Equal(t, "hello team", got.Content)
		assert.Equal(t, "Alice", got.SenderName)
		require.NotNil(t, got.GroupChatID)
		assert.Equal(t, "g1", *got.GroupChatID)
	}
	assertSilent(t, out)

	hist, err := env.b.Messages.ListGroup(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, view.ID, hist[0].ID)
}

func TestDirectMessageReachesBothPartiesOnce(t *testing.T) {
	env := newRelayEnv(t, Config{})
	ctx := context.Background()

	// One connection in both rooms must receive a single copy.
	both := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), both, env.alice.ID))
	require.NoError(t, env.hub.JoinRoom(context.Background(), both, env.bob.ID))
	sender := env.hub.Connect(env.alice.ID)
	require.NoError(t, env.hub.JoinRoom(context.Background(), sender, env.alice.ID))
	receiver := env.hub.Connect(env.bob.ID)
	require.NoError(t, env.hub.JoinRoom(context.Background(), receiver, env.bob.ID))
	bystander := env.hub.Connect(env.carol.ID)
	require.NoError(t, env.hub.JoinRoom(context.Background(), bystander, env.carol.ID))

	_, err := env.hub.SendMessage(ctx, sender, SendPayload{
		Content:    "ping",
		SenderID:   env.alice.ID,
		ReceiverID: strPtr(env.bob.ID),
	})
	require.NoError(t, err)

	for _, c := range []*Client{both, sender, receiver} {
		got := decodeView(t, next(t, c))
		assert.Equal(t, "ping", got.Content)
		assertSilent(t, c)
	}
	assertSilent(t, bystander)
}

func TestUntargetedMessageReachesEveryConnection(t *testing.T) {
	env := newRelayEnv(t, Config{})
	a := env.hub.Connect("")
	b := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), b, "somewhere"))

	_, err := env.hub.SendMessage(context.Background(), a, SendPayload{Content: "all hands", SenderID: env.carol.ID})
	require.NoError(t, err)

	assert.Equal(t, "all hands", decodeView(t, next(t, a)).Content)
	assert.Equal(t, "all hands", decodeView(t, next(t, b)).Content)
}

func TestSendValidation(t *testing.T) {
	env := newRelayEnv(t, Config{})

	tests := []struct {
		name   string
		userID string
		p      SendPayload
		want   string
	}{
		{"empty content", "", SendPayload{Content: "   ", SenderID: env.alice.ID}, "content is required"},
		{"markup only", "", SendPayload{Content: "<b></b>", SenderID: env.alice.ID}, "content is required"},
		{"encoded markup only", "", SendPayload{Content: "&lt;script&gt;alert(1)&lt;/script&gt;", SenderID: env.alice.ID}, "content is required"},
		{"no sender", "", SendPayload{Content: "hi"}, "senderId is required"},
		{"both targets", "", SendPayload{Content: "hi", SenderID: env.alice.ID, GroupChatID: strPtr("g"), ReceiverID: strPtr(env.bob.ID)},
			"a message targets a group chat or a receiver, not both"},
		{"impersonation", env.bob.ID, SendPayload{Content: "hi", SenderID: env.alice.ID}, "senderId does not match the signed-in user"},
		{"unknown sender", "", SendPayload{Content: "hi", SenderID: "nobody"}, msgSenderAbsent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := env.hub.Connect(tt.userID)
			defer env.hub.Disconnect(c)
			_, err := env.hub.SendMessage(context.Background(), c, tt.p)
			require.Error(t, err)
			assert.Equal(t, tt.want, decodeError(t, next(t, c)))
			assertSilent(t, c)
		})
	}

	hist, err := env.b.Messages.ListDirect(context.Background(), env.alice.ID, env.bob.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestContentIsSanitized(t *testing.T) {
	env := newRelayEnv(t, Config{})
	c := env.hub.Connect("")
	view, err := env.hub.SendMessage(context.Background(), c, SendPayload{
		Content:  `<script>alert(1)</script>see <a href="x">this</a>`,
		SenderID: env.alice.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "see this", view.Content)
}

type failingMessages struct {
	store.Messages
	calls int
}

func (f *failingMessages) Create(context.Context, models.Message) (models.Message, error) {
	f.calls++
	return models.Message{}, errors.New("disk full")
}

func TestPersistFailureSendsOneErrorAndNoBroadcast(t *testing.T) {
	env := newRelayEnv(t, Config{})
	fm := &failingMessages{Messages: env.b.Messages}
	hub := NewHub(fm, env.b.Users, env.b.GroupChats, Config{}, zap.NewNop())
	defer hub.Close()

	sender := hub.Connect("")
	peer := hub.Connect("")
	require.NoError(t, hub.JoinRoom(context.Background(), sender, "g1"))
	require.NoError(t, hub.JoinRoom(context.Background(), peer, "g1"))

	_, err := hub.SendMessage(context.Background(), sender, SendPayload{
		Content: "lost", SenderID: env.alice.ID, GroupChatID: strPtr("g1"),
	})
	require.Error(t, err)
	assert.Equal(t, 1, fm.calls)

	assert.Equal(t, msgSendFailed, decodeError(t, next(t, sender)))
	assertSilent(t, sender)
	assertSilent(t, peer)
}

func TestRateLimitPerSender(t *testing.T) {
	env := newRelayEnv(t, Config{RateLimit: 2, RateWindow: time.Minute})
	c := env.hub.Connect("")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := env.hub.SendMessage(ctx, c, SendPayload{Content: fmt.Sprintf("m%d", i), SenderID: env.alice.ID})
		require.NoError(t, err)
		next(t, c)
	}
	_, err := env.hub.SendMessage(ctx, c, SendPayload{Content: "m2", SenderID: env.alice.ID})
	require.Error(t, err)
	assert.Equal(t, msgRateLimited, decodeError(t, next(t, c)))

	// A different sender has its own budget.
	_, err = env.hub.SendMessage(ctx, c, SendPayload{Content: "m3", SenderID: env.bob.ID})
	require.NoError(t, err)
}

func TestLeaveRoomAndDisconnect(t *testing.T) {
	env := newRelayEnv(t, Config{})
	ctx := context.Background()
	a := env.hub.Connect("")
	b := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), a, "g1"))
	require.NoError(t, env.hub.JoinRoom(context.Background(), a, "g1"))
	require.NoError(t, env.hub.JoinRoom(context.Background(), b, "g1"))
	assert.Equal(t, 2, env.hub.RoomSize("g1"))
	assert.Equal(t, 2, env.hub.Connections())

	env.hub.LeaveRoom(a, "g1")
	env.hub.LeaveRoom(a, "never-joined")
	assert.Equal(t, 1, env.hub.RoomSize("g1"))

	_, err := env.hub.SendMessage(ctx, b, SendPayload{Content: "still here?", SenderID: env.bob.ID, GroupChatID: strPtr("g1")})
	require.NoError(t, err)
	next(t, b)
	assertSilent(t, a)

	env.hub.Disconnect(b)
	env.hub.Disconnect(b)
	assert.Equal(t, 0, env.hub.RoomSize("g1"))
	assert.Equal(t, 1, env.hub.Connections())
	select {
	case <-b.Done():
	default:
		t.Fatal("Done not closed after Disconnect")
	}
	assert.Error(t, env.hub.JoinRoom(context.Background(), b, "g1"))
	assert.Error(t, env.hub.JoinRoom(context.Background(), a, "  "))
}

func TestJoinRoomAccess(t *testing.T) {
	env := newRelayEnv(t, Config{})
	ctx := context.Background()
	fx := testutil.NewFixtures(t, env.b)
	private := fx.CreateGroupChat(ctx, "Ops", env.bob.ID, env.carol.ID)
	open := fx.CreateGroupChat(ctx, "Lobby")

	alice := env.hub.Connect(env.alice.ID)
	admin := env.hub.Connect(env.carol.ID)
	anon := env.hub.Connect("")

	tests := []struct {
		name    string
		c       *Client
		room    string
		allowed bool
	}{
		{"own user room", alice, env.alice.ID, true},
		{"another user's room", alice, env.bob.ID, false},
		{"admin in any user room", admin, env.bob.ID, true},
		{"group chat without the user", alice, private.ID, false},
		{"group chat member", admin, private.ID, true},
		{"group chat open to all", alice, open.ID, true},
		{"ad hoc room", alice, "standup", true},
		{"anonymous connection", anon, env.bob.ID, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.hub.JoinRoom(ctx, tt.c, tt.room)
			if tt.allowed {
				require.NoError(t, err)
				assert.Contains(t, env.hub.Rooms(tt.c), tt.room)
				return
			}
			require.ErrorIs(t, err, apperr.ErrForbidden)
			assert.NotContains(t, env.hub.Rooms(tt.c), tt.room)
		})
	}
}

func TestDirectMessageSkipsRejectedJoiner(t *testing.T) {
	env := newRelayEnv(t, Config{})
	ctx := context.Background()

	receiver := env.hub.Connect(env.bob.ID)
	require.NoError(t, env.hub.JoinRoom(ctx, receiver, env.bob.ID))
	snoop := env.hub.Connect(env.alice.ID)
	require.NoError(t, env.hub.JoinRoom(ctx, snoop, env.alice.ID))
	require.ErrorIs(t, env.hub.JoinRoom(ctx, snoop, env.bob.ID), apperr.ErrForbidden)

	sender := env.hub.Connect(env.carol.ID)
	_, err := env.hub.SendMessage(ctx, sender, SendPayload{
		Content:    "private note for bob",
		SenderID:   env.carol.ID,
		ReceiverID: strPtr(env.bob.ID),
	})
	require.NoError(t, err)

	assert.Equal(t, "private note for bob", decodeView(t, next(t, receiver)).Content)
	assertSilent(t, snoop)
}

func TestFullQueueDropsInsteadOfBlocking(t *testing.T) {
	env := newRelayEnv(t, Config{SendBuffer: 1})
	ctx := context.Background()
	slow := env.hub.Connect("")
	fast := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), slow, "g1"))
	require.NoError(t, env.hub.JoinRoom(context.Background(), fast, "g1"))

	for i := 0; i < 3; i++ {
		_, err := env.hub.SendMessage(ctx, fast, SendPayload{Content: fmt.Sprintf("m%d", i), SenderID: env.alice.ID, GroupChatID: strPtr("g1")})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("m%d", i), decodeView(t, next(t, fast)).Content)
	}
	assert.Equal(t, "m0", decodeView(t, next(t, slow)).Content)
	assertSilent(t, slow)
}

func TestRoomDeliveryOrderMatchesPersistOrder(t *testing.T) {
	env := newRelayEnv(t, Config{SendBuffer: 256})
	ctx := context.Background()
	watcher := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), watcher, "g1"))

	const senders, each = 4, 10
	users := []models.User{env.alice, env.bob, env.carol, env.alice}
	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			c := env.hub.Connect("")
			for i := 0; i < each; i++ {
				_, err := env.hub.SendMessage(ctx, c, SendPayload{
					Content: fmt.Sprintf("s%d-%d", s, i), SenderID: users[s].ID, GroupChatID: strPtr("g1"),
				})
				assert.NoError(t, err)
			}
		}(s)
	}
	wg.Wait()

	var delivered []string
	for i := 0; i < senders*each; i++ {
		delivered = append(delivered, decodeView(t, next(t, watcher)).ID)
	}
	hist, err := env.b.Messages.ListGroup(ctx, "g1", senders*each)
	require.NoError(t, err)
	stored := make([]string, len(hist))
	for i, m := range hist {
		stored[i] = m.ID
	}
	assert.Equal(t, stored, delivered)
	assert.Equal(t, 0, env.hub.order.size())
}

func TestCloseDisconnectsEveryClient(t *testing.T) {
	env := newRelayEnv(t, Config{})
	a := env.hub.Connect(env.alice.ID)
	b := env.hub.Connect("")
	require.NoError(t, env.hub.JoinRoom(context.Background(), a, "g1"))

	env.hub.Close()

	for _, c := range []*Client{a, b} {
		select {
		case <-c.Done():
		default:
			t.Fatalf("client %s still connected", c.ID)
		}
	}
	assert.Equal(t, 0, env.hub.Connections())
	assert.Equal(t, 0, env.hub.RoomSize("g1"))
}
