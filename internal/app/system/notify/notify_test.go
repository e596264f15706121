package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/dalemusser/cmsdesk/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	name   string
	err    error
	events []Event
}

func (p *recordingProvider) Name() string { return p.name }
func (p *recordingProvider) Send(_ context.Context, e Event) error {
	p.events = append(p.events, e)
	return p.err
}

type fakeChannel struct {
	channel string
	content string
}

func (f *fakeChannel) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel, f.content = channelID, content
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestEventText(t *testing.T) {
	task := models.Task{ID: "t1", LSA: "KA", TSP: "Airtel", Status: models.StatusResolved, ProblemDescription: "LIS failure"}

	assert.Equal(t, "New task [KA/Airtel] (resolved): LIS failure", Event{Kind: TaskCreated, Task: task}.Text())
	assert.Equal(t, "Task t1 status pending → resolved: LIS failure",
		Event{Kind: TaskStatusChanged, Task: task, PrevStatus: models.StatusPending}.Text())
	assert.Equal(t, "Task t1 deleted", Event{Kind: TaskDeleted, Task: task}.Text())
}

func TestGroup_SendsToAllAndJoinsErrors(t *testing.T) {
	ok := &recordingProvider{name: "ok"}
	bad := &recordingProvider{name: "bad", err: errors.New("boom")}
	g := NewGroup(ok, nil, bad)
	assert.Equal(t, 2, g.Len())

	err := g.Send(context.Background(), Event{Kind: TaskCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")
	assert.Len(t, ok.events, 1)
	assert.Len(t, bad.events, 1)
}

func TestDiscord_Send(t *testing.T) {
	fc := &fakeChannel{}
	d := &Discord{session: fc, channelID: "chan-1"}

	require.NoError(t, d.Send(context.Background(), Event{Kind: TaskDeleted, Task: models.Task{ID: "t9"}}))
	assert.Equal(t, "chan-1", fc.channel)
	assert.Equal(t, "Task t9 deleted", fc.content)
}

func TestDiscord_TruncatesLongMessages(t *testing.T) {
	fc := &fakeChannel{}
	d := &Discord{session: fc, channelID: "c"}
	long := strings.Repeat("x", 3000)

	require.NoError(t, d.Send(context.Background(), Event{Kind: TaskCreated, Task: models.Task{ProblemDescription: long}}))
	assert.Equal(t, 2000, len([]rune(fc.content)))
}

func TestNewDiscord_RequiresConfig(t *testing.T) {
	_, err := NewDiscord("", "chan")
	assert.Error(t, err)

	d, err := NewDiscord("token", "chan")
	require.NoError(t, err)
	assert.Equal(t, "discord", d.Name())
}
