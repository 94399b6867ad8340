package watch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"schoolconnect/internal/mocks"
	"schoolconnect/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestPollFirstCallEstablishesBaseline(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{{ID: 2, Name: "maths"}}, nil).Once()
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{2}, 0).
		Return([]models.Message{{ID: 4, Sender: "bob", Status: models.StatusSent}}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, notifs)

	messages.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestPollReturnsOnlyItemsPastTheCursor(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{}, nil)
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 0).
		Return([]models.Message{{ID: 4, Sender: "bob", Status: models.StatusSent}}, nil).Once()

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 4).
		Return([]models.Message{
			{ID: 5, Sender: "bob", Body: "hi alice", Status: models.StatusSent, Recipient: strPtr("alice")},
		}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationPrivate, notifs[0].Kind)
	assert.Equal(t, "bob", notifs[0].Sender)
	assert.Equal(t, "hi alice", notifs[0].Preview)
	assert.Equal(t, 5, notifs[0].MessageID)

	// Nothing new: the cursor advanced to 5.
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 5).
		Return([]models.Message{}, nil).Once()

	notifs, err = tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, notifs)

	messages.AssertExpectations(t)
}

func TestPollSkipsOwnAndNonSentMessages(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{}, nil)
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 0).
		Return([]models.Message{}, nil).Once()

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 0).
		Return([]models.Message{
			{ID: 1, Sender: "alice", Status: models.StatusSent},
			{ID: 2, Sender: "bob", Status: models.StatusDraft},
			{ID: 3, Sender: "bob", Status: models.StatusDeletedEveryone},
			{ID: 4, Sender: "bob", Body: "for everyone", Status: models.StatusSent},
		}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationGlobal, notifs[0].Kind)
	assert.Equal(t, 4, notifs[0].MessageID)
}

func TestPollClassifiesGroupMessages(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{{ID: 9, Name: "physics", CreatedBy: "alice"}}, nil)
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{9}, 0).
		Return([]models.Message{}, nil).Once()

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	messages.On("ListVisibleSince", mock.Anything, "alice", []int{9}, 0).
		Return([]models.Message{
			{ID: 1, Sender: "bob", Body: "lab tomorrow", Status: models.StatusSent, GroupID: intPtr(9)},
		}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationGroup, notifs[0].Kind)
	assert.Equal(t, 9, notifs[0].GroupID)
	assert.Equal(t, "physics", notifs[0].GroupName)
}

func TestPollEmitsGroupInvites(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{{ID: 1, Name: "maths", CreatedBy: "alice"}}, nil).Once()
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{1}, 0).Return([]models.Message{}, nil).Once()

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	// Someone added alice to a new group since the last poll.
	groups.On("ListGroupsForUser", mock.Anything, "alice").
		Return([]models.Group{{ID: 3, Name: "chemistry", CreatedBy: "bob"}, {ID: 1, Name: "maths", CreatedBy: "alice"}}, nil).Once()
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{3, 1}, 0).Return([]models.Message{}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationGroupInvite, notifs[0].Kind)
	assert.Equal(t, "bob", notifs[0].Sender)
	assert.Equal(t, "chemistry", notifs[0].GroupName)
}

func TestPollNoInviteForOwnGroup(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{}, nil).Once()
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 0).Return([]models.Message{}, nil).Once()

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	groups.On("ListGroupsForUser", mock.Anything, "alice").
		Return([]models.Group{{ID: 2, Name: "mine", CreatedBy: "alice"}}, nil).Once()
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{2}, 0).Return([]models.Message{}, nil).Once()

	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestForgetResetsTheBaseline(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	tracker := NewTracker(messages, groups)

	groups.On("ListGroupsForUser", mock.Anything, "alice").Return([]models.Group{}, nil)
	messages.On("ListVisibleSince", mock.Anything, "alice", []int{}, 0).Return([]models.Message{}, nil)

	_, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)

	tracker.Forget("alice")

	// After Forget the next poll primes again and stays silent.
	notifs, err := tracker.Poll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestPreviewTruncatesAtFiftyRunes(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, Preview(short))

	long := strings.Repeat("a", 60)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", got)

	exact := strings.Repeat("b", 50)
	assert.Equal(t, exact, Preview(exact))
}
