package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"schoolconnect/internal/models"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/scope"
)

type AccountRepositoryMock struct {
	mock.Mock
}

func (m *AccountRepositoryMock) CreateAccount(ctx context.Context, username, password, role string) (models.Account, error) {
	args := m.Called(ctx, username, password, role)
	var account models.Account
	if val := args.Get(0); val != nil {
		account = val.(models.Account)
	}
	return account, args.Error(1)
}

func (m *AccountRepositoryMock) FindByCredentials(ctx context.Context, username, password string) (models.Account, error) {
	args := m.Called(ctx, username, password)
	var account models.Account
	if val := args.Get(0); val != nil {
		account = val.(models.Account)
	}
	return account, args.Error(1)
}

func (m *AccountRepositoryMock) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	args := m.Called(ctx, username)
	var account models.Account
	if val := args.Get(0); val != nil {
		account = val.(models.Account)
	}
	return account, args.Error(1)
}

func (m *AccountRepositoryMock) ListAccounts(ctx context.Context) ([]models.Account, error) {
	args := m.Called(ctx)
	var accounts []models.Account
	if val := args.Get(0); val != nil {
		accounts = val.([]models.Account)
	}
	return accounts, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, creator, name string, members []string) (models.Group, error) {
	args := m.Called(ctx, creator, name, members)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, username string) ([]models.Group, error) {
	args := m.Called(ctx, username)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID int) ([]string, error) {
	args := m.Called(ctx, groupID)
	var handles []string
	if val := args.Get(0); val != nil {
		handles = val.([]string)
	}
	return handles, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, username string) (bool, error) {
	args := m.Called(ctx, groupID, username)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg repositories.NewMessage) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, convo scope.Context, viewer string) ([]models.Message, error) {
	args := m.Called(ctx, convo, viewer)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListVisibleSince(ctx context.Context, viewer string, groupIDs []int, afterID int) ([]models.Message, error) {
	args := m.Called(ctx, viewer, groupIDs, afterID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) PatchMessage(ctx context.Context, messageID int, patch repositories.MessagePatch) (models.Message, error) {
	args := m.Called(ctx, messageID, patch)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

type SessionStoreMock struct {
	mock.Mock
}

func (m *SessionStoreMock) Create(ctx context.Context, username string) (models.Session, error) {
	args := m.Called(ctx, username)
	var sess models.Session
	if val := args.Get(0); val != nil {
		sess = val.(models.Session)
	}
	return sess, args.Error(1)
}

func (m *SessionStoreMock) Resolve(ctx context.Context, token string) (models.Account, error) {
	args := m.Called(ctx, token)
	var account models.Account
	if val := args.Get(0); val != nil {
		account = val.(models.Account)
	}
	return account, args.Error(1)
}

func (m *SessionStoreMock) Destroy(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
