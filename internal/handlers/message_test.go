package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"schoolconnect/internal/middleware"
	"schoolconnect/internal/mocks"
	"schoolconnect/internal/models"
	"schoolconnect/internal/repositories"
	"schoolconnect/internal/scope"
)

func setupMessageRouter(handler *MessageHandler, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UsernameKey, "alice")
		c.Set(middleware.RoleKey, role)
		c.Next()
	})
	r.GET("/api/messages", handler.ListMessages)
	r.POST("/api/messages", handler.PostMessage)
	r.PATCH("/api/messages/:id", handler.PatchMessage)
	return r
}

func TestListMessagesGlobalFiltersAndRedacts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewMessageHandler(messages, groups, new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	now := time.Now()
	messages.On("ListConversation", mock.Anything, scope.Global(), "alice").Return([]models.Message{
		{ID: 1, Sender: "principal", Body: "welcome", Status: models.StatusSent, CreatedAt: now},
		{ID: 2, Sender: "principal", Body: "secret draft", Status: models.StatusDraft, CreatedAt: now},
		{ID: 3, Sender: "bob", Body: "hidden", Status: models.StatusSent, DeletedFor: pq.StringArray{"alice"}, CreatedAt: now},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "welcome")
	assert.NotContains(t, rec.Body.String(), "secret draft")
	assert.NotContains(t, rec.Body.String(), "hidden")
	messages.AssertExpectations(t)
}

func TestListMessagesRedactsDeletedEveryone(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	messages.On("ListConversation", mock.Anything, scope.Private("bob"), "alice").Return([]models.Message{
		{ID: 5, Sender: "alice", Recipient: strPtr("bob"), Body: "regretted", Status: models.StatusDeletedEveryone, Starred: true},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?recipient=bob&selection=starred", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "regretted")
	assert.Contains(t, rec.Body.String(), models.RedactedText)
	messages.AssertExpectations(t)
}

func TestListMessagesGroupRequiresMembership(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewMessageHandler(messages, groups, new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	groups.On("GetGroup", mock.Anything, 7).Return(models.Group{ID: 7, Name: "chess"}, nil).Once()
	groups.On("IsMember", mock.Anything, 7, "alice").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?group_id=7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "ListConversation", mock.Anything, mock.Anything, mock.Anything)
	groups.AssertExpectations(t)
}

func TestListMessagesUnknownGroup(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewMessageHandler(messages, groups, new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	groups.On("GetGroup", mock.Anything, 42).Return(models.Group{}, repositories.ErrGroupNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages?group_id=42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	groups.AssertExpectations(t)
}

func TestListMessagesBadGroupID(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	req := httptest.NewRequest(http.MethodGet, "/api/messages?group_id=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageGlobalRejectsMembers(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hello everyone"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestPostMessageGlobalAllowsAdmins(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleAdmin)

	messages.On("CreateMessage", mock.Anything, repositories.NewMessage{
		Sender: "alice",
		Body:   "school closes early",
		Status: models.StatusSent,
	}).Return(models.Message{ID: 10, Sender: "alice", Body: "school closes early", Status: models.StatusSent}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"school closes early"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messages.AssertExpectations(t)
}

func TestPostMessagePrivate(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	accounts := new(mocks.AccountRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), accounts, nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	accounts.On("FindByUsername", mock.Anything, "bob").
		Return(models.Account{ID: 2, Username: "bob"}, nil).Once()
	messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(nm repositories.NewMessage) bool {
		return nm.Sender == "alice" && nm.Recipient != nil && *nm.Recipient == "bob" && nm.GroupID == nil
	})).Return(models.Message{ID: 11, Sender: "alice", Recipient: strPtr("bob"), Body: "hi", Status: models.StatusSent}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hi","recipient":"bob"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messages.AssertExpectations(t)
	accounts.AssertExpectations(t)
}

func TestPostMessageUnknownRecipient(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	accounts := new(mocks.AccountRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), accounts, nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	accounts.On("FindByUsername", mock.Anything, "nobody").
		Return(models.Account{}, repositories.ErrAccountNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hi","recipient":"nobody"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	accounts.AssertExpectations(t)
}

func TestPostMessageGroupRequiresMembership(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewMessageHandler(messages, groups, new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	groups.On("IsMember", mock.Anything, 3, "alice").Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"psst","group_id":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	groups.AssertExpectations(t)
}

func TestPostMessageRejectsDualAddressing(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hi","recipient":"bob","group_id":3}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostMessageRejectsUnknownStatus(t *testing.T) {
	handler := NewMessageHandler(new(mocks.MessageRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"text":"hi","recipient":"bob","status":"archived"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchMessageStar(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	starred := true
	messages.On("PatchMessage", mock.Anything, 12, repositories.MessagePatch{Starred: &starred}).
		Return(models.Message{ID: 12, Sender: "bob", Body: "keep this", Status: models.StatusSent, Starred: true}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/messages/12", bytes.NewBufferString(`{"starred":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"starred":true`)
	messages.AssertExpectations(t)
}

func TestPatchMessageSoftDelete(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	messages.On("PatchMessage", mock.Anything, 12, repositories.MessagePatch{DeletedForUser: "alice"}).
		Return(models.Message{ID: 12, Sender: "bob", Body: "gone for alice", Status: models.StatusSent, DeletedFor: pq.StringArray{"alice"}}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/messages/12", bytes.NewBufferString(`{"deleted_for_user":"alice"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messages.AssertExpectations(t)
}

func TestPatchMessageDeleteEveryoneRedactsResponse(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	deleted := models.StatusDeletedEveryone
	messages.On("PatchMessage", mock.Anything, 12, repositories.MessagePatch{Status: &deleted}).
		Return(models.Message{ID: 12, Sender: "alice", Body: "oops", Status: models.StatusDeletedEveryone}, nil).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/messages/12", bytes.NewBufferString(`{"status":"deleted_everyone"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "oops")
	assert.Contains(t, rec.Body.String(), models.RedactedText)
	messages.AssertExpectations(t)
}

func TestPatchMessageNotFound(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	messages.On("PatchMessage", mock.Anything, 99, mock.Anything).
		Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPatch, "/api/messages/99", bytes.NewBufferString(`{"starred":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messages.AssertExpectations(t)
}

func TestPatchMessageRejectsUnknownStatus(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(messages, new(mocks.GroupRepositoryMock), new(mocks.AccountRepositoryMock), nil, nil)
	router := setupMessageRouter(handler, models.RoleMember)

	req := httptest.NewRequest(http.MethodPatch, "/api/messages/12", bytes.NewBufferString(`{"status":"vanished"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "PatchMessage", mock.Anything, mock.Anything, mock.Anything)
}

func strPtr(s string) *string { return &s }
