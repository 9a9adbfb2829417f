package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfeed/internal/api/auth"
	"github.com/chatterfeed/internal/engagement"
	"github.com/chatterfeed/pkg/models"
)

type fakeEngagementStore struct {
	visibility       map[string]string
	votes            map[string]map[int64]bool
	reposts          map[string]map[int64]bool
	voteCountCalls   int
	repostCountCalls int
}

func newFakeEngagementStore() *fakeEngagementStore {
	return &fakeEngagementStore{
		visibility: make(map[string]string),
		votes:      make(map[string]map[int64]bool),
		reposts:    make(map[string]map[int64]bool),
	}
}

func (f *fakeEngagementStore) ChatVisibility(_ context.Context, chatID string) (string, error) {
	visibility, ok := f.visibility[chatID]
	if !ok {
		return "", engagement.ErrChatNotFound
	}
	return visibility, nil
}

func (f *fakeEngagementStore) GetVote(_ context.Context, chatID string, userID int64) (*models.Vote, error) {
	byUser, ok := f.votes[chatID]
	if !ok {
		return nil, nil
	}
	isUpvoted, ok := byUser[userID]
	if !ok {
		return nil, nil
	}
	return &models.Vote{ChatID: chatID, UserID: userID, IsUpvoted: isUpvoted}, nil
}

func (f *fakeEngagementStore) InsertVote(_ context.Context, vote *models.Vote) error {
	if f.votes[vote.ChatID] == nil {
		f.votes[vote.ChatID] = make(map[int64]bool)
	}
	f.votes[vote.ChatID][vote.UserID] = vote.IsUpvoted
	return nil
}

func (f *fakeEngagementStore) UpdateVote(_ context.Context, chatID string, userID int64, isUpvoted bool) error {
	f.votes[chatID][userID] = isUpvoted
	return nil
}

func (f *fakeEngagementStore) CountVotes(_ context.Context, chatID string) (int, error) {
	f.voteCountCalls++
	count := 0
	for _, isUpvoted := range f.votes[chatID] {
		if isUpvoted {
			count++
		}
	}
	return count, nil
}

func (f *fakeEngagementStore) InsertRepost(_ context.Context, chatID string, userID int64) error {
	if f.reposts[chatID] == nil {
		f.reposts[chatID] = make(map[int64]bool)
	}
	if f.reposts[chatID][userID] {
		return engagement.ErrAlreadyReposted
	}
	f.reposts[chatID][userID] = true
	return nil
}

func (f *fakeEngagementStore) DeleteRepost(_ context.Context, chatID string, userID int64) (bool, error) {
	existed := f.reposts[chatID][userID]
	delete(f.reposts[chatID], userID)
	return existed, nil
}

func (f *fakeEngagementStore) CountReposts(_ context.Context, chatID string) (int, error) {
	f.repostCountCalls++
	return len(f.reposts[chatID]), nil
}

func newEngagementHandlers(t *testing.T, store engagement.Store, withRedis bool) *EngagementHandlers {
	t.Helper()

	var client *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}

	return NewEngagementHandlers(engagement.NewService(store), engagement.NewCountCache(client))
}

func postVote(t *testing.T, h *EngagementHandlers, userID int64, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vote", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(string(auth.UserContextKey), &models.User{ID: userID})

	return rec, h.Vote(c)
}

func getCounts(t *testing.T, h *EngagementHandlers, chatID string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/"+chatID+"/counts", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(chatID)

	return rec, h.GetCounts(c)
}

func TestVoteHandlerAcceptsDownType(t *testing.T) {
	store := newFakeEngagementStore()
	store.visibility["chat-1"] = models.VisibilityPublic
	h := newEngagementHandlers(t, store, false)

	// A down vote on an unmarked chat behaves like any first toggle
	rec, err := postVote(t, h, 7, `{"chatId":"chat-1","messageId":"msg-1","type":"down"}`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Voted   bool `json:"voted"`
		Upvotes int  `json:"upvotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Voted)
	assert.Equal(t, 1, resp.Upvotes)

	// A second down vote clears the mark again
	rec, err = postVote(t, h, 7, `{"chatId":"chat-1","messageId":"msg-1","type":"down"}`)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Voted)
	assert.Equal(t, 0, resp.Upvotes)
}

func TestVoteHandlerRejectsUnknownType(t *testing.T) {
	store := newFakeEngagementStore()
	store.visibility["chat-1"] = models.VisibilityPublic
	h := newEngagementHandlers(t, store, false)

	_, err := postVote(t, h, 7, `{"chatId":"chat-1","messageId":"msg-1","type":"sideways"}`)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestGetCountsCacheAside(t *testing.T) {
	store := newFakeEngagementStore()
	store.visibility["chat-1"] = models.VisibilityPublic
	store.votes["chat-1"] = map[int64]bool{1: true, 2: true}
	store.reposts["chat-1"] = map[int64]bool{3: true}
	h := newEngagementHandlers(t, store, true)

	// First read misses the cache and recomputes from storage
	rec, err := getCounts(t, h, "chat-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Upvotes int `json:"upvotes"`
		Reposts int `json:"reposts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Upvotes)
	assert.Equal(t, 1, resp.Reposts)
	assert.Equal(t, 1, store.voteCountCalls)
	assert.Equal(t, 1, store.repostCountCalls)

	// Second read is served from the primed cache without touching storage
	rec, err = getCounts(t, h, "chat-1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Upvotes)
	assert.Equal(t, 1, resp.Reposts)
	assert.Equal(t, 1, store.voteCountCalls)
	assert.Equal(t, 1, store.repostCountCalls)
}

func TestGetCountsUnknownChat(t *testing.T) {
	h := newEngagementHandlers(t, newFakeEngagementStore(), true)

	_, err := getCounts(t, h, "missing")
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
