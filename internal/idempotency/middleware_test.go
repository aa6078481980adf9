package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJournal struct {
	exists bool
	err    error
	seen   []string
}

func (s *stubJournal) Exists(_ context.Context, txID string) (bool, error) {
	s.seen = append(s.seen, txID)
	return s.exists, s.err
}

func performRequest(mw gin.HandlerFunc, key string) (*httptest.ResponseRecorder, *string) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	var captured string
	router.POST("/op", mw, func(c *gin.Context) {
		captured = TxID(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/op", nil)
	if key != "" {
		req.Header.Set("X-Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w, &captured
}

func TestMiddleware_MissingHeader(t *testing.T) {
	w, _ := performRequest(Middleware(nil, &stubJournal{}), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	w, _ := performRequest(Middleware(nil, &stubJournal{}), "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware_FreshToken_PassesThrough(t *testing.T) {
	journal := &stubJournal{exists: false}
	key := uuid.NewString()

	w, captured := performRequest(Middleware(nil, journal), key)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, key, *captured)
	assert.Equal(t, []string{key}, journal.seen)
}

func TestMiddleware_JournalHit_Conflicts(t *testing.T) {
	journal := &stubJournal{exists: true}
	key := uuid.NewString()

	w, captured := performRequest(Middleware(nil, journal), key)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, *captured)
}

func TestMiddleware_CacheHit_SkipsJournal(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewCacheWithClient(client)
	key := uuid.NewString()

	mock.ExpectExists(keyPrefix + key).SetVal(1)

	journal := &stubJournal{}
	w, _ := performRequest(Middleware(cache, journal), key)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, journal.seen, "journal should not be consulted on a cache hit")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_MarksCommittedToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewCacheWithClient(client)
	key := uuid.NewString()

	mock.ExpectExists(keyPrefix + key).SetVal(0)
	mock.ExpectSet(keyPrefix+key, 1, markTTL).SetVal("OK")

	w, _ := performRequest(Middleware(cache, &stubJournal{}), key)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMiddleware_RedisDown_FallsThroughToJournal(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewCacheWithClient(client)
	key := uuid.NewString()

	mock.ExpectExists(keyPrefix + key).SetErr(context.DeadlineExceeded)
	mock.ExpectSet(keyPrefix+key, 1, markTTL).SetErr(context.DeadlineExceeded)

	journal := &stubJournal{exists: false}
	w, _ := performRequest(Middleware(cache, journal), key)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, journal.seen, 1)
}

func TestCache_SeenAfterMark(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewCacheWithClient(client)

	mock.ExpectSet(keyPrefix+"tx", 1, 24*time.Hour).SetVal("OK")
	mock.ExpectExists(keyPrefix + "tx").SetVal(1)

	cache.Mark(context.Background(), "tx")
	assert.True(t, cache.Seen(context.Background(), "tx"))
	require.NoError(t, mock.ExpectationsWereMet())
}
