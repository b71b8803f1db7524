package checkpoint

import (
	"context"
	"errors"
	"testing"
	"time"

	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := NewStore(rdb, LoadConfig(), logger.NewTestLogger(t))
	store.now = func() time.Time { return baseTime }
	return store, mr
}

func testSnapshot() []models.Question {
	return []models.Question{
		{ID: "I1", Instrument: models.InstrumentInterest, Text: "build things", Kind: models.AnswerKindScale, Dimension: "realistic", DisplayOrder: 1},
		{ID: "P1", Instrument: models.InstrumentPersonality, Text: "enjoy parties", Kind: models.AnswerKindScale, Dimension: "extraversion", DisplayOrder: 2},
	}
}

func testResponses() []models.Response {
	return []models.Response{
		{QuestionID: "I1", Value: 4},
		{QuestionID: "P1", Value: 2},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", 3, testResponses(), testSnapshot()))

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, cp)

	assert.Equal(t, "alice", cp.Identity)
	assert.Equal(t, 3, cp.PageIndex)
	assert.Equal(t, testResponses(), cp.Responses)
	assert.Equal(t, testSnapshot(), cp.Questions)
	assert.True(t, cp.SavedAt.Equal(baseTime))
}

func TestStore_FreshnessWindowBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		age      time.Duration
		wantLoad bool
	}{
		{"just under the window", 23*time.Hour + 59*time.Minute, true},
		{"just over the window", 24*time.Hour + 1*time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mr := newTestStore(t)
			ctx := context.Background()

			require.NoError(t, store.Save(ctx, "alice", 1, testResponses(), testSnapshot()))

			store.now = func() time.Time { return baseTime.Add(tt.age) }
			cp, err := store.Load(ctx, "alice")
			require.NoError(t, err)

			if tt.wantLoad {
				assert.NotNil(t, cp)
			} else {
				assert.Nil(t, cp)
				// Stale entries are invalidated, not just skipped.
				assert.False(t, mr.Exists(store.key("alice")))
				assert.False(t, mr.Exists(store.tsKey("alice")))
			}
		})
	}
}

func TestStore_MalformedResponsesTreatedAsAbsent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	// responses must be a list; an object is a corrupt payload.
	mr.Set(store.key("alice"), `{"identity":"alice","pageIndex":2,"responses":{"I1":4},"questions":[],"savedAt":"2024-06-01T12:00:00Z"}`)
	mr.Set(store.tsKey("alice"), baseTime.Format(time.RFC3339Nano))

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cp)
	assert.False(t, mr.Exists(store.key("alice")))
}

func TestStore_UnparseablePayloadTreatedAsAbsent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Set(store.key("alice"), `not json at all`)
	mr.Set(store.tsKey("alice"), baseTime.Format(time.RFC3339Nano))

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_UnparseableTimestampTreatedAsAbsent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", 0, testResponses(), testSnapshot()))
	mr.Set(store.tsKey("alice"), "yesterday-ish")

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_IdentitiesAreIsolated(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", 1, testResponses(), testSnapshot()))

	cp, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_AnonymousSentinelNamespace(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "", 0, testResponses(), testSnapshot()))

	assert.True(t, mr.Exists("assessment_progress_anonymous"))

	cp, err := store.Load(ctx, "")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, AnonymousIdentity, cp.Identity)

	// An identified user must not see anonymous progress.
	cp, err = store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_SaveOverwritesPrevious(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", 0, testResponses()[:1], testSnapshot()))
	require.NoError(t, store.Save(ctx, "alice", 1, testResponses(), testSnapshot()))

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, 1, cp.PageIndex)
	assert.Len(t, cp.Responses, 2)
}

func TestStore_Clear(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "alice", 2, testResponses(), testSnapshot()))
	require.NoError(t, store.Clear(ctx, "alice"))

	assert.False(t, mr.Exists(store.key("alice")))
	assert.False(t, mr.Exists(store.tsKey("alice")))

	cp, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestStore_LoadPropagatesRedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, LoadConfig(), logger.NewNoOpLogger())
	store.now = func() time.Time { return baseTime }

	mock.ExpectGet(store.tsKey("alice")).SetErr(errors.New("connection reset"))

	cp, err := store.Load(context.Background(), "alice")
	assert.Error(t, err)
	assert.Nil(t, cp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SavePropagatesRedisErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, LoadConfig(), logger.NewNoOpLogger())
	store.now = func() time.Time { return baseTime }

	mock.ExpectTxPipeline()
	mock.Regexp().ExpectSet(store.key("alice"), `.*`, store.config.FreshnessWindow).
		SetErr(errors.New("redis is down"))

	err := store.Save(context.Background(), "alice", 0, testResponses(), testSnapshot())
	assert.Error(t, err)
}
