package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserSource struct {
	users []models.User
}

func (f *fakeUserSource) CreateUser(user *models.User) error          { return nil }
func (f *fakeUserSource) GetUserByID(id uint) (*models.User, error)   { return nil, nil }
func (f *fakeUserSource) GetUserByEmail(string) (*models.User, error) { return nil, nil }
func (f *fakeUserSource) GetUserByUsername(string) (*models.User, error) {
	return nil, nil
}
func (f *fakeUserSource) UpdateUser(user *models.User) error { return nil }

func (f *fakeUserSource) ForEachUserBatch(batchSize int, fn func(users []models.User) error) error {
	for start := 0; start < len(f.users); start += batchSize {
		end := start + batchSize
		if end > len(f.users) {
			end = len(f.users)
		}
		if err := fn(f.users[start:end]); err != nil {
			return err
		}
	}
	return nil
}

type fakeNotificationSink struct {
	mu      sync.Mutex
	rows    []models.Notification
	nextID  uint
	failing bool
}

func (f *fakeNotificationSink) CreateBatch(notifications []models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return fmt.Errorf("insert failed")
	}
	for i := range notifications {
		f.nextID++
		notifications[i].ID = f.nextID
	}
	f.rows = append(f.rows, notifications...)
	return nil
}

func (f *fakeNotificationSink) GetByRecipientID(uint) ([]models.Notification, error) {
	return nil, nil
}
func (f *fakeNotificationSink) GetByID(uint) (*models.Notification, error) { return nil, nil }
func (f *fakeNotificationSink) MarkAsRead(uint) error                      { return nil }
func (f *fakeNotificationSink) MarkAllAsRead(uint) error                   { return nil }
func (f *fakeNotificationSink) DeleteByContent(string, string) error       { return nil }

type recordingPusher struct {
	mu     sync.Mutex
	events map[uint][]interface{}
}

func newRecordingPusher() *recordingPusher {
	return &recordingPusher{events: make(map[uint][]interface{})}
}

func (p *recordingPusher) EmitToUser(userID uint, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[userID] = append(p.events[userID], payload)
}

func makeUsers(n int) []models.User {
	users := make([]models.User, n)
	for i := range users {
		users[i] = models.User{ID: uint(i + 1), Username: fmt.Sprintf("user%d", i+1)}
	}
	return users
}

func TestNotifyAllUsersCreatesOneRowPerUser(t *testing.T) {
	// More users than one scan batch, so the fan-out must page through.
	users := &fakeUserSource{users: makeUsers(1200)}
	sink := &fakeNotificationSink{}
	pusher := newRecordingPusher()
	engine := NewEngine(users, sink, pusher)

	err := engine.NotifyAllUsers(context.Background(), "64f000000000000000000001", models.ContentTypePost, false)
	require.NoError(t, err)

	require.Len(t, sink.rows, 1200)
	seen := make(map[uint]bool)
	for _, row := range sink.rows {
		assert.Equal(t, "64f000000000000000000001", row.ContentID)
		assert.Equal(t, models.ContentTypePost, row.ContentType)
		assert.False(t, row.Priority)
		assert.False(t, row.IsRead)
		assert.False(t, seen[row.RecipientID], "duplicate row for user %d", row.RecipientID)
		seen[row.RecipientID] = true
	}
	// The author's own row is written too; filtering happens at serving time.
	assert.True(t, seen[1])
}

func TestLateRegisteredUserGetsNoRows(t *testing.T) {
	users := &fakeUserSource{users: makeUsers(3)}
	sink := &fakeNotificationSink{}
	engine := NewEngine(users, sink, newRecordingPusher())

	err := engine.NotifyAllUsers(context.Background(), "64f000000000000000000006", models.ContentTypePost, false)
	require.NoError(t, err)
	require.Len(t, sink.rows, 3)

	// Registering after the fan-out snapshot yields nothing; the user set is
	// enumerated exactly once at creation time.
	users.users = append(users.users, models.User{ID: 4, Username: "late"})

	for _, row := range sink.rows {
		assert.NotEqual(t, uint(4), row.RecipientID)
	}
	assert.Len(t, sink.rows, 3)
}

func TestNotifyAllUsersCarriesPriority(t *testing.T) {
	users := &fakeUserSource{users: makeUsers(3)}
	sink := &fakeNotificationSink{}
	engine := NewEngine(users, sink, newRecordingPusher())

	err := engine.NotifyAllUsers(context.Background(), "64f000000000000000000002", models.ContentTypePoll, true)
	require.NoError(t, err)

	for _, row := range sink.rows {
		assert.True(t, row.Priority)
	}
}

func TestNotifyAllUsersPushesToEveryRecipient(t *testing.T) {
	users := &fakeUserSource{users: makeUsers(5)}
	sink := &fakeNotificationSink{}
	pusher := newRecordingPusher()
	engine := NewEngine(users, sink, pusher)

	err := engine.NotifyAllUsers(context.Background(), "64f000000000000000000003", models.ContentTypePost, false)
	require.NoError(t, err)

	require.Len(t, pusher.events, 5)
	for userID, payloads := range pusher.events {
		require.Len(t, payloads, 1)
		row, ok := payloads[0].(models.Notification)
		require.True(t, ok)
		assert.Equal(t, userID, row.RecipientID)
		// Pushed payloads carry the persisted row ID so clients can dedupe.
		assert.NotZero(t, row.ID)
	}
}

func TestNotifyAllUsersStopsOnInsertFailure(t *testing.T) {
	users := &fakeUserSource{users: makeUsers(10)}
	sink := &fakeNotificationSink{failing: true}
	pusher := newRecordingPusher()
	engine := NewEngine(users, sink, pusher)

	err := engine.NotifyAllUsers(context.Background(), "64f000000000000000000004", models.ContentTypePost, false)
	require.Error(t, err)
	assert.Empty(t, pusher.events, "no push without a durable row")
}

func TestNotifyAllUsersRespectsContextCancellation(t *testing.T) {
	users := &fakeUserSource{users: makeUsers(10)}
	sink := &fakeNotificationSink{}
	engine := NewEngine(users, sink, newRecordingPusher())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := engine.NotifyAllUsers(ctx, "64f000000000000000000005", models.ContentTypePost, false)
	require.Error(t, err)
	assert.Empty(t, sink.rows)
}
