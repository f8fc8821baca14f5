package handlers

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/campuslink-app/backend/internal/models"
	"github.com/campuslink-app/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
)

// In-memory repository fakes mirroring the persistence semantics the
// handlers rely on: conditional vote/like updates, lifecycle filtering, and
// notification ordering.

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, user := range users {
		if user.ID > repo.nextID {
			repo.nextID = user.ID
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) CreateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetUserByUsername(username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdateUser(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) ForEachUserBatch(batchSize int, fn func(users []models.User) error) error {
	r.mu.Lock()
	ids := make([]uint, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	all := make([]models.User, len(ids))
	for i, id := range ids {
		all[i] = *r.users[id]
	}
	r.mu.Unlock()

	for start := 0; start < len(all); start += batchSize {
		end := start + batchSize
		if end > len(all) {
			end = len(all)
		}
		if err := fn(all[start:end]); err != nil {
			return err
		}
	}
	return nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	rows   []models.Notification
	nextID uint
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) CreateBatch(notifications []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range notifications {
		r.nextID++
		notifications[i].ID = r.nextID
	}
	r.rows = append(r.rows, notifications...)
	return nil
}

func (r *fakeNotificationRepo) GetByRecipientID(recipientID uint) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Notification
	for _, row := range r.rows {
		if row.RecipientID == recipientID {
			result = append(result, row)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *fakeNotificationRepo) GetByID(id uint) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ID == id {
			copied := row
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) MarkAsRead(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(recipientID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].RecipientID == recipientID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteByContent(contentType, contentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.ContentType != contentType || row.ContentID != contentID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[string]*models.Post
	getErr error // when set, GetPostByID fails with it
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	post.IsActive = true
	if post.Likes == nil {
		post.Likes = []uint{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	copied := *post
	r.posts[post.ID.Hex()] = &copied
	return nil
}

func (r *fakePostRepo) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *post
	copied.Likes = append([]uint(nil), post.Likes...)
	copied.Comments = append([]models.Comment(nil), post.Comments...)
	return &copied, nil
}

func (r *fakePostRepo) GetVisiblePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Post
	for _, post := range r.posts {
		if post.Visible(now) {
			result = append(result, *post)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakePostRepo) GetPostsByAuthor(ctx context.Context, authorID uint) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Post
	for _, post := range r.posts {
		if post.AuthorID == authorID {
			result = append(result, *post)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakePostRepo) DeletePost(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) SetTimer(ctx context.Context, id string, timer models.ContentTimer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	post.Timer = timer
	return nil
}

func (r *fakePostRepo) AddLike(ctx context.Context, id string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	for _, liker := range post.Likes {
		if liker == userID {
			return false, nil
		}
	}
	post.Likes = append(post.Likes, userID)
	return true, nil
}

func (r *fakePostRepo) RemoveLike(ctx context.Context, id string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	for i, liker := range post.Likes {
		if liker == userID {
			post.Likes = append(post.Likes[:i], post.Likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakePostRepo) AddComment(ctx context.Context, id string, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	post.Comments = append([]models.Comment{*comment}, post.Comments...)
	return nil
}

func (r *fakePostRepo) RemoveComment(ctx context.Context, id string, commentID string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return false, nil
	}
	for i, comment := range post.Comments {
		if comment.ID.Hex() == commentID && comment.UserID == userID {
			post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakePollRepo struct {
	mu    sync.Mutex
	polls map[string]*models.Poll
}

func newFakePollRepo() *fakePollRepo {
	return &fakePollRepo{polls: make(map[string]*models.Poll)}
}

func (r *fakePollRepo) CreatePoll(ctx context.Context, poll *models.Poll) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll.ID = primitive.NewObjectID()
	poll.CreatedAt = time.Now()
	poll.UpdatedAt = poll.CreatedAt
	poll.IsActive = true
	for i := range poll.Options {
		if poll.Options[i].Voters == nil {
			poll.Options[i].Voters = []uint{}
		}
	}
	copied := clonePoll(poll)
	r.polls[poll.ID.Hex()] = copied
	return nil
}

func clonePoll(poll *models.Poll) *models.Poll {
	copied := *poll
	copied.Options = make([]models.PollOption, len(poll.Options))
	for i, opt := range poll.Options {
		copied.Options[i] = models.PollOption{
			Text:   opt.Text,
			Voters: append([]uint(nil), opt.Voters...),
		}
	}
	return &copied
}

func (r *fakePollRepo) GetPollByID(ctx context.Context, id string) (*models.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clonePoll(poll), nil
}

func (r *fakePollRepo) GetVisiblePolls(ctx context.Context, now time.Time) ([]models.Poll, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []models.Poll
	for _, poll := range r.polls {
		if poll.Visible(now) {
			result = append(result, *clonePoll(poll))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *fakePollRepo) DeletePoll(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.polls[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.polls, id)
	return nil
}

func (r *fakePollRepo) SetTimer(ctx context.Context, id string, timer models.ContentTimer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return repositories.ErrNotFound
	}
	poll.Timer = timer
	return nil
}

// CastVote mirrors the conditional-update semantics of the real repository:
// the membership check and the insert happen under one lock, so concurrent
// votes from the same user cannot both land.
func (r *fakePollRepo) CastVote(ctx context.Context, id string, optionIndex int, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	poll, ok := r.polls[id]
	if !ok {
		return false, nil
	}
	for _, opt := range poll.Options {
		for _, voter := range opt.Voters {
			if voter == userID {
				return false, nil
			}
		}
	}
	poll.Options[optionIndex].Voters = append(poll.Options[optionIndex].Voters, userID)
	return true, nil
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte)}
}

func (s *fakeStorage) Save(ctx context.Context, path string, reader io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	return s.URL(path), nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

func (s *fakeStorage) URL(path string) string {
	return "/uploads/" + path
}
