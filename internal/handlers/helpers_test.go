package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vivatube/backend/internal/auth"
	"github.com/vivatube/backend/internal/models"
	"github.com/vivatube/backend/internal/repositories"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func authedRequest(r *http.Request, p Principal) *http.Request {
	return r.WithContext(withPrincipal(r.Context(), p))
}

// stubSessions satisfies SessionService with canned responses per method.
type stubSessions struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (models.UserView, error)
	loginFn          func(ctx context.Context, in auth.LoginInput) (models.UserView, models.SessionTokens, error)
	logoutFn         func(ctx context.Context, userID string) error
	refreshFn        func(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	changePasswordFn func(ctx context.Context, userID, oldPassword, newPassword string) error
	currentUserFn    func(ctx context.Context, userID string) (models.UserView, error)
	updateAccountFn  func(ctx context.Context, userID, fullName, email string) (models.UserView, error)
	updateAvatarFn   func(ctx context.Context, userID, avatarURL string) (models.UserView, error)
	updateCoverFn    func(ctx context.Context, userID, coverImageURL string) (models.UserView, error)
}

func (s *stubSessions) Register(ctx context.Context, in auth.RegisterInput) (models.UserView, error) {
	return s.registerFn(ctx, in)
}

func (s *stubSessions) Login(ctx context.Context, in auth.LoginInput) (models.UserView, models.SessionTokens, error) {
	return s.loginFn(ctx, in)
}

func (s *stubSessions) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubSessions) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	return s.refreshFn(ctx, refreshToken)
}

func (s *stubSessions) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return s.changePasswordFn(ctx, userID, oldPassword, newPassword)
}

func (s *stubSessions) CurrentUser(ctx context.Context, userID string) (models.UserView, error) {
	return s.currentUserFn(ctx, userID)
}

func (s *stubSessions) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.UserView, error) {
	return s.updateAccountFn(ctx, userID, fullName, email)
}

func (s *stubSessions) UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.UserView, error) {
	return s.updateAvatarFn(ctx, userID, avatarURL)
}

func (s *stubSessions) UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.UserView, error) {
	return s.updateCoverFn(ctx, userID, coverImageURL)
}

type fakeImages struct {
	saved []string
	err   error
}

func (f *fakeImages) Save(_ context.Context, name string, _ io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.saved = append(f.saved, name)
	return fmt.Sprintf("https://cdn.test/%s", name), nil
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (f *fakeLimiter) Allow(key string) bool {
	f.keys = append(f.keys, key)
	return f.allow
}

type fakeAggregates struct {
	stats      models.ChannelStats
	statsErr   error
	profile    models.ChannelProfile
	profileErr error
	history    []models.VideoWithOwner
	historyErr error
	videos     []models.VideoWithOwner
	videosErr  error
	page       models.CommentPage
	pageErr    error

	lastViewerID string
	lastPage     int
	lastLimit    int
}

func (f *fakeAggregates) ChannelStats(_ context.Context, channelID, viewerID string) (models.ChannelStats, error) {
	f.lastViewerID = viewerID
	return f.stats, f.statsErr
}

func (f *fakeAggregates) ChannelProfile(_ context.Context, username, viewerID string) (models.ChannelProfile, error) {
	f.lastViewerID = viewerID
	return f.profile, f.profileErr
}

func (f *fakeAggregates) WatchHistory(_ context.Context, userID string) ([]models.VideoWithOwner, error) {
	return f.history, f.historyErr
}

func (f *fakeAggregates) ChannelVideos(_ context.Context, channelID string) ([]models.VideoWithOwner, error) {
	return f.videos, f.videosErr
}

func (f *fakeAggregates) CommentPage(_ context.Context, videoID string, page, limit int) (models.CommentPage, error) {
	f.lastPage = page
	f.lastLimit = limit
	return f.page, f.pageErr
}

type fakeSubscriptions struct {
	subscribeErr   error
	unsubscribeErr error
	subscribed     [][2]string
}

func (f *fakeSubscriptions) Subscribe(_ context.Context, subscriberID, channelID string) error {
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribed = append(f.subscribed, [2]string{subscriberID, channelID})
	return nil
}

func (f *fakeSubscriptions) Unsubscribe(_ context.Context, subscriberID, channelID string) error {
	return f.unsubscribeErr
}

type fakeEngagement struct {
	liked    bool
	likeErr  error
	viewErr  error
	viewedBy []string
}

func (f *fakeEngagement) ToggleLike(_ context.Context, userID, videoID string) (bool, error) {
	return f.liked, f.likeErr
}

func (f *fakeEngagement) RecordView(_ context.Context, userID, videoID string) error {
	if f.viewErr != nil {
		return f.viewErr
	}
	f.viewedBy = append(f.viewedBy, userID)
	return nil
}

type fakeComments struct {
	comments  map[string]models.Comment
	createErr error
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: make(map[string]models.Comment)}
}

func (f *fakeComments) Create(_ context.Context, comment models.Comment) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeComments) FindByID(_ context.Context, id string) (models.Comment, error) {
	comment, ok := f.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (f *fakeComments) UpdateContent(_ context.Context, id, content string) error {
	comment, ok := f.comments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	comment.Content = content
	f.comments[id] = comment
	return nil
}

func (f *fakeComments) Delete(_ context.Context, id string) error {
	if _, ok := f.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

type fakeVideos struct {
	videos map[string]models.Video
}

func newFakeVideos(ids ...string) *fakeVideos {
	f := &fakeVideos{videos: make(map[string]models.Video)}
	for _, id := range ids {
		f.videos[id] = models.Video{ID: id, Title: "video " + id}
	}
	return f
}

func (f *fakeVideos) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

type fakeUsers struct {
	users map[string]models.User
}

func newFakeUsers(ids ...string) *fakeUsers {
	f := &fakeUsers{users: make(map[string]models.User)}
	for _, id := range ids {
		f.users[id] = models.User{ID: id, Username: "user-" + id}
	}
	return f
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

var errStoreDown = errors.New("store unavailable")
