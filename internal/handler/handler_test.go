package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/reaxo-dev/reaxo/internal/config"
	"github.com/reaxo-dev/reaxo/internal/domain"
	"github.com/reaxo-dev/reaxo/internal/forums"
	"github.com/reaxo-dev/reaxo/internal/middleware"
	"github.com/reaxo-dev/reaxo/internal/service"
)

const testSystemUserId = "afb6c21c-34fd-4b9a-80e7-c833eedeb6e3"

type MockForumService struct {
	MockCreate             func(ctx context.Context, p service.CreateForumParams) (*domain.Forum, error)
	MockIsSlugAvailable    func(ctx context.Context, slug string) (bool, error)
	MockGet                func(ctx context.Context, id string) (*domain.Forum, error)
	MockGetBySlug          func(ctx context.Context, slug string) (*domain.Forum, error)
	MockList               func(ctx context.Context, publicOnly bool) ([]domain.Forum, error)
	MockListByOwner        func(ctx context.Context, ownerId string) ([]domain.Forum, error)
	MockUpdate             func(ctx context.Context, id string, p service.UpdateForumParams) (*domain.Forum, error)
	MockDelete             func(ctx context.Context, id string) error
	MockAdjustThreadCount  func(ctx context.Context, forumId string, delta int) error
	MockJoin               func(ctx context.Context, forumId, userId string) (*domain.ForumMember, error)
	MockLeave              func(ctx context.Context, forumId, userId string) error
	MockMembers            func(ctx context.Context, forumId string) ([]domain.ForumMember, error)
	MockMember             func(ctx context.Context, forumId, userId string) (*domain.ForumMember, error)
	MockRemoveMember       func(ctx context.Context, forumId, userId string) error
	MockUpdateMemberRole   func(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error)
	MockMemberships        func(ctx context.Context, userId string) ([]domain.Forum, []domain.ForumMember, error)
	MockAddPendingPost     func(ctx context.Context, p service.AddPendingPostParams) (*domain.PendingPost, error)
	MockPendingPosts       func(ctx context.Context, forumId string) ([]domain.PendingPost, error)
	MockApprovePendingPost func(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error)
	MockRejectPendingPost  func(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error)
}

func (m *MockForumService) Create(ctx context.Context, p service.CreateForumParams) (*domain.Forum, error) {
	if m.MockCreate != nil {
		return m.MockCreate(ctx, p)
	}
	return &domain.Forum{Id: "forum-1", Name: p.Name, Slug: p.Slug}, nil
}

func (m *MockForumService) IsSlugAvailable(ctx context.Context, slug string) (bool, error) {
	if m.MockIsSlugAvailable != nil {
		return m.MockIsSlugAvailable(ctx, slug)
	}
	return true, nil
}

func (m *MockForumService) Get(ctx context.Context, id string) (*domain.Forum, error) {
	if m.MockGet != nil {
		return m.MockGet(ctx, id)
	}
	return &domain.Forum{Id: id, Slug: "test"}, nil
}

func (m *MockForumService) GetBySlug(ctx context.Context, slug string) (*domain.Forum, error) {
	if m.MockGetBySlug != nil {
		return m.MockGetBySlug(ctx, slug)
	}
	return &domain.Forum{Id: "forum-1", Slug: slug}, nil
}

func (m *MockForumService) List(ctx context.Context, publicOnly bool) ([]domain.Forum, error) {
	if m.MockList != nil {
		return m.MockList(ctx, publicOnly)
	}
	return nil, nil
}

func (m *MockForumService) ListByOwner(ctx context.Context, ownerId string) ([]domain.Forum, error) {
	if m.MockListByOwner != nil {
		return m.MockListByOwner(ctx, ownerId)
	}
	return nil, nil
}

func (m *MockForumService) Update(ctx context.Context, id string, p service.UpdateForumParams) (*domain.Forum, error) {
	if m.MockUpdate != nil {
		return m.MockUpdate(ctx, id, p)
	}
	return &domain.Forum{Id: id}, nil
}

func (m *MockForumService) Delete(ctx context.Context, id string) error {
	if m.MockDelete != nil {
		return m.MockDelete(ctx, id)
	}
	return nil
}

func (m *MockForumService) AdjustThreadCount(ctx context.Context, forumId string, delta int) error {
	if m.MockAdjustThreadCount != nil {
		return m.MockAdjustThreadCount(ctx, forumId, delta)
	}
	return nil
}

func (m *MockForumService) Join(ctx context.Context, forumId, userId string) (*domain.ForumMember, error) {
	if m.MockJoin != nil {
		return m.MockJoin(ctx, forumId, userId)
	}
	return &domain.ForumMember{ForumId: forumId, UserId: userId, Role: domain.RoleMember}, nil
}

func (m *MockForumService) Leave(ctx context.Context, forumId, userId string) error {
	if m.MockLeave != nil {
		return m.MockLeave(ctx, forumId, userId)
	}
	return nil
}

func (m *MockForumService) Members(ctx context.Context, forumId string) ([]domain.ForumMember, error) {
	if m.MockMembers != nil {
		return m.MockMembers(ctx, forumId)
	}
	return nil, nil
}

func (m *MockForumService) Member(ctx context.Context, forumId, userId string) (*domain.ForumMember, error) {
	if m.MockMember != nil {
		return m.MockMember(ctx, forumId, userId)
	}
	return &domain.ForumMember{ForumId: forumId, UserId: userId, Role: domain.RoleOwner}, nil
}

func (m *MockForumService) RemoveMember(ctx context.Context, forumId, userId string) error {
	if m.MockRemoveMember != nil {
		return m.MockRemoveMember(ctx, forumId, userId)
	}
	return nil
}

func (m *MockForumService) UpdateMemberRole(ctx context.Context, forumId, userId string, role domain.MemberRole) (*domain.ForumMember, error) {
	if m.MockUpdateMemberRole != nil {
		return m.MockUpdateMemberRole(ctx, forumId, userId, role)
	}
	return &domain.ForumMember{ForumId: forumId, UserId: userId, Role: role}, nil
}

func (m *MockForumService) Memberships(ctx context.Context, userId string) ([]domain.Forum, []domain.ForumMember, error) {
	if m.MockMemberships != nil {
		return m.MockMemberships(ctx, userId)
	}
	return nil, nil, nil
}

func (m *MockForumService) AddPendingPost(ctx context.Context, p service.AddPendingPostParams) (*domain.PendingPost, error) {
	if m.MockAddPendingPost != nil {
		return m.MockAddPendingPost(ctx, p)
	}
	return &domain.PendingPost{Id: "pending-1", ForumId: p.ForumId, Status: domain.PendingStatusPending}, nil
}

func (m *MockForumService) PendingPosts(ctx context.Context, forumId string) ([]domain.PendingPost, error) {
	if m.MockPendingPosts != nil {
		return m.MockPendingPosts(ctx, forumId)
	}
	return nil, nil
}

func (m *MockForumService) ApprovePendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error) {
	if m.MockApprovePendingPost != nil {
		return m.MockApprovePendingPost(ctx, postId, reviewerId)
	}
	return &domain.PendingPost{Id: postId, Status: domain.PendingStatusApproved, ReviewedBy: reviewerId}, nil
}

func (m *MockForumService) RejectPendingPost(ctx context.Context, postId, reviewerId string) (*domain.PendingPost, error) {
	if m.MockRejectPendingPost != nil {
		return m.MockRejectPendingPost(ctx, postId, reviewerId)
	}
	return &domain.PendingPost{Id: postId, Status: domain.PendingStatusRejected, ReviewedBy: reviewerId}, nil
}

type MockResponder struct {
	MockTrigger       func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
	MockRespond       func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
	MockGenerateImage func(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error)
}

func (m *MockResponder) Trigger(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
	if m.MockTrigger != nil {
		return m.MockTrigger(ctx, req)
	}
	return nil, nil
}

func (m *MockResponder) Respond(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
	if m.MockRespond != nil {
		return m.MockRespond(ctx, req)
	}
	return &service.RespondResult{Success: true}, nil
}

func (m *MockResponder) GenerateImage(ctx context.Context, req service.RespondRequest) (*service.RespondResult, error) {
	if m.MockGenerateImage != nil {
		return m.MockGenerateImage(ctx, req)
	}
	return &service.RespondResult{Success: true}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Public: config.Public{
			Domain:   "example.com",
			CacheTTL: time.Second,
			AI:       config.AI{SystemUserID: testSystemUserId},
		},
	}
}

// newTestHandler wires a handler against a fake upstream server. The
// server is closed with the test.
func newTestHandler(t *testing.T, upstream http.HandlerFunc) (*Handler, *MockForumService, *MockResponder) {
	t.Helper()
	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected upstream call: %s %s", r.Method, r.URL.Path)
			http.Error(w, "unexpected call", http.StatusInternalServerError)
		}
	}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	forum := &MockForumService{}
	responder := &MockResponder{}
	h := New(forums.New(srv.URL), forum, responder, testConfig())
	return h, forum, responder
}

// newTestRouter registers routes the way the real router does, with the
// token-decoding middleware in front so authenticated paths work.
func newTestRouter(register func(r *mux.Router)) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.NewAuth().OptionalAuth())
	register(router)
	return router
}

func authToken(t *testing.T, id, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      id,
		"username": username,
	})
	signed, err := token.SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func asUser(t *testing.T, req *http.Request, id, username string) *http.Request {
	t.Helper()
	req.Header.Set("Authorization", "Bearer "+authToken(t, id, username))
	return req
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rr := httptest.NewRecorder()
	h.Health(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
