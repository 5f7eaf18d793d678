package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"postpilot/internal/models"
	"postpilot/internal/platform"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.ScheduledPost) (int64, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.ScheduledPost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) ListDuePending(ctx context.Context, now int64, staleClaimBefore time.Time, limit int) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, now, staleClaimBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) ListDueSecondStage(ctx context.Context, postedBefore int64, limit int) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, postedBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) ClaimPending(ctx context.Context, id int64, staleClaimBefore time.Time) (bool, error) {
	args := m.Called(ctx, id, staleClaimBefore)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) RevertClaim(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) MarkFailed(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) MarkPosted(ctx context.Context, id int64, platformPostID, permalink, secondStage string, postedAt int64) (bool, error) {
	args := m.Called(ctx, id, platformPostID, permalink, secondStage, postedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) MarkSecondStageDone(ctx context.Context, id int64, replyID string) (bool, error) {
	args := m.Called(ctx, id, replyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) FillQuoteContent(ctx context.Context, id, userID int64, content string, scheduledAt int64) (bool, error) {
	args := m.Called(ctx, id, userID, content, scheduledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) ExistsBySource(ctx context.Context, userID int64, sourcePostID, shortCode string) (bool, error) {
	args := m.Called(ctx, userID, sourcePostID, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) ListDeletable(ctx context.Context, accountID int64, limit int) ([]*models.ScheduledPost, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScheduledPost), args.Error(1)
}

func (m *MockPostRepository) CountDeletable(ctx context.Context, accountID int64) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MockPostRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) Remove(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, a *models.Account) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	args := m.Called(ctx, accountID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) ListDueRefresh(ctx context.Context, expiresBefore int64, limit int) ([]*models.Account, error) {
	args := m.Called(ctx, expiresBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAutoQuote(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt int64) (bool, error) {
	args := m.Called(ctx, id, accessToken, refreshToken, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) RecordRefreshFailure(ctx context.Context, id int64, limit int) (int, error) {
	args := m.Called(ctx, id, limit)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountRepository) SetReauthRequired(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccountRepository) ClearCredentials(ctx context.Context, platformUserID string) error {
	args := m.Called(ctx, platformUserID)
	return args.Error(0)
}

func (m *MockAccountRepository) SetAutomation(ctx context.Context, id int64, autoPost, autoQuote bool) error {
	args := m.Called(ctx, id, autoPost, autoQuote)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateSettings(ctx context.Context, id, userID int64, followUpContent, monitoredAccount string, autoPost, autoQuote bool) error {
	args := m.Called(ctx, id, userID, followUpContent, monitoredAccount, autoPost, autoQuote)
	return args.Error(0)
}

type MockPostingAttemptRepository struct {
	mock.Mock
}

func (m *MockPostingAttemptRepository) Create(ctx context.Context, a *models.PostingAttempt) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostingAttemptRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingAttempt, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PostingAttempt), args.Error(1)
}

type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) CreatePost(ctx context.Context, accessToken, text, idempotencyKey string) (string, error) {
	args := m.Called(ctx, accessToken, text, idempotencyKey)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) CreateReply(ctx context.Context, accessToken, text, inReplyToID string) (string, error) {
	args := m.Called(ctx, accessToken, text, inReplyToID)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) ResolvePermalink(ctx context.Context, accessToken, postID string) (string, error) {
	args := m.Called(ctx, accessToken, postID)
	return args.String(0), args.Error(1)
}

func (m *MockPlatformClient) DeletePost(ctx context.Context, accessToken, postID string) error {
	args := m.Called(ctx, accessToken, postID)
	return args.Error(0)
}

func (m *MockPlatformClient) RefreshCredential(ctx context.Context, refreshToken string) (*platform.TokenResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.TokenResponse), args.Error(1)
}

func (m *MockPlatformClient) FetchProfile(ctx context.Context, accessToken string) (*platform.Profile, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.Profile), args.Error(1)
}

func (m *MockPlatformClient) FetchLatestPost(ctx context.Context, accessToken, accountRef string) (*platform.UpstreamPost, error) {
	args := m.Called(ctx, accessToken, accountRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*platform.UpstreamPost), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, message string) {
	m.Called(ctx, message)
}

type MockDeletionQueueRepository struct {
	mock.Mock
}

func (m *MockDeletionQueueRepository) Create(ctx context.Context, e *models.DeletionQueueEntry) (int64, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDeletionQueueRepository) ListDue(ctx context.Context, now, backoffSeconds, claimTTLSeconds int64) ([]*models.DeletionQueueEntry, error) {
	args := m.Called(ctx, now, backoffSeconds, claimTTLSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeletionQueueEntry), args.Error(1)
}

func (m *MockDeletionQueueRepository) Claim(ctx context.Context, id, now, claimTTLSeconds int64) (bool, error) {
	args := m.Called(ctx, id, now, claimTTLSeconds)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeletionQueueRepository) Release(ctx context.Context, id, lastProcessedAt int64) error {
	args := m.Called(ctx, id, lastProcessedAt)
	return args.Error(0)
}

func (m *MockDeletionQueueRepository) Remove(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeletionQueueRepository) RemoveByAccountID(ctx context.Context, accountID int64) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockDeletionQueueRepository) ExistsByAccountID(ctx context.Context, accountID int64) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}
