package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/devdattatalele/zapmygoal/internal/gemini"
	"github.com/devdattatalele/zapmygoal/internal/models"
)

// MockChallengeRepository is a mock implementation of repository.ChallengeRepository
type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) FindByUserID(ctx context.Context, userID string) ([]models.Challenge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockChallengeRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]models.Challenge, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Challenge), args.Error(1)
}

// MockSubmissionRepository is a mock implementation of repository.SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) FindByChallengeID(ctx context.Context, challengeID string) (*models.Submission, error) {
	args := m.Called(ctx, challengeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) CreateIfMissing(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Deposit(ctx context.Context, userID string, amount int64, description string) error {
	args := m.Called(ctx, userID, amount, description)
	return args.Error(0)
}

func (m *MockWalletRepository) Deduct(ctx context.Context, userID, challengeID string, amount int64, description string) error {
	args := m.Called(ctx, userID, challengeID, amount, description)
	return args.Error(0)
}

func (m *MockWalletRepository) AppendRefund(ctx context.Context, userID, challengeID string, amount int64, description string) error {
	args := m.Called(ctx, userID, challengeID, amount, description)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of repository.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByChallengeAndType(ctx context.Context, challengeID, transactionType string) (*models.Transaction, error) {
	args := m.Called(ctx, challengeID, transactionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

// MockProfileRepository is a mock implementation of repository.ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpsertByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

// MockReminderRepository is a mock implementation of repository.ReminderRepository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) FindPending(ctx context.Context, now time.Time, limit int) ([]models.PendingReminder, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PendingReminder), args.Error(1)
}

func (m *MockReminderRepository) MarkSent(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockClassifier is a mock implementation of RelevanceClassifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) VerifyRelevance(ctx context.Context, image []byte, mimeType, title, description, verificationDetails string) (gemini.RelevanceResult, error) {
	args := m.Called(ctx, image, mimeType, title, description, verificationDetails)
	return args.Get(0).(gemini.RelevanceResult), args.Error(1)
}

// MockDeadlineParser is a mock implementation of DeadlineParser
type MockDeadlineParser struct {
	mock.Mock
}

func (m *MockDeadlineParser) ParseDeadline(ctx context.Context, phrase string, now time.Time) (time.Time, error) {
	args := m.Called(ctx, phrase, now)
	return args.Get(0).(time.Time), args.Error(1)
}

// MockMediaStore is a mock implementation of MediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) SaveProofImage(ctx context.Context, userID, challengeID string, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, userID, challengeID, image, mimeType)
	return args.String(0), args.Error(1)
}

// MockMediaFetcher is a mock implementation of MediaFetcher
type MockMediaFetcher struct {
	mock.Mock
}

func (m *MockMediaFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

// MockMessageChannel is a mock implementation of MessageChannel
type MockMessageChannel struct {
	mock.Mock
	name string
}

func (m *MockMessageChannel) Send(ctx context.Context, phone, message string) error {
	args := m.Called(ctx, phone, message)
	return args.Error(0)
}

func (m *MockMessageChannel) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

// MockSettlementEngine is a mock implementation of SettlementEngine
type MockSettlementEngine struct {
	mock.Mock
}

func (m *MockSettlementEngine) SettleFailure(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockSettlementEngine) SettleSuccess(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyCompletion(ctx context.Context, challenge *models.Challenge) {
	m.Called(ctx, challenge)
}

func (m *MockNotifier) NotifyFailure(ctx context.Context, challenge *models.Challenge, deducted bool) {
	m.Called(ctx, challenge, deducted)
}

func (m *MockNotifier) NotifyReminder(ctx context.Context, reminder *models.PendingReminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}
