package handlers

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"SidraStore/internal/adapters/docstore"
	"SidraStore/internal/bot/moderation"
	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// MockBotClient is a mock for the BotClientPort
type MockBotClient struct {
	mock.Mock
}

func (m *MockBotClient) SendMessage(ctx context.Context, params ports.SendMessageParams) (int, error) {
	args := m.Called(ctx, params)
	return args.Int(0), args.Error(1)
}
func (m *MockBotClient) EditMessageText(ctx context.Context, params ports.EditMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
func (m *MockBotClient) SetMenuCommands(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func newReviewFixture(t *testing.T) (ports.CallbackHandler, *docstore.MemoryStore, *MockBotClient) {
	t.Helper()
	nop := zerolog.Nop()
	store := docstore.NewMemoryStore(nil, &nop)
	bot := new(MockBotClient)
	handler := NewReviewHandler(&moderation.Deps{Store: store, BotClient: bot}, &nop)
	return handler, store, bot
}

func callbackUpdate(data string) *ports.BotUpdate {
	return &ports.BotUpdate{
		MessageID:       42,
		ChatID:          1000,
		CallbackQueryID: "cb-1",
		CallbackData:    &data,
	}
}

func TestReviewHandler_Approve(t *testing.T) {
	handler, store, bot := newReviewFixture(t)
	ctx := context.Background()

	bot.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)
	bot.On("EditMessageText", mock.Anything, mock.Anything).Return(nil)

	err := handler.Handle(ctx, callbackUpdate("review_approve_app-1756600000000-abcdefghijklm_cardOtp"))
	require.NoError(t, err)

	rec, err := store.ReadOnce(ctx, "app-1756600000000-abcdefghijklm")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ApprovalApproved, rec.Approval("cardOtp"))

	// The review card is replaced with the decision, buttons removed.
	bot.AssertCalled(t, "EditMessageText", mock.Anything, mock.MatchedBy(func(params ports.EditMessageParams) bool {
		return params.MessageID == 42 && params.ReplyMarkup == nil
	}))
}

func TestReviewHandler_Reject(t *testing.T) {
	handler, store, bot := newReviewFixture(t)
	ctx := context.Background()

	bot.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)
	bot.On("EditMessageText", mock.Anything, mock.Anything).Return(nil)

	err := handler.Handle(ctx, callbackUpdate("review_reject_app-1756600000000-abcdefghijklm_nafath"))
	require.NoError(t, err)

	rec, err := store.ReadOnce(ctx, "app-1756600000000-abcdefghijklm")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ApprovalRejected, rec.Approval("nafath"))
}

func TestReviewHandler_MalformedData(t *testing.T) {
	handler, store, bot := newReviewFixture(t)
	ctx := context.Background()

	bot.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, handler.Handle(ctx, callbackUpdate("review_approve")))

	rec, err := store.ReadOnce(ctx, "app-1756600000000-abcdefghijklm")
	require.NoError(t, err)
	assert.Nil(t, rec, "malformed callback data must not write anything")
	bot.AssertNotCalled(t, "EditMessageText", mock.Anything, mock.Anything)
}

func TestReviewHandler_UnknownAction(t *testing.T) {
	handler, store, bot := newReviewFixture(t)
	ctx := context.Background()

	bot.On("AnswerCallbackQuery", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, handler.Handle(ctx, callbackUpdate("review_escalate_app-1-x_cardOtp")))

	rec, err := store.ReadOnce(ctx, "app-1-x")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
