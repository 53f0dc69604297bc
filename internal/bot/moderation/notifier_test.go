package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

const testChatID int64 = 9000

func TestNotifier_StepSubmitted_SendsReviewCard(t *testing.T) {
	nop := zerolog.Nop()
	bot := new(MockBotClient)
	notifier := NewNotifier(bot, testChatID, &nop)

	var sent ports.SendMessageParams
	bot.On("SendMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(ports.SendMessageParams) }).
		Return(7, nil)

	err := notifier.handleStepSubmitted(context.Background(), ports.Event{
		Topic: ports.TopicStepSubmitted,
		Data: ports.StepSubmittedEvent{
			VisitorID: "app-1756600000000-abcdefghijklm",
			StepKey:   "cardOtp",
			Summary:   "card OTP 123456",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, testChatID, sent.ChatID)
	assert.Contains(t, sent.Text, "app-1756600000000-abcdefghijklm")
	assert.Contains(t, sent.Text, "card OTP 123456")

	// The buttons round-trip exactly what the review handler parses.
	require.NotNil(t, sent.ReplyMarkup)
	require.Len(t, sent.ReplyMarkup.Buttons, 1)
	require.Len(t, sent.ReplyMarkup.Buttons[0], 2)
	approveBtn, rejectBtn := sent.ReplyMarkup.Buttons[0][0], sent.ReplyMarkup.Buttons[0][1]
	assert.Equal(t, "review_approve_app-1756600000000-abcdefghijklm_cardOtp", approveBtn.Data)
	assert.Equal(t, "review_reject_app-1756600000000-abcdefghijklm_cardOtp", rejectBtn.Data)
	assert.True(t, strings.Contains(approveBtn.Text, "Approve"))
	assert.True(t, strings.Contains(rejectBtn.Text, "Reject"))
}

func TestNotifier_StepSubmitted_WrongPayloadType(t *testing.T) {
	nop := zerolog.Nop()
	bot := new(MockBotClient)
	notifier := NewNotifier(bot, testChatID, &nop)

	err := notifier.handleStepSubmitted(context.Background(), ports.Event{
		Topic: ports.TopicStepSubmitted,
		Data:  "not an event struct",
	})
	require.NoError(t, err)
	bot.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestNotifier_OrderPlaced_SendsSummary(t *testing.T) {
	nop := zerolog.Nop()
	bot := new(MockBotClient)
	notifier := NewNotifier(bot, testChatID, &nop)

	var sent ports.SendMessageParams
	bot.On("SendMessage", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(ports.SendMessageParams) }).
		Return(8, nil)

	err := notifier.handleOrderPlaced(context.Background(), ports.Event{
		Topic: ports.TopicOrderPlaced,
		Data: ports.OrderPlacedEvent{
			VisitorID: "app-1-x",
			OrderID:   "order-123",
			Total:     145.60,
		},
	})
	require.NoError(t, err)

	assert.Contains(t, sent.Text, "order-123")
	assert.Contains(t, sent.Text, "145.60")
	assert.Nil(t, sent.ReplyMarkup, "order notifications carry no buttons")
}
