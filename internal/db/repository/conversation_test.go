package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lakeagent/internal/domain"
)

func TestConversationRepo_AppendAndHistory(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	user := &domain.ConversationMessage{SessionID: "s1", Role: "user", Content: "clean raw_orders"}
	require.NoError(t, r.conversations.Append(ctx, user))
	assert.NotZero(t, user.ID)

	require.NoError(t, r.conversations.Append(ctx, &domain.ConversationMessage{
		SessionID: "s1", Role: "assistant", Content: "here is the plan",
	}))
	require.NoError(t, r.conversations.Append(ctx, &domain.ConversationMessage{
		SessionID: "other", Role: "user", Content: "unrelated",
	}))

	history, err := r.conversations.History(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestConversationRepo_HistoryWindowKeepsLatest(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, r.conversations.Append(ctx, &domain.ConversationMessage{
			SessionID: "s1", Role: "user", Content: fmt.Sprintf("message %d", i),
		}))
	}

	history, err := r.conversations.History(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "message 3", history[0].Content)
	assert.Equal(t, "message 4", history[1].Content)
}

func TestConversationRepo_Validation(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	var verr *domain.ValidationError

	err := r.conversations.Append(ctx, &domain.ConversationMessage{Role: "user", Content: "x"})
	assert.ErrorAs(t, err, &verr)

	err = r.conversations.Append(ctx, &domain.ConversationMessage{SessionID: "s", Role: "system", Content: "x"})
	assert.ErrorAs(t, err, &verr)

	history, err := r.conversations.History(ctx, "empty-session", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
