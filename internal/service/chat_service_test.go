package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/relay-service/internal/classifier"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

func TestChatBugReportCreatesTicketInDefaultProject(t *testing.T) {
	tickets := newFakeTickets()
	notifier := &fakeNotifier{}
	dispatcher := &recordingDispatcher{}
	completer := &fakeCompleter{reply: `{"summary":"Login button broken on mobile","description":"Tapping login does nothing on mobile.","projectKey":"WEB","issueType":"Task"}`}
	svc := NewChatService(newDeps(tickets, notifier, dispatcher), classifier.New(completer, 0, nil))

	err := svc.HandleMessage(context.Background(), ChatMessage{Channel: "C123", Text: "the login button is broken on mobile"})
	require.NoError(t, err)

	require.Len(t, tickets.created, 1)
	assert.Equal(t, "KAN", tickets.created[0].ProjectKey)
	assert.Equal(t, domain.IssueTypeTask, tickets.created[0].IssueType)
	assert.Equal(t, "Login button broken on mobile", tickets.created[0].Summary)

	require.Len(t, notifier.posts, 1)
	assert.Equal(t, "C123", notifier.posts[0].to)
	assert.Contains(t, notifier.posts[0].text, "KAN-101")
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, dispatcher.types())
	assert.Equal(t, []string{"the login button is broken on mobile"}, completer.prompts)
}

func TestChatIgnoresBotsAndOrdinaryMessages(t *testing.T) {
	tickets := newFakeTickets()
	notifier := &fakeNotifier{}
	completer := &fakeCompleter{}
	svc := NewChatService(newDeps(tickets, notifier, nil), classifier.New(completer, 0, nil))

	require.NoError(t, svc.HandleMessage(context.Background(), ChatMessage{Channel: "C1", Text: "found a bug", BotID: "B1"}))
	require.NoError(t, svc.HandleMessage(context.Background(), ChatMessage{Channel: "C1", Text: "good morning"}))

	assert.Empty(t, completer.prompts)
	assert.Zero(t, tickets.calls)
	assert.Empty(t, notifier.posts)
}

func TestChatMessageIsBugReport(t *testing.T) {
	cases := map[string]bool{
		"There is a BUG in checkout": true,
		"the build is broken":        true,
		"did my change break prod?":  true,
		"lunch at noon":              false,
	}
	for text, want := range cases {
		assert.Equal(t, want, ChatMessage{Channel: "C", Text: text}.IsBugReport(), text)
	}
	assert.False(t, ChatMessage{Text: "bug"}.IsBugReport())
}

func TestChatClassificationFailurePostsNotice(t *testing.T) {
	tickets := newFakeTickets()
	notifier := &fakeNotifier{}
	dispatcher := &recordingDispatcher{}
	completer := &fakeCompleter{reply: `{"summary":"only a summary"}`}
	svc := NewChatService(newDeps(tickets, notifier, dispatcher), classifier.New(completer, 0, nil))

	err := svc.HandleMessage(context.Background(), ChatMessage{Channel: "C9", Text: "checkout is broken"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeClassification))

	assert.Zero(t, tickets.calls)
	require.Len(t, notifier.posts, 1)
	assert.Equal(t, "C9", notifier.posts[0].to)
	assert.Contains(t, notifier.posts[0].text, ":warning:")
	assert.Equal(t, []events.EventType{events.EventClassificationFailed}, dispatcher.types())
}

func TestChatCreateFailurePostsNotice(t *testing.T) {
	tickets := newFakeTickets()
	tickets.createErr = apperrors.NewGatewayError("jira", "create issue", errors.New("503"))
	notifier := &fakeNotifier{}
	completer := &fakeCompleter{reply: `{"summary":"s","description":"d","projectKey":"X","issueType":"Task"}`}
	svc := NewChatService(newDeps(tickets, notifier, nil), classifier.New(completer, 0, nil))

	err := svc.HandleMessage(context.Background(), ChatMessage{Channel: "C9", Text: "bug"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGateway))
	require.Len(t, notifier.posts, 1)
	assert.Contains(t, notifier.posts[0].text, "couldn't create a ticket")
}
