package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
)

func TestBranchCreatedMovesTicketInProgress(t *testing.T) {
	tickets := newFakeTickets()
	notifier := &fakeNotifier{}
	dispatcher := &recordingDispatcher{}
	svc := NewSourceControlService(newDeps(tickets, notifier, dispatcher))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{Event: "create", RefType: "branch", Ref: "feature/KAN-42-login-fix"})
	require.NoError(t, err)

	assert.Equal(t, []transition{{"KAN-42", domain.StatusInProgress}}, tickets.transitions)
	require.Len(t, tickets.comments, 1)
	assert.Equal(t, domain.TicketKey("KAN-42"), tickets.comments[0].key)
	assert.Contains(t, tickets.comments[0].body, "feature/KAN-42-login-fix")
	assert.Empty(t, notifier.posts)
	assert.Equal(t, []events.EventType{events.EventTicketTransitioned, events.EventTicketCommented}, dispatcher.types())
}

func TestMergedPullRequestResolvesTicket(t *testing.T) {
	tickets := newFakeTickets()
	notifier := &fakeNotifier{}
	svc := NewSourceControlService(newDeps(tickets, notifier, nil))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{
		PRAction: "closed",
		Merged:   true,
		HeadRef:  "fix/login",
		PRTitle:  "KAN-42 fix login on mobile",
		PRURL:    "https://git.example/acme/web/pull/7",
		PRNumber: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, []transition{{"KAN-42", domain.StatusDone}}, tickets.transitions)
	require.Len(t, tickets.comments, 1)
	assert.Equal(t, "Resolved by merged pull request #7: https://git.example/acme/web/pull/7", tickets.comments[0].body)
	require.Len(t, notifier.posts, 1)
	assert.Equal(t, "#support", notifier.posts[0].to)
	assert.Contains(t, notifier.posts[0].text, "KAN-42")
}

func TestClosedUnmergedPullRequestIgnored(t *testing.T) {
	tickets := newFakeTickets()
	svc := NewSourceControlService(newDeps(tickets, &fakeNotifier{}, nil))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{PRAction: "closed", PRTitle: "KAN-42 try"})
	require.NoError(t, err)
	assert.Zero(t, tickets.calls)
}

func TestEventWithoutTicketKeyIgnored(t *testing.T) {
	tickets := newFakeTickets()
	svc := NewSourceControlService(newDeps(tickets, &fakeNotifier{}, nil))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{Event: "create", RefType: "branch", Ref: "chore/bump-deps"})
	require.NoError(t, err)
	assert.Zero(t, tickets.calls)
}

func TestBranchDeleteEventIgnored(t *testing.T) {
	ev := SourceControlEvent{Event: "delete", RefType: "branch", Ref: "feature/KAN-1"}
	assert.Equal(t, ActionNone, ev.Action())
}

func TestBranchEventWithoutEventNameIgnored(t *testing.T) {
	tickets := newFakeTickets()
	svc := NewSourceControlService(newDeps(tickets, &fakeNotifier{}, nil))

	ev := SourceControlEvent{RefType: "branch", Ref: "KAN-42-old"}
	assert.Equal(t, ActionNone, ev.Action())
	require.NoError(t, svc.HandleEvent(context.Background(), ev))
	assert.Zero(t, tickets.calls)
}

func TestMergedCommentWithoutNumber(t *testing.T) {
	tickets := newFakeTickets()
	svc := NewSourceControlService(newDeps(tickets, &fakeNotifier{}, nil))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{PRAction: "closed", Merged: true, PRTitle: "KAN-9", PRURL: "https://git.example/p/1"})
	require.NoError(t, err)
	require.Len(t, tickets.comments, 1)
	assert.Equal(t, "Resolved by merged pull request: https://git.example/p/1", tickets.comments[0].body)
}

func TestTransitionFailureAbortsFlow(t *testing.T) {
	tickets := newFakeTickets()
	tickets.transErr = errors.New("no transition to Done")
	notifier := &fakeNotifier{}
	svc := NewSourceControlService(newDeps(tickets, notifier, nil))

	err := svc.HandleEvent(context.Background(), SourceControlEvent{PRAction: "closed", Merged: true, PRTitle: "KAN-5"})
	require.Error(t, err)
	assert.Empty(t, tickets.comments)
	assert.Empty(t, notifier.posts)
}

func TestTicketKeyFoundInAnyFieldProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.StringMatching(`[A-Z]{2,5}-[1-9][0-9]{0,4}`).Draw(t, "key")
		slot := rapid.IntRange(0, 2).Draw(t, "slot")
		fields := []string{"feature/no-ticket", "main", "tidy up"}
		fields[slot] = "prefix " + key + " suffix"

		ev := SourceControlEvent{Ref: fields[0], HeadRef: fields[1], PRTitle: fields[2]}
		got, ok := ev.TicketKey()
		if !ok || got.String() != key {
			t.Fatalf("expected %s from slot %d, got %q (ok=%v)", key, slot, got, ok)
		}
	})
}
