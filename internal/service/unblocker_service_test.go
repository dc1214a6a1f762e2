package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/events"
)

func blockerComment(body string) TrackerComment {
	return TrackerComment{
		WebhookEvent: "comment_created",
		IssueKey:     "KAN-42",
		IssueStatus:  "In Progress",
		Body:         body,
		AuthorName:   "Alice",
	}
}

func newUnblocker() (*UnblockerService, *fakeTickets, *fakeNotifier, *fakeScheduler, *recordingDispatcher) {
	tickets := newFakeTickets()
	tickets.users["u-bob"] = &domain.TrackerUser{AccountID: "u-bob", Email: "bob@example.com", DisplayName: "Bob"}
	tickets.users["u-carol"] = &domain.TrackerUser{AccountID: "u-carol", Email: "carol@example.com"}
	tickets.users["u-ghost"] = &domain.TrackerUser{AccountID: "u-ghost"}
	notifier := &fakeNotifier{}
	scheduler := &fakeScheduler{}
	dispatcher := &recordingDispatcher{}
	svc := NewUnblockerService(newDeps(tickets, notifier, dispatcher), scheduler)
	return svc, tickets, notifier, scheduler, dispatcher
}

func TestUnblockerAlertsEachDistinctMention(t *testing.T) {
	svc, _, notifier, scheduler, dispatcher := newUnblocker()

	body := "Blocked by [~accountid:u-bob] and [~accountid:u-carol], ping [~accountid:u-bob] again"
	require.NoError(t, svc.HandleComment(context.Background(), blockerComment(body)))

	require.Len(t, notifier.dms, 2)
	assert.Equal(t, "bob@example.com", notifier.dms[0].to)
	assert.Equal(t, "carol@example.com", notifier.dms[1].to)
	assert.Contains(t, notifier.dms[0].text, "KAN-42")
	assert.NotContains(t, notifier.dms[0].text, "accountid")

	require.Len(t, scheduler.requests, 2)
	for _, req := range scheduler.requests {
		assert.Equal(t, domain.TicketKey("KAN-42"), req.TicketKey)
		assert.Equal(t, "In Progress", req.BaselineStatus)
		assert.Equal(t, "#ops-alerts", req.Channel)
		assert.Equal(t, "Alice", req.Context.Author)
	}
	assert.Equal(t, "u-carol", scheduler.requests[1].Context.MentionedID)
	assert.Equal(t, []events.EventType{events.EventBlockerDetected, events.EventBlockerDetected}, dispatcher.types())
}

func TestUnblockerSkipsUnresolvableAccounts(t *testing.T) {
	svc, _, notifier, scheduler, _ := newUnblocker()

	body := "waiting on [~accountid:u-ghost] and [~accountid:u-unknown]"
	require.NoError(t, svc.HandleComment(context.Background(), blockerComment(body)))

	assert.Empty(t, notifier.dms)
	assert.Empty(t, scheduler.requests)
}

func TestUnblockerRequiresKeywordAndMention(t *testing.T) {
	svc, tickets, notifier, scheduler, _ := newUnblocker()

	require.NoError(t, svc.HandleComment(context.Background(), blockerComment("blocked by the vendor")))
	require.NoError(t, svc.HandleComment(context.Background(), blockerComment("thanks [~accountid:u-bob]!")))

	assert.Zero(t, tickets.calls)
	assert.Empty(t, notifier.dms)
	assert.Empty(t, scheduler.requests)
}

func TestUnblockerIgnoresOtherWebhookEvents(t *testing.T) {
	svc, tickets, _, _, _ := newUnblocker()
	c := blockerComment("blocked by [~accountid:u-bob]")
	c.WebhookEvent = "comment_updated"

	require.NoError(t, svc.HandleComment(context.Background(), c))
	assert.Zero(t, tickets.calls)
}

func TestUnblockerReadsBaselineWhenPayloadHasNoStatus(t *testing.T) {
	svc, tickets, _, scheduler, _ := newUnblocker()
	tickets.issues["KAN-42"] = &domain.Issue{Key: "KAN-42", Status: "Review"}
	c := blockerComment("depends on [~accountid:u-bob]")
	c.IssueStatus = ""

	require.NoError(t, svc.HandleComment(context.Background(), c))
	require.Len(t, scheduler.requests, 1)
	assert.Equal(t, "Review", scheduler.requests[0].BaselineStatus)
}

func TestUnblockerStillSchedulesWhenChatUserMissing(t *testing.T) {
	svc, _, notifier, scheduler, _ := newUnblocker()
	notifier.known = map[string]bool{}

	require.NoError(t, svc.HandleComment(context.Background(), blockerComment("blocked on [~accountid:u-bob]")))
	assert.Empty(t, notifier.dms)
	assert.Len(t, scheduler.requests, 1)
}

func TestUnblockerUserLookupFailureAborts(t *testing.T) {
	svc, tickets, notifier, scheduler, _ := newUnblocker()
	tickets.userErr = errors.New("tracker down")

	err := svc.HandleComment(context.Background(), blockerComment("blocked by [~accountid:u-bob]"))
	require.Error(t, err)
	assert.Empty(t, notifier.dms)
	assert.Empty(t, scheduler.requests)
}

func TestBlockersNeedBothSignalsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		withKeyword := rapid.Bool().Draw(t, "keyword")
		ids := rapid.SliceOfDistinct(rapid.StringMatching(`[a-z0-9]{3,8}`), func(s string) string { return s }).Draw(t, "ids")

		parts := []string{"status update"}
		if withKeyword {
			parts = append(parts, rapid.SampledFrom(domain.BlockerKeywords).Draw(t, "kw"))
		}
		for _, id := range ids {
			parts = append(parts, fmt.Sprintf("[~accountid:%s]", id))
		}
		got := blockerComment(strings.Join(parts, " ")).Blockers()

		want := 0
		if withKeyword && len(ids) > 0 {
			want = len(ids)
		}
		if len(got) != want {
			t.Fatalf("keyword=%v mentions=%d: got %d blockers, want %d", withKeyword, len(ids), len(got), want)
		}
	})
}
