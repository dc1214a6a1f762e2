package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/relay-service/internal/config"
	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/escalation"
	"github.com/spec-kit/relay-service/internal/events"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

var testRouting = config.RoutingConfig{
	DefaultProject: "KAN",
	SupportChannel: "#support",
	UpdatesChannel: "#project-updates",
	OpsChannel:     "#ops-alerts",
}

type transition struct {
	key    domain.TicketKey
	status string
}

type comment struct {
	key  domain.TicketKey
	body string
}

type fakeTickets struct {
	mu          sync.Mutex
	nextID      int
	created     []domain.IssueInput
	transitions []transition
	comments    []comment
	searches    []string
	issues      map[domain.TicketKey]*domain.Issue
	users       map[string]*domain.TrackerUser
	results     []domain.Issue
	createErr   error
	transErr    error
	userErr     error
	calls       int
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{
		nextID: 100,
		issues: make(map[domain.TicketKey]*domain.Issue),
		users:  make(map[string]*domain.TrackerUser),
	}
}

func (f *fakeTickets) CreateIssue(_ context.Context, input domain.IssueInput) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, input)
	f.nextID++
	key := domain.TicketKey(fmt.Sprintf("%s-%d", input.ProjectKey, f.nextID))
	issue := &domain.Issue{Key: key, Summary: input.Summary, Status: "To Do", URL: "https://tracker.example/browse/" + key.String()}
	f.issues[key] = issue
	return issue, nil
}

func (f *fakeTickets) GetIssue(_ context.Context, key domain.TicketKey) (*domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	issue, ok := f.issues[key]
	if !ok {
		return nil, apperrors.NewNotFound("issue", map[string]any{"key": key})
	}
	cp := *issue
	return &cp, nil
}

func (f *fakeTickets) TransitionIssue(_ context.Context, key domain.TicketKey, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.transErr != nil {
		return f.transErr
	}
	f.transitions = append(f.transitions, transition{key, status})
	return nil
}

func (f *fakeTickets) AddComment(_ context.Context, key domain.TicketKey, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.comments = append(f.comments, comment{key, body})
	return nil
}

func (f *fakeTickets) GetUser(_ context.Context, accountID string) (*domain.TrackerUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.users[accountID], nil
}

func (f *fakeTickets) SearchIssues(_ context.Context, query string) ([]domain.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.searches = append(f.searches, query)
	return f.results, nil
}

type message struct {
	to   string
	text string
}

type fakeNotifier struct {
	mu      sync.Mutex
	posts   []message
	dms     []message
	known   map[string]bool
	postErr error
}

func (f *fakeNotifier) PostMessage(_ context.Context, channel, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posts = append(f.posts, message{channel, text})
	return nil
}

func (f *fakeNotifier) SendDirectMessage(_ context.Context, email, text string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.known != nil && !f.known[email] {
		return false, nil
	}
	f.dms = append(f.dms, message{email, text})
	return true, nil
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeScheduler struct {
	requests []escalation.Request
}

func (f *fakeScheduler) Schedule(req escalation.Request) (domain.EscalationJob, error) {
	f.requests = append(f.requests, req)
	return domain.EscalationJob{ID: fmt.Sprintf("job-%d", len(f.requests)), TicketKey: req.TicketKey, State: domain.EscalationPending}, nil
}

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		out = append(out, e.Type)
	}
	return out
}

func newDeps(tickets *fakeTickets, notifier *fakeNotifier, dispatcher events.Dispatcher) RelayDependencies {
	return RelayDependencies{
		Tickets:    tickets,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Routing:    testRouting,
	}
}
