package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/relay-service/internal/domain"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "bot@example.com", "token", srv.Client())
}

func TestCreateIssue(t *testing.T) {
	var got map[string]map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "bot@example.com", user)
		assert.Equal(t, "token", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"KAN-7"}`))
	})

	issue, err := client.CreateIssue(context.Background(), domain.IssueInput{
		ProjectKey: "KAN", Summary: "Login broken", Description: "details", IssueType: domain.IssueTypeTask,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketKey("KAN-7"), issue.Key)
	assert.Equal(t, client.baseURL+"/browse/KAN-7", issue.URL)
	assert.Equal(t, map[string]any{"key": "KAN"}, got["fields"]["project"])
	assert.Equal(t, map[string]any{"name": "Task"}, got["fields"]["issuetype"])
}

func TestTransitionIssueMatchesTargetStatus(t *testing.T) {
	var posted map[string]map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/2/issue/KAN-42/transitions", r.URL.Path)
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"transitions":[{"id":"11","name":"Start","to":{"name":"In Progress"}},{"id":"31","name":"Finish","to":{"name":"Done"}}]}`))
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.TransitionIssue(context.Background(), "KAN-42", "Done"))
	assert.Equal(t, "31", posted["transition"]["id"])
}

func TestTransitionIssueNoMatchingTransition(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transitions":[{"id":"11","name":"Start","to":{"name":"In Progress"}}]}`))
	})

	err := client.TransitionIssue(context.Background(), "KAN-42", "Done")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeGateway))
}

func TestGetIssueReadsStatusAndAssignee(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "summary,status,assignee", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"key":"KAN-42","fields":{"summary":"Login","status":{"name":"In Progress"},"assignee":{"accountId":"a1","emailAddress":"dev@example.com","displayName":"Dev"}}}`))
	})

	issue, err := client.GetIssue(context.Background(), "KAN-42")
	require.NoError(t, err)
	assert.Equal(t, "In Progress", issue.Status)
	require.NotNil(t, issue.Assignee)
	assert.Equal(t, "dev@example.com", issue.Assignee.Email)
}

func TestGetUserNotFoundIsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	user, err := client.GetUser(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSearchIssuesCapsResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/search", r.URL.Path)
		assert.Equal(t, `text ~ "login page" ORDER BY updated DESC`, r.URL.Query().Get("jql"))
		assert.Equal(t, "3", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"issues":[{"key":"KAN-1"},{"key":"KAN-2"},{"key":"KAN-3"},{"key":"KAN-4"}]}`))
	})

	issues, err := client.SearchIssues(context.Background(), "login page")
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, domain.TicketKey("KAN-1"), issues[0].Key)
}

func TestErrorMessagesSurface(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["Field 'issuetype' is invalid"]}`))
	})

	err := client.AddComment(context.Background(), "KAN-1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issuetype")
}

func TestSearchJQLEscapesQuotes(t *testing.T) {
	assert.Equal(t, `text ~ "say \"hi\"" ORDER BY updated DESC`, SearchJQL(` say "hi" `))
}
