package dto

// SlackEnvelope is the chat platform's event callback body.
type SlackEnvelope struct {
	Type      string      `json:"type"`
	Challenge string      `json:"challenge,omitempty"`
	EventID   string      `json:"event_id,omitempty"`
	TeamID    string      `json:"team_id,omitempty"`
	Event     *SlackEvent `json:"event,omitempty"`
}

// SlackEvent is the inner message event.
type SlackEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	BotID   string `json:"bot_id,omitempty"`
	User    string `json:"user,omitempty"`
	Text    string `json:"text"`
	Channel string `json:"channel"`
}

// GitHubPayload covers the create and pull_request webhook bodies.
type GitHubPayload struct {
	Ref         string             `json:"ref"`
	RefType     string             `json:"ref_type"`
	Action      string             `json:"action"`
	PullRequest *GitHubPullRequest `json:"pull_request"`
}

// GitHubPullRequest is the subset of a pull request the relay reads.
type GitHubPullRequest struct {
	Number  int       `json:"number"`
	Title   string    `json:"title"`
	HTMLURL string    `json:"html_url"`
	Merged  bool      `json:"merged"`
	Head    GitHubRef `json:"head"`
}

// GitHubRef names a branch.
type GitHubRef struct {
	Ref string `json:"ref"`
}

// JiraWebhook is the issue tracker's comment webhook body.
type JiraWebhook struct {
	WebhookEvent string       `json:"webhookEvent"`
	Comment      *JiraComment `json:"comment"`
	Issue        *JiraIssue   `json:"issue"`
}

// JiraComment is a tracker comment.
type JiraComment struct {
	Body   string     `json:"body"`
	Author JiraAuthor `json:"author"`
}

// JiraAuthor is a comment author.
type JiraAuthor struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// JiraIssue is the commented issue.
type JiraIssue struct {
	Key    string          `json:"key"`
	Fields JiraIssueFields `json:"fields"`
}

// JiraIssueFields holds the issue fields the relay reads.
type JiraIssueFields struct {
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
}

// TranscriptRequest carries meeting notes.
type TranscriptRequest struct {
	Transcript *string `json:"transcript"`
}

// WebhookResponse is the synchronous acknowledgment.
type WebhookResponse struct {
	Status string `json:"status"`
}

// ChallengeResponse answers a url_verification request.
type ChallengeResponse struct {
	Challenge string `json:"challenge"`
}
