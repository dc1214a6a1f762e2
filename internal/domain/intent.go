package domain

// BugReport is the structured form of a free-text bug report.
type BugReport struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	ProjectKey  string    `json:"projectKey"`
	IssueType   IssueType `json:"issueType"`
}

// IntentKind is the purpose detected in a meeting transcript.
type IntentKind string

const (
	IntentCreateIssue IntentKind = "CREATE_ISSUE"
	IntentAddComment  IntentKind = "ADD_COMMENT"
	IntentPauseIssue  IntentKind = "PAUSE_ISSUE"
	IntentNone        IntentKind = "NONE"
)

// Valid reports whether k is a known intent.
func (k IntentKind) Valid() bool {
	switch k {
	case IntentCreateIssue, IntentAddComment, IntentPauseIssue, IntentNone:
		return true
	}
	return false
}

// Confidence is the classifier's self-reported certainty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// CreateIssueDetails accompany IntentCreateIssue.
type CreateIssueDetails struct {
	Summary     string
	Description string
	IssueType   IssueType
}

// AddCommentDetails accompany IntentAddComment.
type AddCommentDetails struct {
	SearchQuery string
	Comment     string
}

// PauseIssueDetails accompany IntentPauseIssue.
type PauseIssueDetails struct {
	TicketKey TicketKey
	Reason    string
}

// TranscriptIntent is a classified transcript. Exactly one details pointer
// is set, matching Kind; none is set for IntentNone.
type TranscriptIntent struct {
	Kind       IntentKind
	Confidence Confidence
	Create     *CreateIssueDetails
	Comment    *AddCommentDetails
	Pause      *PauseIssueDetails
}

// Actionable reports whether the router should act on the intent.
func (i TranscriptIntent) Actionable() bool {
	return i.Confidence == ConfidenceHigh && i.Kind != IntentNone
}
