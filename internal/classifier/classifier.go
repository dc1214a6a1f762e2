// Package classifier turns free text into structured intents using a
// text-generation model, validating every response against a fixed schema.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/relay-service/internal/domain"
	"github.com/spec-kit/relay-service/internal/gateway"
	apperrors "github.com/spec-kit/relay-service/pkg/util/errorutil"
)

// Classifier wraps a TextCompleter with per-use-case prompts and decoding.
type Classifier struct {
	completer gateway.TextCompleter
	timeout   time.Duration
	logger    *zap.Logger
}

// New builds a Classifier. A zero timeout means the caller's context governs.
func New(completer gateway.TextCompleter, timeout time.Duration, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{completer: completer, timeout: timeout, logger: logger}
}

// ClassifyBugReport extracts a ticket from a chat message. Every field is required.
func (c *Classifier) ClassifyBugReport(ctx context.Context, text string) (domain.BugReport, error) {
	raw, err := c.complete(ctx, bugReportSystemPrompt, text)
	if err != nil {
		return domain.BugReport{}, err
	}
	report, err := DecodeBugReport(raw)
	if err != nil {
		c.logger.Warn("bug report classification rejected", zap.Error(err), zap.String("response", domain.Excerpt(raw, 300)))
		return domain.BugReport{}, err
	}
	return report, nil
}

// ClassifyTranscript extracts the meeting's intent. PAUSE_ISSUE is only
// returned when its ticket key appears verbatim in text.
func (c *Classifier) ClassifyTranscript(ctx context.Context, text string) (domain.TranscriptIntent, error) {
	raw, err := c.complete(ctx, transcriptSystemPrompt, "Transcript:\n"+text)
	if err != nil {
		return domain.TranscriptIntent{}, err
	}
	intent, err := DecodeTranscriptIntent(raw, text)
	if err != nil {
		c.logger.Warn("transcript classification rejected", zap.Error(err), zap.String("response", domain.Excerpt(raw, 300)))
		return domain.TranscriptIntent{}, err
	}
	return intent, nil
}

func (c *Classifier) complete(ctx context.Context, system, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.completer.Complete(ctx, system, prompt)
	if err != nil {
		return "", apperrors.NewClassificationError("classifier call failed", err)
	}
	return raw, nil
}

type bugReportWire struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	ProjectKey  *string `json:"projectKey"`
	IssueType   *string `json:"issueType"`
}

// DecodeBugReport parses a model reply into a BugReport.
func DecodeBugReport(raw string) (domain.BugReport, error) {
	var wire bugReportWire
	if err := decodeObject(raw, &wire); err != nil {
		return domain.BugReport{}, err
	}

	missing := missingFields(map[string]*string{
		"summary":     wire.Summary,
		"description": wire.Description,
		"projectKey":  wire.ProjectKey,
		"issueType":   wire.IssueType,
	})
	if len(missing) > 0 {
		return domain.BugReport{}, missingErr(missing)
	}

	issueType := domain.IssueType(strings.TrimSpace(*wire.IssueType))
	if !issueType.Valid() {
		return domain.BugReport{}, apperrors.NewClassificationError("classifier returned unsupported issue type", fmt.Errorf("%q", issueType))
	}
	return domain.BugReport{
		Summary:     strings.TrimSpace(*wire.Summary),
		Description: strings.TrimSpace(*wire.Description),
		ProjectKey:  strings.TrimSpace(*wire.ProjectKey),
		IssueType:   issueType,
	}, nil
}

type transcriptWire struct {
	Intent     *string         `json:"intent"`
	Confidence *string         `json:"confidence"`
	Details    json.RawMessage `json:"details"`
}

type transcriptDetailsWire struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	IssueType   *string `json:"issueType"`
	SearchQuery *string `json:"searchQuery"`
	Comment     *string `json:"comment"`
	TicketKey   *string `json:"ticketKey"`
	Reason      *string `json:"reason"`
}

// DecodeTranscriptIntent parses a model reply. source is the transcript the
// reply was produced from; it is used to confirm PAUSE_ISSUE ticket keys.
func DecodeTranscriptIntent(raw, source string) (domain.TranscriptIntent, error) {
	var wire transcriptWire
	if err := decodeObject(raw, &wire); err != nil {
		return domain.TranscriptIntent{}, err
	}
	if missing := missingFields(map[string]*string{"intent": wire.Intent, "confidence": wire.Confidence}); len(missing) > 0 {
		return domain.TranscriptIntent{}, missingErr(missing)
	}

	kind := domain.IntentKind(strings.ToUpper(strings.TrimSpace(*wire.Intent)))
	if !kind.Valid() {
		return domain.TranscriptIntent{}, apperrors.NewClassificationError("classifier returned unknown intent", fmt.Errorf("%q", *wire.Intent))
	}
	confidence := domain.Confidence(strings.ToLower(strings.TrimSpace(*wire.Confidence)))
	if !confidence.Valid() {
		return domain.TranscriptIntent{}, apperrors.NewClassificationError("classifier returned unknown confidence", fmt.Errorf("%q", *wire.Confidence))
	}

	intent := domain.TranscriptIntent{Kind: kind, Confidence: confidence}
	if kind == domain.IntentNone {
		return intent, nil
	}

	var details transcriptDetailsWire
	if len(wire.Details) == 0 || string(wire.Details) == "null" {
		return domain.TranscriptIntent{}, missingErr([]string{"details"})
	}
	if err := json.Unmarshal(wire.Details, &details); err != nil {
		return domain.TranscriptIntent{}, apperrors.NewClassificationError("classifier details are not an object", err)
	}

	switch kind {
	case domain.IntentCreateIssue:
		if missing := missingFields(map[string]*string{
			"details.summary":     details.Summary,
			"details.description": details.Description,
			"details.issueType":   details.IssueType,
		}); len(missing) > 0 {
			return domain.TranscriptIntent{}, missingErr(missing)
		}
		issueType := domain.IssueType(strings.TrimSpace(*details.IssueType))
		if !issueType.Valid() {
			return domain.TranscriptIntent{}, apperrors.NewClassificationError("classifier returned unsupported issue type", fmt.Errorf("%q", issueType))
		}
		intent.Create = &domain.CreateIssueDetails{
			Summary:     strings.TrimSpace(*details.Summary),
			Description: strings.TrimSpace(*details.Description),
			IssueType:   issueType,
		}
	case domain.IntentAddComment:
		if missing := missingFields(map[string]*string{
			"details.searchQuery": details.SearchQuery,
			"details.comment":     details.Comment,
		}); len(missing) > 0 {
			return domain.TranscriptIntent{}, missingErr(missing)
		}
		intent.Comment = &domain.AddCommentDetails{
			SearchQuery: strings.TrimSpace(*details.SearchQuery),
			Comment:     strings.TrimSpace(*details.Comment),
		}
	case domain.IntentPauseIssue:
		if missing := missingFields(map[string]*string{
			"details.ticketKey": details.TicketKey,
			"details.reason":    details.Reason,
		}); len(missing) > 0 {
			return domain.TranscriptIntent{}, missingErr(missing)
		}
		key, ok := domain.ParseTicketKey(*details.TicketKey)
		if !ok || !domain.ContainsTicketKey(source, key) {
			return downgradePause(intent, details), nil
		}
		intent.Pause = &domain.PauseIssueDetails{TicketKey: key, Reason: strings.TrimSpace(*details.Reason)}
	}
	return intent, nil
}

// downgradePause rewrites a PAUSE_ISSUE without an explicit key as ADD_COMMENT.
func downgradePause(intent domain.TranscriptIntent, details transcriptDetailsWire) domain.TranscriptIntent {
	reason := strings.TrimSpace(*details.Reason)
	query := reason
	if details.SearchQuery != nil && strings.TrimSpace(*details.SearchQuery) != "" {
		query = strings.TrimSpace(*details.SearchQuery)
	}
	intent.Kind = domain.IntentAddComment
	intent.Pause = nil
	intent.Comment = &domain.AddCommentDetails{SearchQuery: query, Comment: "Paused: " + reason}
	return intent
}

// decodeObject extracts the first JSON object in raw, tolerating code fences
// and surrounding prose, and decodes it into out.
func decodeObject(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return apperrors.NewClassificationError("classifier reply contains no JSON object", errors.New(domain.Excerpt(raw, 80)))
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), out); err != nil {
		return apperrors.NewClassificationError("classifier reply is not valid JSON", err)
	}
	return nil
}

func missingFields(fields map[string]*string) []string {
	var missing []string
	for name, value := range fields {
		if value == nil || strings.TrimSpace(*value) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func missingErr(fields []string) error {
	sort.Strings(fields)
	return apperrors.NewClassificationError("classifier reply missing required fields", fmt.Errorf("%s", strings.Join(fields, ", ")))
}
