package domain

import (
	"regexp"
	"strings"
)

// TicketKey identifies an issue in the tracker, e.g. "KAN-42".
type TicketKey string

var (
	ticketKeyPattern = regexp.MustCompile(`[A-Z][A-Z0-9]*-[0-9]+`)
	ticketKeyExact   = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9]+$`)
)

// ParseTicketKey validates a full ticket key.
func ParseTicketKey(raw string) (TicketKey, bool) {
	raw = strings.TrimSpace(raw)
	if !ticketKeyExact.MatchString(raw) {
		return "", false
	}
	return TicketKey(raw), true
}

// FindTicketKey returns the first key found scanning the candidates in order.
// Absence of a match is a normal outcome.
func FindTicketKey(candidates ...string) (TicketKey, bool) {
	for _, candidate := range candidates {
		if match := ticketKeyPattern.FindString(candidate); match != "" {
			return TicketKey(match), true
		}
	}
	return "", false
}

// ContainsTicketKey reports whether key appears verbatim in text.
func ContainsTicketKey(text string, key TicketKey) bool {
	if key == "" {
		return false
	}
	for _, match := range ticketKeyPattern.FindAllString(text, -1) {
		if TicketKey(match) == key {
			return true
		}
	}
	return false
}

func (k TicketKey) String() string { return string(k) }

// Well-known workflow status names targeted by the source-control flow.
const (
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// IssueType enumerates the issue types the classifier may choose.
type IssueType string

const (
	IssueTypeEpic    IssueType = "Epic"
	IssueTypeFeature IssueType = "Feature"
	IssueTypeTask    IssueType = "Task"
)

// Valid reports whether t is one of the supported issue types.
func (t IssueType) Valid() bool {
	switch t {
	case IssueTypeEpic, IssueTypeFeature, IssueTypeTask:
		return true
	}
	return false
}

// IssueInput describes a ticket to create.
type IssueInput struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   IssueType
}

// Issue is the tracker's view of a ticket.
type Issue struct {
	Key      TicketKey
	Summary  string
	Status   string
	Assignee *TrackerUser
	URL      string
}

// TrackerUser is an account resolved from the issue tracker.
type TrackerUser struct {
	AccountID   string
	Email       string
	DisplayName string
}

// HasAddress reports whether the user can be reached by direct message.
func (u *TrackerUser) HasAddress() bool {
	return u != nil && strings.TrimSpace(u.Email) != ""
}
