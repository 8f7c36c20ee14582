package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category represents the kind of resource an audit event concerns.
type Category string

const (
	CategoryConference   Category = "conference"
	CategorySchedule     Category = "schedule"
	CategoryRoom         Category = "room"
	CategoryTrack        Category = "track"
	CategoryTrackSession Category = "track_session"
	CategorySecurity     Category = "security"
	CategorySystem       Category = "system"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
	ActionPrune  Action = "prune"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Label is the category in prose, e.g. "track session".
func (c Category) Label() string {
	return strings.ReplaceAll(string(c), "_", " ")
}

// PastTense renders the action for notices, e.g. "updated".
func (a Action) PastTense() string {
	switch a {
	case ActionLogin:
		return "logged in"
	case ActionLogout:
		return "logged out"
	}
	s := string(a)
	if strings.HasSuffix(s, "e") {
		return s + "d"
	}
	return s + "ed"
}

// Mutating reports whether a changes schedule data.
func (a Action) Mutating() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Event represents a single audit log entry.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorEmail   string    `json:"actor_email"`
	ActorRole    string    `json:"actor_role"`
	ResourceID   string    `json:"resource_id"`
	ResourceType string    `json:"resource_type"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Metadata     string    `json:"metadata"`
}

// NewEvent creates a new audit event stamped with now.
// PRE: actorEmail and action are non-empty
// POST: Returns an Event with a fresh ID and info severity
func NewEvent(actorEmail, actorRole string, category Category, action Action, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Action:     action,
		Severity:   SeverityInfo,
		ActorEmail: actorEmail,
		ActorRole:  actorRole,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
// PRE: resourceType is non-empty
// POST: Event resource fields are populated
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
// POST: Event metadata is set
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
