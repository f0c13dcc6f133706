package model

import "time"

// CanonicalUser is the durable identity record every raw identifier resolves to.
// CanonicalID is the partition key for all per-user state.
type CanonicalUser struct {
	CanonicalID  string    `json:"canonicalId"`
	Aliases      []string  `json:"aliases"`
	CreationTime time.Time `json:"creationTime"`
}

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ConversationTurn is a single chat message in a user's history or journal.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// JournalEntry holds the turns and optional summary for one user on one
// calendar date. Date uses the ISO-8601 form YYYY-MM-DD.
type JournalEntry struct {
	Date     string             `json:"date"`
	Messages []ConversationTurn `json:"messages"`
	Summary  *string            `json:"summary,omitempty"`
}

// JournalDay is the per-date diagnostic shape: counts only, no message bodies.
type JournalDay struct {
	Date         string `json:"date"`
	MessageCount int    `json:"messageCount"`
	HasSummary   bool   `json:"hasSummary"`
}

// JournalOverview aggregates a user's journal for diagnostics.
type JournalOverview struct {
	UserID     string       `json:"userId"`
	TotalDates int          `json:"totalDates"`
	Dates      []string     `json:"dates"`
	Entries    []JournalDay `json:"entries"`
}

// AIIdentity is the singleton persona record. Absence is a valid state
// ("not yet bootstrapped"), reported as ErrNotFound by the persona store.
type AIIdentity struct {
	Name            string   `json:"name"`
	Creature        string   `json:"creature"`
	Traits          []string `json:"traits,omitempty"`
	Voice           string   `json:"voice,omitempty"`
	ShowDebug       bool     `json:"showDebug"`
	BackgroundAudio bool     `json:"backgroundAudio"`
}

// ResetScope selects which persisted state a reset clears.
type ResetScope string

const (
	ResetAll  ResetScope = "all"
	ResetAI   ResetScope = "ai"
	ResetUser ResetScope = "user"
)

// ResetRequest targets a reset. UserID is a canonical id and only matters for
// the "user" and "all" scopes.
type ResetRequest struct {
	UserID string     `json:"userId,omitempty"`
	Scope  ResetScope `json:"resetType,omitempty"`
}

// ResetStep reports the outcome of one sub-operation of a reset.
type ResetStep struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ResetResult reports per-step outcomes so callers can tell a partial failure
// apart from total success or total failure.
type ResetResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Steps   []ResetStep `json:"steps"`
}
