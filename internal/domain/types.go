package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type Plan string

const (
	PlanFree Plan = "Free"
	PlanPro  Plan = "Pro"
	PlanVIP  Plan = "VIP"
)

// ParsePlan validates a plan name supplied by a client.
func ParsePlan(raw string) (Plan, bool) {
	switch Plan(raw) {
	case PlanFree, PlanPro, PlanVIP:
		return Plan(raw), true
	default:
		return "", false
	}
}

type NoteKind string

const (
	KindNote NoteKind = "note"
	KindTodo NoteKind = "todo"
	KindFile NoteKind = "file"
)

type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

type User struct {
	ID             uint      `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePhoto   string    `json:"profile_photo,omitempty"`
	Role           UserRole  `json:"role"`
	Plan           Plan      `json:"plan"`
	AIUsageCount   int       `json:"ai_usage_count"`
	YouTubeChannel string    `json:"youtube_channel,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Note content is stored encrypted when Secret is set and a password was
// supplied at creation time; Locked marks responses whose content was withheld.
type Note struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content,omitempty"`
	Secret         bool      `json:"is_secret"`
	SecretPassword string    `json:"-"`
	Kind           NoteKind  `json:"type"`
	Locked         bool      `json:"locked,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Activity struct {
	ID        uint              `json:"id"`
	UserID    uint              `json:"user_id"`
	Action    string            `json:"action"`
	Details   string            `json:"details,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

type FriendLink struct {
	ID        uint         `json:"id"`
	UserID    uint         `json:"user_id"`
	FriendID  uint         `json:"friend_id"`
	Status    FriendStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}

// Stats is the admin overview of stored row counts.
type Stats struct {
	Users      int64 `json:"users"`
	Notes      int64 `json:"notes"`
	Activities int64 `json:"activities"`
}
