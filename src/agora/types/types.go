package types

import "time"

// Role is the single role enumeration used everywhere. Registration and
// authorization checks share these literals; there is no second "official"
// spelling floating around.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "Public_officer"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleOfficer
}

type PetitionStatus string

const (
	StatusActive      PetitionStatus = "Active"
	StatusUnderReview PetitionStatus = "Under_Review"
	StatusClosed      PetitionStatus = "Closed"
)

func (s PetitionStatus) Valid() bool {
	return s == StatusActive || s == StatusUnderReview || s == StatusClosed
}

// CanTransition reports whether an officer-driven status change from -> to is
// allowed. Nothing leaves Closed.
func CanTransition(from, to PetitionStatus) bool {
	switch from {
	case StatusActive:
		return to == StatusUnderReview || to == StatusClosed
	case StatusUnderReview:
		return to == StatusClosed
	}
	return false
}

// VoteDirection is a comment vote. A user holds at most one per comment.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Users
type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Email     string    `gorm:"size:256;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:128;not null" json:"-"`
	Location  string    `gorm:"size:128" json:"location"`
	Role      Role      `gorm:"size:32;not null;default:citizen" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Petitions
type Petition struct {
	ID            uint64         `gorm:"primaryKey" json:"id"`
	AuthorID      uint64         `gorm:"index;not null" json:"author"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Category      string         `gorm:"size:64;index" json:"category"`
	Location      string         `gorm:"size:128;index" json:"location"`
	SignatureGoal uint32         `gorm:"not null" json:"signatureGoal"`
	Status        PetitionStatus `gorm:"size:32;not null;default:Active" json:"status"`
	CreatedAt     time.Time      `json:"date"`
}

// Petition signatures. The composite primary key makes "sign once" a
// constraint, not a read-modify-write check.
type Signature struct {
	PetitionID uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID     uint64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt  time.Time
}

// Comments and replies, adjacency list. ParentID nil means top level.
// Nesting depth is unbounded in the data model.
type Comment struct {
	ID         uint64  `gorm:"primaryKey"`
	PetitionID uint64  `gorm:"index;not null"`
	ParentID   *uint64 `gorm:"index"`
	UserID     uint64  `gorm:"not null"`
	Body       string  `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

// Comment votes. One row per (comment, user) makes up/down mutual exclusion
// structural: toggling is an upsert of the direction column.
type CommentVote struct {
	CommentID uint64        `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64        `gorm:"primaryKey;autoIncrement:false"`
	Direction VoteDirection `gorm:"size:8;not null"`
	UpdatedAt time.Time
}

// Polls
type Poll struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	CreatedBy      uint64     `gorm:"index;not null" json:"createdBy"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	TargetLocation string     `gorm:"size:128;index" json:"targetLocation"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type PollOption struct {
	ID       uint64 `gorm:"primaryKey" json:"-"`
	PollID   uint64 `gorm:"index;not null" json:"-"`
	Position uint8  `gorm:"not null" json:"-"`
	Text     string `gorm:"size:255;not null" json:"optionText"`
	Votes    uint32 `gorm:"not null;default:0" json:"votes"`
}

type PollVoter struct {
	PollID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

// Notifications
type Notification struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"index;not null" json:"user"`
	Message   string    `gorm:"size:512;not null" json:"message"`
	Link      string    `gorm:"size:256" json:"link,omitempty"`
	IsRead    bool      `gorm:"default:false" json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Settings
type Setting struct {
	ID    uint8  `gorm:"primaryKey"`
	Name  string `gorm:"size:32;not null"`
	Value string `gorm:"size:256;not null"`
}

// Models is every table the API migrates at boot.
func Models() []any {
	return []any{
		&User{}, &Petition{}, &Signature{}, &Comment{}, &CommentVote{},
		&Poll{}, &PollOption{}, &PollVoter{}, &Notification{}, &Setting{},
	}
}
