package model

import "time"

// Kind is the type of a punch. The valid values are the Kind* constants;
// anything else can only enter through untyped boundaries (files, remote rows).
type Kind string

const (
	KindIn         Kind = "in"
	KindStartBreak Kind = "start-break"
	KindEndBreak   Kind = "end-break"
	KindOut        Kind = "out"
)

// Punch is a single recorded clock event.
type Punch struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Kind       Kind      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id,omitempty"`
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    string  `json:"date"`
	Punches []Punch `json:"punches"`
}

// Role distinguishes managers from regular employees.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Employee is a registered person who can record punches.
type Employee struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	WorkEmail string    `json:"work_email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// HasLocation reports whether both coordinates were captured.
func (p Punch) HasLocation() bool {
	return p.Latitude != nil && p.Longitude != nil
}
