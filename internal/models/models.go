package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// StringList is stored as a single comma-joined column but marshals
// as a JSON array. Used for project tags and request requirements.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

func (l *StringList) Scan(v any) error {
	switch s := v.(type) {
	case nil:
		*l = nil
	case string:
		if s == "" {
			*l = nil
		} else {
			*l = strings.Split(s, ",")
		}
	case []byte:
		return l.Scan(string(s))
	default:
		return fmt.Errorf("cannot scan %T into StringList", v)
	}
	return nil
}

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	RequestStatusPending   = "pending"
	RequestStatusResponded = "responded"
	RequestStatusAccepted  = "accepted"
	RequestStatusRejected  = "rejected"
)

// Branches recognised by the catalog. "All Branches" is a filter
// sentinel, not a real branch.
var Branches = []string{
	"Computer Science Engineering",
	"Electronics and Communication Engineering",
	"Mechanical Engineering",
	"Civil Engineering",
	"Electrical Engineering",
}

const AllBranches = "All Branches"

func ValidBranch(b string) bool {
	for _, known := range Branches {
		if b == known {
			return true
		}
	}
	return false
}

type Project struct {
	ID          int        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"not null"                 json:"title"`
	Description string     `gorm:"not null"                 json:"description"`
	Branch      string     `gorm:"index;not null"           json:"branch"`
	Tags        StringList `gorm:"type:text"                json:"tags"`
	IsFeatured  bool       `gorm:"default:false"            json:"isFeatured"`
	Approved    bool       `gorm:"default:true"             json:"approved"`
	Price       float64    `json:"price"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:student" json:"role"`
	Phone        string `json:"phone,omitempty"`
	College      string `json:"college,omitempty"`
	Branch       string `json:"branch,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Order struct {
	ID            string  `gorm:"primaryKey"     json:"id"`
	ProjectID     int     `gorm:"not null"       json:"projectId"`
	UserID        uint    `gorm:"index;not null" json:"userId"`
	Amount        float64 `gorm:"not null"       json:"amount"`
	Status        string  `gorm:"not null"       json:"status"`
	PaymentMethod string  `json:"paymentMethod"`
	CancelReason  string  `json:"cancelReason,omitempty"`
	CreatedAt     int64   `gorm:"not null"       json:"createdAt"`
	UpdatedAt     int64   `gorm:"not null"       json:"updatedAt"`
}

// Terminal reports whether no further status transition is allowed.
// Only cancelled is terminal; completed orders can still be cancelled
// (refund flow).
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusCancelled
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type ProjectRequest struct {
	ID           string         `gorm:"primaryKey"     json:"id"`
	UserID       uint           `gorm:"index;not null" json:"userId"`
	Title        string         `gorm:"not null"       json:"title"`
	Description  string         `json:"description"`
	Branch       string         `json:"branch"`
	Budget       float64        `json:"budget"`
	Deadline     string         `json:"deadline"`
	Requirements StringList     `gorm:"type:text"      json:"requirements"`
	Status       string         `gorm:"not null"       json:"status"`
	Response     datatypes.JSON `json:"response,omitempty"`
	CreatedAt    int64          `gorm:"not null"       json:"createdAt"`
	UpdatedAt    int64          `gorm:"not null"       json:"updatedAt"`
}

func ValidRequestStatus(s string) bool {
	switch s {
	case RequestStatusPending, RequestStatusResponded, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

type Notification struct {
	ID        string `gorm:"primaryKey"     json:"id"`
	UserID    uint   `gorm:"index;not null" json:"userId"`
	Type      string `gorm:"not null"       json:"type"`
	Title     string `gorm:"not null"       json:"title"`
	Message   string `json:"message"`
	Read      bool   `gorm:"default:false"  json:"read"`
	CreatedAt int64  `gorm:"not null"       json:"createdAt"`
}

type Payment struct {
	ID        string  `gorm:"primaryKey"     json:"id"`
	UserID    uint    `gorm:"index;not null" json:"userId"`
	OrderID   string  `gorm:"index"          json:"orderId,omitempty"`
	Gateway   string  `gorm:"not null"       json:"gateway"`
	Amount    float64 `gorm:"not null"       json:"amount"`
	Currency  string  `gorm:"not null"       json:"currency"`
	Status    string  `gorm:"not null"       json:"status"`
	CreatedAt int64   `gorm:"not null"       json:"createdAt"`
}
