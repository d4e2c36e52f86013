package entities

import (
	"strings"
	"time"
)

type JokeStatus string

const (
	JokeStatusPending  JokeStatus = "pending"
	JokeStatusApproved JokeStatus = "approved"
	JokeStatusRejected JokeStatus = "rejected"
)

// Category is the upstream joke type. Upstream may send a bare name or a
// reference object; Name is the display value either way.
type Category struct {
	ID   string
	Name string
}

// DisplayName resolves the value published downstream.
func (c Category) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return strings.TrimSpace(c.ID)
}

type PendingJoke struct {
	JokeID    string
	Setup     string
	Punchline string
	Category  Category
	Author    string
	Status    JokeStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j PendingJoke) IsPending() bool {
	return j.Status == JokeStatusPending
}

// JokePatch carries sparse edits; nil fields are left untouched.
type JokePatch struct {
	Setup     *string
	Punchline *string
	Category  *string
	Author    *string
}

func (p JokePatch) IsEmpty() bool {
	return p.Setup == nil && p.Punchline == nil && p.Category == nil && p.Author == nil
}

// Apply returns a copy of joke with the present patch fields written over it.
func (p JokePatch) Apply(joke PendingJoke) PendingJoke {
	if p.Setup != nil {
		joke.Setup = *p.Setup
	}
	if p.Punchline != nil {
		joke.Punchline = *p.Punchline
	}
	if p.Category != nil {
		joke.Category = Category{Name: *p.Category}
	}
	if p.Author != nil {
		joke.Author = *p.Author
	}
	return joke
}

// DeliveredJoke is the downstream projection of an approved joke.
type DeliveredJoke struct {
	JokeID    string
	Setup     string
	Punchline string
	Type      string
	Author    string
	CreatedAt time.Time
}

// ProjectForDelivery maps an approved upstream joke onto the delivery payload.
func ProjectForDelivery(joke PendingJoke) DeliveredJoke {
	return DeliveredJoke{
		Setup:     joke.Setup,
		Punchline: joke.Punchline,
		Type:      joke.Category.DisplayName(),
		Author:    joke.Author,
	}
}
