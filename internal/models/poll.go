package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PollOption holds the option text and the set of users who picked it.
// Voter identities are never serialized; clients only see aggregate counts.
type PollOption struct {
	Text   string `json:"text" bson:"text"`
	Voters []uint `json:"-" bson:"voters"`
}

// Poll is a question with two or more options, stored in MongoDB. A user may
// appear in at most one option's voter set across the whole poll.
type Poll struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID  uint               `json:"author_id" bson:"author_id"`
	Question  string             `json:"question" bson:"question"`
	Options   []PollOption       `json:"options" bson:"options"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	Timer     ContentTimer       `json:"timer" bson:"timer"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Visible reports whether the poll should be served by listing queries at
// the given instant.
func (p *Poll) Visible(now time.Time) bool {
	return visible(p.IsActive, p.Timer, now)
}

// HasVoted reports whether the user is present in any option's voter set.
func (p *Poll) HasVoted(userID uint) bool {
	for _, opt := range p.Options {
		for _, id := range opt.Voters {
			if id == userID {
				return true
			}
		}
	}
	return false
}

// PollOptionView is the client-facing option shape with the derived tally.
type PollOptionView struct {
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
}

// PollView is the client-facing poll shape
type PollView struct {
	ID         primitive.ObjectID `json:"id"`
	AuthorID   uint               `json:"author_id"`
	Question   string             `json:"question"`
	Options    []PollOptionView   `json:"options"`
	TotalVotes int                `json:"total_votes"`
	HasVoted   bool               `json:"has_voted"`
	IsActive   bool               `json:"is_active"`
	Timer      ContentTimer       `json:"timer"`
	CreatedAt  time.Time          `json:"created_at"`
}

// View projects the poll for the given viewer, reducing voter sets to counts.
func (p *Poll) View(viewerID uint) PollView {
	view := PollView{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Question:  p.Question,
		Options:   make([]PollOptionView, len(p.Options)),
		HasVoted:  p.HasVoted(viewerID),
		IsActive:  p.IsActive,
		Timer:     p.Timer,
		CreatedAt: p.CreatedAt,
	}
	for i, opt := range p.Options {
		view.Options[i] = PollOptionView{Text: opt.Text, VoteCount: len(opt.Voters)}
		view.TotalVotes += len(opt.Voters)
	}
	return view
}

// CreatePollRequest defines the request body for creating a poll
type CreatePollRequest struct {
	Question string       `json:"question" validate:"required,min=1,max=280"`
	Options  []string     `json:"options" validate:"required,min=2,max=10,dive,required,min=1,max=100"`
	Timer    *TimerConfig `json:"timer,omitempty"`
}

// CastVoteRequest defines the request body for voting. Options are addressed
// by zero-based index.
type CastVoteRequest struct {
	OptionIndex *int `json:"option_index" validate:"required"`
}
