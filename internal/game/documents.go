package game

import (
	"time"

	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
)

// Trade is a resource exchange offer between two players. The offer is
// debited from the sender when the trade is created.
type Trade struct {
	ID         string             `json:"id" bson:"_id"`
	FromPlayer string             `json:"fromPlayer" bson:"from_player"`
	ToPlayer   string             `json:"toPlayer" bson:"to_player"`
	Offer      core.Resources     `json:"offer" bson:"offer"`
	Request    core.Resources     `json:"request" bson:"request"`
	Status     states.TradeStatus `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	ResolvedAt *time.Time         `json:"resolvedAt,omitempty" bson:"resolved_at,omitempty"`
}

// DocID returns the document id
func (t *Trade) DocID() string { return t.ID }

// Clone returns a deep copy
func (t *Trade) Clone() *Trade {
	c := *t
	c.Offer = t.Offer.Clone()
	c.Request = t.Request.Clone()
	if t.ResolvedAt != nil {
		r := *t.ResolvedAt
		c.ResolvedAt = &r
	}
	return &c
}

// PlayerMission is a mission assigned to one player
type PlayerMission struct {
	ID         string               `json:"id" bson:"_id"`
	PlayerID   string               `json:"playerId" bson:"player_id"`
	MissionID  string               `json:"missionId" bson:"mission_id"`
	Kind       catalog.MissionKind  `json:"kind" bson:"kind"`
	Title      string               `json:"title" bson:"title"`
	Objective  catalog.Objective    `json:"objective" bson:"objective"`
	Target     int                  `json:"target" bson:"target"`
	Progress   int                  `json:"progress" bson:"progress"`
	Status     states.MissionStatus `json:"status" bson:"status"`
	Reward     core.Reward          `json:"reward" bson:"reward"`
	Period     string               `json:"period,omitempty" bson:"period,omitempty"`
	AssignedAt time.Time            `json:"assignedAt" bson:"assigned_at"`
	ExpiresAt  *time.Time           `json:"expiresAt,omitempty" bson:"expires_at,omitempty"`
	ClaimedAt  *time.Time           `json:"claimedAt,omitempty" bson:"claimed_at,omitempty"`
}

// MissionDocID builds the id of a player's mission instance
func MissionDocID(playerID, missionID, period string) string {
	if period == "" {
		return playerID + ":" + missionID
	}
	return playerID + ":" + missionID + ":" + period
}

// DocID returns the document id
func (m *PlayerMission) DocID() string { return m.ID }

// Clone returns a deep copy
func (m *PlayerMission) Clone() *PlayerMission {
	c := *m
	c.Reward.Resources = m.Reward.Resources.Clone()
	if m.ExpiresAt != nil {
		e := *m.ExpiresAt
		c.ExpiresAt = &e
	}
	if m.ClaimedAt != nil {
		cl := *m.ClaimedAt
		c.ClaimedAt = &cl
	}
	return &c
}

// Expired reports whether the mission's period has ended
func (m *PlayerMission) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// Advance adds amount to the progress, clamped to the target. Reaching the
// target completes the mission. Returns true if anything changed.
func (m *PlayerMission) Advance(amount int) bool {
	if m.Status != states.MissionActive || amount <= 0 {
		return false
	}
	m.Progress += amount
	if m.Progress >= m.Target {
		m.Progress = m.Target
		m.Status = states.MissionCompleted
	}
	return true
}

// OuterDomain is a claimable tile on the shared world map
type OuterDomain struct {
	ID            string            `json:"id" bson:"_id"`
	X             int               `json:"x" bson:"x"`
	Y             int               `json:"y" bson:"y"`
	OwnerID       string            `json:"ownerId" bson:"owner_id"`
	Resource      core.ResourceKind `json:"resource" bson:"resource"`
	RatePerHour   float64           `json:"ratePerHour" bson:"rate_per_hour"`
	ClaimedAt     time.Time         `json:"claimedAt" bson:"claimed_at"`
	LastCollected time.Time         `json:"lastCollected" bson:"last_collected"`
}

// DocID returns the document id
func (d *OuterDomain) DocID() string { return d.ID }

// Clone returns a copy
func (d *OuterDomain) Clone() *OuterDomain {
	c := *d
	return &c
}

// Task is an assignment a teacher publishes to a group
type Task struct {
	ID          string      `json:"id" bson:"_id"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description" bson:"description"`
	Group       string      `json:"group" bson:"group"`
	Reward      core.Reward `json:"reward" bson:"reward"`
	Deadline    *time.Time  `json:"deadline,omitempty" bson:"deadline,omitempty"`
	CreatedBy   string      `json:"createdBy" bson:"created_by"`
	CreatedAt   time.Time   `json:"createdAt" bson:"created_at"`
	Active      bool        `json:"active" bson:"active"`
}

// DocID returns the document id
func (t *Task) DocID() string { return t.ID }

// Clone returns a deep copy
func (t *Task) Clone() *Task {
	c := *t
	c.Reward.Resources = t.Reward.Resources.Clone()
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}

// Submission is a student's answer to a task
type Submission struct {
	ID         string                  `json:"id" bson:"_id"`
	TaskID     string                  `json:"taskId" bson:"task_id"`
	PlayerID   string                  `json:"playerId" bson:"player_id"`
	Answer     string                  `json:"answer" bson:"answer"`
	Status     states.SubmissionStatus `json:"status" bson:"status"`
	Feedback   string                  `json:"feedback,omitempty" bson:"feedback,omitempty"`
	CreatedAt  time.Time               `json:"createdAt" bson:"created_at"`
	ReviewedAt *time.Time              `json:"reviewedAt,omitempty" bson:"reviewed_at,omitempty"`
}

// SubmissionID builds the id of a player's submission; a rejected
// submission is replaced in place on resubmit
func SubmissionID(taskID, playerID string) string {
	return taskID + ":" + playerID
}

// DocID returns the document id
func (s *Submission) DocID() string { return s.ID }

// Clone returns a deep copy
func (s *Submission) Clone() *Submission {
	c := *s
	if s.ReviewedAt != nil {
		r := *s.ReviewedAt
		c.ReviewedAt = &r
	}
	return &c
}

// Message is a direct message between players or from a teacher
type Message struct {
	ID        string     `json:"id" bson:"_id"`
	From      string     `json:"from" bson:"from"`
	To        string     `json:"to" bson:"to"`
	Subject   string     `json:"subject" bson:"subject"`
	Body      string     `json:"body" bson:"body"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	ReadAt    *time.Time `json:"readAt,omitempty" bson:"read_at,omitempty"`
}

// DocID returns the document id
func (m *Message) DocID() string { return m.ID }

// Clone returns a deep copy
func (m *Message) Clone() *Message {
	c := *m
	if m.ReadAt != nil {
		r := *m.ReadAt
		c.ReadAt = &r
	}
	return &c
}

// QuestionKind is the answer format of a survey question
type QuestionKind string

const (
	QuestionText   QuestionKind = "text"
	QuestionChoice QuestionKind = "choice"
)

// Question is one survey question
type Question struct {
	ID       string       `json:"id" bson:"id" validate:"required"`
	Text     string       `json:"text" bson:"text" validate:"required"`
	Kind     QuestionKind `json:"kind" bson:"kind" validate:"oneof=text choice"`
	Options  []string     `json:"options,omitempty" bson:"options,omitempty"`
	Required bool         `json:"required" bson:"required"`
}

// Survey is a questionnaire with a completion reward
type Survey struct {
	ID        string      `json:"id" bson:"_id"`
	Title     string      `json:"title" bson:"title"`
	Group     string      `json:"group,omitempty" bson:"group,omitempty"`
	Questions []Question  `json:"questions" bson:"questions"`
	Reward    core.Reward `json:"reward" bson:"reward"`
	Active    bool        `json:"active" bson:"active"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

// DocID returns the document id
func (s *Survey) DocID() string { return s.ID }

// Clone returns a deep copy
func (s *Survey) Clone() *Survey {
	c := *s
	c.Reward.Resources = s.Reward.Resources.Clone()
	c.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		q.Options = append([]string(nil), q.Options...)
		c.Questions[i] = q
	}
	return &c
}

// SurveyResponse is one player's answers to a survey
type SurveyResponse struct {
	ID        string            `json:"id" bson:"_id"`
	SurveyID  string            `json:"surveyId" bson:"survey_id"`
	PlayerID  string            `json:"playerId" bson:"player_id"`
	Answers   map[string]string `json:"answers" bson:"answers"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
}

// SurveyResponseID builds the id of a player's response; one per survey
func SurveyResponseID(surveyID, playerID string) string {
	return surveyID + ":" + playerID
}

// DocID returns the document id
func (r *SurveyResponse) DocID() string { return r.ID }

// Clone returns a deep copy
func (r *SurveyResponse) Clone() *SurveyResponse {
	c := *r
	c.Answers = make(map[string]string, len(r.Answers))
	for k, v := range r.Answers {
		c.Answers[k] = v
	}
	return &c
}
