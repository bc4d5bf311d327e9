package gameserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/common"
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/catalog"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/game/states"
	"github.com/eduland/eduland-server/internal/store"
)

// Entities and actions carried by classroom events
const (
	EntityTask       = "task"
	EntitySubmission = "submission"
	EntityMessage    = "message"
	EntitySurvey     = "survey"

	ActionCreated   = "created"
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionRead      = "read"
	ActionResponded = "responded"
)

// ClassroomService runs the teacher-facing side: tasks and their review,
// messages and surveys
type ClassroomService struct {
	*env
	missions *MissionService
	logger   zerolog.Logger
}

// NewTask describes a task to publish
type NewTask struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description"`
	Group       string      `json:"group"`
	Reward      core.Reward `json:"reward"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
}

// CreateTask publishes a task on behalf of teacherID
func (s *ClassroomService) CreateTask(ctx context.Context, teacherID string, req NewTask) (*game.Task, error) {
	if !common.NotBlank(req.Title) {
		return nil, fmt.Errorf("title: %w", core.ErrInvalidInput)
	}
	if err := req.Reward.Validate(); err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	task := &game.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Group:       req.Group,
		Reward:      req.Reward,
		Deadline:    req.Deadline,
		CreatedBy:   teacherID,
		CreatedAt:   s.now(),
		Active:      true,
	}
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		return tx.PutTask(task)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("task_id", task.ID).Str("group", task.Group).Msg("Task created")
	return task, nil
}

// ListTasks returns the tasks of group, or every task when group is empty
func (s *ClassroomService) ListTasks(ctx context.Context, group string) ([]*game.Task, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Task, error) {
		return tx.Tasks(group)
	})
}

// DeactivateTask stops a task from taking submissions
func (s *ClassroomService) DeactivateTask(ctx context.Context, taskID string) (*game.Task, error) {
	var task *game.Task
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		t, err := tx.Task(taskID)
		if err != nil {
			return err
		}
		t.Active = false
		task = t
		return tx.PutTask(t)
	})
	return task, err
}

// Submit hands in an answer to a task. A player submits once; only a
// rejected submission can be replaced.
func (s *ClassroomService) Submit(ctx context.Context, playerID, taskID, answer string) (*game.Submission, error) {
	if !common.NotBlank(answer) {
		return nil, fmt.Errorf("answer: %w", core.ErrInvalidInput)
	}
	var sub *game.Submission
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		t, err := tx.Task(taskID)
		if err != nil {
			return err
		}
		if !t.Active {
			return fmt.Errorf("task is closed: %w", core.ErrInvalidState)
		}
		now := s.now()
		if t.Deadline != nil && now.After(*t.Deadline) {
			return core.ErrDeadlinePassed
		}
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		if t.Group != "" && p.Group != t.Group {
			return core.ErrNotAuthorized
		}

		id := game.SubmissionID(taskID, playerID)
		prev, err := tx.Submission(id)
		switch {
		case err == nil && prev.Status != states.SubmissionRejected:
			return core.ErrAlreadySubmitted
		case err != nil && !errors.Is(err, core.ErrNotFound):
			return err
		}

		sub = &game.Submission{
			ID:        id,
			TaskID:    taskID,
			PlayerID:  playerID,
			Answer:    answer,
			Status:    states.SubmissionPending,
			CreatedAt: now,
		}
		if err := tx.PutSubmission(sub); err != nil {
			return err
		}
		out.add(events.NewClassroomChangedEvent(playerID, EntitySubmission, id, ActionSubmitted))
		return nil
	})
	if err != nil {
		logRejected(s.logger, "submit_task", playerID, err)
		return nil, err
	}
	return sub, nil
}

// Submissions returns the submissions to a task
func (s *ClassroomService) Submissions(ctx context.Context, taskID string) ([]*game.Submission, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Submission, error) {
		if _, err := tx.Task(taskID); err != nil {
			return nil, err
		}
		return tx.Submissions(taskID)
	})
}

// Review describes a teacher's verdict on a submission
type Review struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}

// ReviewSubmission approves or rejects a pending submission. Approval pays
// the task reward.
func (s *ClassroomService) ReviewSubmission(ctx context.Context, submissionID string, review Review) (*game.Submission, error) {
	var sub *game.Submission
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		sb, err := tx.Submission(submissionID)
		if err != nil {
			return err
		}
		status, action := states.SubmissionRejected, ActionRejected
		if review.Approve {
			status, action = states.SubmissionApproved, ActionApproved
		}
		if !sb.Status.CanTransitionTo(status) {
			return fmt.Errorf("submission is %s: %w", sb.Status, core.ErrInvalidState)
		}
		now := s.now()
		sb.Status = status
		sb.Feedback = review.Feedback
		sb.ReviewedAt = &now
		if err := tx.PutSubmission(sb); err != nil {
			return err
		}
		out.add(events.NewClassroomChangedEvent(sb.PlayerID, EntitySubmission, sb.ID, action))
		sub = sb

		if !review.Approve {
			return nil
		}
		t, err := tx.Task(sb.TaskID)
		if err != nil {
			return err
		}
		p, err := tx.Player(sb.PlayerID)
		if err != nil {
			return err
		}
		p.ApplyReward(t.Reward, &s.cat().Hero)
		if err := savePlayer(tx, out, p); err != nil {
			return err
		}
		_, err = s.missions.advance(tx, out, p.ID, catalog.ActionReport{
			Action: catalog.ActionTaskApproved,
			Target: t.ID,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "review_submission", submissionID, err)
		return nil, err
	}
	return sub, nil
}

// NewMessage describes a message to send
type NewMessage struct {
	To      string `json:"to"`
	Group   string `json:"group"`
	Subject string `json:"subject" validate:"max=200"`
	Body    string `json:"body" validate:"required"`
}

func (s *ClassroomService) deliver(tx store.Tx, out *outbox, from, to string, req NewMessage, now time.Time) (*game.Message, error) {
	m := &game.Message{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Subject:   req.Subject,
		Body:      req.Body,
		CreatedAt: now,
	}
	if err := tx.PutMessage(m); err != nil {
		return nil, err
	}
	out.add(events.NewClassroomChangedEvent(to, EntityMessage, m.ID, ActionCreated))
	return m, nil
}

// SendMessage sends a direct message to one player
func (s *ClassroomService) SendMessage(ctx context.Context, from string, req NewMessage) (*game.Message, error) {
	if !common.NotBlank(req.Body) {
		return nil, fmt.Errorf("body: %w", core.ErrInvalidInput)
	}
	var msg *game.Message
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		if _, err := tx.Player(req.To); err != nil {
			return fmt.Errorf("recipient: %w", err)
		}
		m, err := s.deliver(tx, out, from, req.To, req, s.now())
		msg = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// SendToGroup sends a copy of a message to every player of a group except
// the sender
func (s *ClassroomService) SendToGroup(ctx context.Context, from string, req NewMessage) ([]*game.Message, error) {
	if !common.NotBlank(req.Body) {
		return nil, fmt.Errorf("body: %w", core.ErrInvalidInput)
	}
	if !common.NotBlank(req.Group) {
		return nil, fmt.Errorf("group: %w", core.ErrInvalidInput)
	}
	var sent []*game.Message
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		sent = nil
		players, err := tx.Players(req.Group)
		if err != nil {
			return err
		}
		now := s.now()
		for _, p := range players {
			if p.ID == from {
				continue
			}
			m, err := s.deliver(tx, out, from, p.ID, req, now)
			if err != nil {
				return err
			}
			sent = append(sent, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("group", req.Group).Int("recipients", len(sent)).Msg("Group message sent")
	return sent, nil
}

// Inbox returns the messages addressed to playerID, newest first
func (s *ClassroomService) Inbox(ctx context.Context, playerID string) ([]*game.Message, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Message, error) {
		return tx.Inbox(playerID)
	})
}

// MarkRead marks a message read. Only its recipient may do so; reading twice
// keeps the first read time.
func (s *ClassroomService) MarkRead(ctx context.Context, messageID, actor string) (*game.Message, error) {
	var msg *game.Message
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		m, err := tx.Message(messageID)
		if err != nil {
			return err
		}
		if m.To != actor {
			return core.ErrNotAuthorized
		}
		msg = m
		if m.ReadAt != nil {
			return nil
		}
		now := s.now()
		m.ReadAt = &now
		out.add(events.NewClassroomChangedEvent(actor, EntityMessage, m.ID, ActionRead))
		return tx.PutMessage(m)
	})
	if err != nil {
		logRejected(s.logger, "mark_read", actor, err)
		return nil, err
	}
	return msg, nil
}

// NewSurvey describes a survey to publish
type NewSurvey struct {
	Title     string          `json:"title" validate:"required,max=200"`
	Group     string          `json:"group"`
	Questions []game.Question `json:"questions" validate:"required,min=1,dive"`
	Reward    core.Reward     `json:"reward"`
}

func validateQuestions(qs []game.Question) error {
	if len(qs) == 0 {
		return fmt.Errorf("%w: survey has no questions", core.ErrInvalidInput)
	}
	seen := make(map[string]bool, len(qs))
	for _, q := range qs {
		if !common.NotBlank(q.ID) || !common.NotBlank(q.Text) {
			return fmt.Errorf("%w: question needs an id and text", core.ErrInvalidInput)
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: duplicate question %q", core.ErrInvalidInput, q.ID)
		}
		seen[q.ID] = true
		switch q.Kind {
		case game.QuestionText:
		case game.QuestionChoice:
			if len(q.Options) < 2 {
				return fmt.Errorf("%w: question %q needs at least two options", core.ErrInvalidInput, q.ID)
			}
		default:
			return fmt.Errorf("%w: question %q has kind %q", core.ErrInvalidInput, q.ID, q.Kind)
		}
	}
	return nil
}

// CreateSurvey publishes a survey
func (s *ClassroomService) CreateSurvey(ctx context.Context, req NewSurvey) (*game.Survey, error) {
	if !common.NotBlank(req.Title) {
		return nil, fmt.Errorf("title: %w", core.ErrInvalidInput)
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}
	if err := req.Reward.Validate(); err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	survey := &game.Survey{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Group:     req.Group,
		Questions: req.Questions,
		Reward:    req.Reward,
		Active:    true,
		CreatedAt: s.now(),
	}
	err := s.run(ctx, func(tx store.Tx, out *outbox) error {
		return tx.PutSurvey(survey)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("survey_id", survey.ID).Int("questions", len(survey.Questions)).Msg("Survey created")
	return survey, nil
}

// ActiveSurveys returns open surveys visible to group; an empty group sees
// only surveys addressed to everyone
func (s *ClassroomService) ActiveSurveys(ctx context.Context, group string) ([]*game.Survey, error) {
	return store.View(ctx, s.store, func(tx store.Tx) ([]*game.Survey, error) {
		all, err := tx.Surveys()
		if err != nil {
			return nil, err
		}
		var out []*game.Survey
		for _, sv := range all {
			if sv.Active && (sv.Group == "" || sv.Group == group) {
				out = append(out, sv)
			}
		}
		return out, nil
	})
}

func checkAnswers(sv *game.Survey, answers map[string]string) error {
	known := make(map[string]bool, len(sv.Questions))
	for _, q := range sv.Questions {
		known[q.ID] = true
		a, ok := answers[q.ID]
		if !ok || !common.NotBlank(a) {
			if q.Required {
				return fmt.Errorf("%w: question %q needs an answer", core.ErrInvalidInput, q.ID)
			}
			continue
		}
		if q.Kind == game.QuestionChoice && !hasOption(q.Options, a) {
			return fmt.Errorf("%w: %q is not an option of %q", core.ErrInvalidInput, a, q.ID)
		}
	}
	for id := range answers {
		if !known[id] {
			return fmt.Errorf("%w: unknown question %q", core.ErrInvalidInput, id)
		}
	}
	return nil
}

func hasOption(options []string, a string) bool {
	for _, o := range options {
		if o == a {
			return true
		}
	}
	return false
}

// RespondSurvey records a player's answers once and pays the survey reward
func (s *ClassroomService) RespondSurvey(ctx context.Context, playerID, surveyID string, answers map[string]string) (*game.SurveyResponse, *game.Player, error) {
	var resp *game.SurveyResponse
	p, err := s.updatePlayer(ctx, playerID, func(tx store.Tx, p *game.Player, out *outbox) error {
		sv, err := tx.Survey(surveyID)
		if err != nil {
			return err
		}
		if !sv.Active {
			return fmt.Errorf("survey is closed: %w", core.ErrInvalidState)
		}
		if sv.Group != "" && sv.Group != p.Group {
			return core.ErrNotAuthorized
		}
		id := game.SurveyResponseID(surveyID, playerID)
		if _, err := tx.SurveyResponse(id); err == nil {
			return core.ErrAlreadyResponded
		} else if !errors.Is(err, core.ErrNotFound) {
			return err
		}
		if err := checkAnswers(sv, answers); err != nil {
			return err
		}

		now := s.now()
		resp = &game.SurveyResponse{
			ID:        id,
			SurveyID:  surveyID,
			PlayerID:  playerID,
			Answers:   answers,
			CreatedAt: now,
		}
		if err := tx.PutSurveyResponse(resp); err != nil {
			return err
		}
		p.ApplyReward(sv.Reward, &s.cat().Hero)
		out.add(events.NewClassroomChangedEvent(playerID, EntitySurvey, surveyID, ActionResponded))

		_, err = s.missions.advance(tx, out, playerID, catalog.ActionReport{
			Action: catalog.ActionSurveyCompleted,
			Target: surveyID,
		}, now)
		return err
	})
	if err != nil {
		logRejected(s.logger, "respond_survey", playerID, err)
		return nil, nil, err
	}
	return resp, p, nil
}
