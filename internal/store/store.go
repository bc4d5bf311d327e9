// Package store defines the document store used by the game services.
// All reads and writes happen inside RunInTransaction; a callback that
// returns an error leaves no trace. Implementations may run a callback more
// than once, so callbacks must not have side effects outside the Tx.
package store

import (
	"context"

	"github.com/eduland/eduland-server/internal/game"
)

// Store is a transactional document store
type Store interface {
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error
	Close(ctx context.Context) error
}

// Tx is the view of the store inside one transaction. Getters return
// copies and wrap core.ErrNotFound when the document is missing.
type Tx interface {
	Player(id string) (*game.Player, error)
	// PutPlayer creates or replaces p and bumps its Version
	PutPlayer(p *game.Player) error
	// Players lists players of group, or every player when group is empty
	Players(group string) ([]*game.Player, error)

	Trade(id string) (*game.Trade, error)
	PutTrade(t *game.Trade) error
	// TradesFor lists trades sent or received by playerID, newest first
	TradesFor(playerID string) ([]*game.Trade, error)

	Mission(id string) (*game.PlayerMission, error)
	PutMission(m *game.PlayerMission) error
	DeleteMission(id string) error
	MissionsFor(playerID string) ([]*game.PlayerMission, error)

	Domain(id string) (*game.OuterDomain, error)
	PutDomain(d *game.OuterDomain) error
	DeleteDomain(id string) error
	// Domains lists domains owned by ownerID, or every claimed domain
	Domains(ownerID string) ([]*game.OuterDomain, error)

	Task(id string) (*game.Task, error)
	PutTask(t *game.Task) error
	// Tasks lists tasks of group, or every task when group is empty
	Tasks(group string) ([]*game.Task, error)

	Submission(id string) (*game.Submission, error)
	PutSubmission(s *game.Submission) error
	Submissions(taskID string) ([]*game.Submission, error)

	Message(id string) (*game.Message, error)
	PutMessage(m *game.Message) error
	// Inbox lists messages addressed to playerID, newest first
	Inbox(playerID string) ([]*game.Message, error)

	Survey(id string) (*game.Survey, error)
	PutSurvey(s *game.Survey) error
	Surveys() ([]*game.Survey, error)

	SurveyResponse(id string) (*game.SurveyResponse, error)
	PutSurveyResponse(r *game.SurveyResponse) error
}

// View runs fn in a transaction and returns its result
func View[T any](ctx context.Context, s Store, fn func(tx Tx) (T, error)) (T, error) {
	var out T
	err := s.RunInTransaction(ctx, func(tx Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
