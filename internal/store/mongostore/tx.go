package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/store"
)

var _ store.Tx = (*tx)(nil)

type tx struct {
	ctx context.Context
	db  *mongo.Database
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

func findOne[T any](t *tx, collection, id string) (*T, error) {
	var out T
	err := t.db.Collection(collection).FindOne(t.ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s %q: %w", collection, id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", collection, id, err)
	}
	return &out, nil
}

func findMany[T any](t *tx, collection string, filter interface{}, opts *options.FindOptions) ([]*T, error) {
	cur, err := t.db.Collection(collection).Find(t.ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	var out []*T
	if err := cur.All(t.ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return out, nil
}

func (t *tx) replace(collection, id string, doc interface{}) error {
	if id == "" {
		return fmt.Errorf("%s: empty id: %w", collection, core.ErrInvalidInput)
	}
	_, err := t.db.Collection(collection).ReplaceOne(t.ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write %s %q: %w", collection, id, err)
	}
	return nil
}

func (t *tx) delete(collection, id string) error {
	res, err := t.db.Collection(collection).DeleteOne(t.ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %q: %w", collection, id, core.ErrNotFound)
	}
	return nil
}

func optional(field, value string) bson.M {
	if value == "" {
		return bson.M{}
	}
	return bson.M{field: value}
}

func (t *tx) Player(id string) (*game.Player, error) {
	p, err := findOne[game.Player](t, colPlayers, id)
	if err != nil {
		return nil, err
	}
	p.Normalize()
	return p, nil
}

func (t *tx) PutPlayer(p *game.Player) error {
	p.Version++
	return t.replace(colPlayers, p.ID, p)
}

func (t *tx) Players(group string) ([]*game.Player, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	players, err := findMany[game.Player](t, colPlayers, optional("group", group), opts)
	for _, p := range players {
		p.Normalize()
	}
	return players, err
}

func (t *tx) Trade(id string) (*game.Trade, error) { return findOne[game.Trade](t, colTrades, id) }
func (t *tx) PutTrade(tr *game.Trade) error        { return t.replace(colTrades, tr.ID, tr) }

func (t *tx) TradesFor(playerID string) ([]*game.Trade, error) {
	filter := bson.M{"$or": bson.A{bson.M{"from_player": playerID}, bson.M{"to_player": playerID}}}
	return findMany[game.Trade](t, colTrades, filter, newestFirst)
}

func (t *tx) Mission(id string) (*game.PlayerMission, error) {
	return findOne[game.PlayerMission](t, colMissions, id)
}

func (t *tx) PutMission(m *game.PlayerMission) error { return t.replace(colMissions, m.ID, m) }
func (t *tx) DeleteMission(id string) error          { return t.delete(colMissions, id) }

func (t *tx) MissionsFor(playerID string) ([]*game.PlayerMission, error) {
	return findMany[game.PlayerMission](t, colMissions, bson.M{"player_id": playerID}, byID)
}

func (t *tx) Domain(id string) (*game.OuterDomain, error) {
	return findOne[game.OuterDomain](t, colDomains, id)
}

func (t *tx) PutDomain(d *game.OuterDomain) error { return t.replace(colDomains, d.ID, d) }
func (t *tx) DeleteDomain(id string) error        { return t.delete(colDomains, id) }

func (t *tx) Domains(ownerID string) ([]*game.OuterDomain, error) {
	return findMany[game.OuterDomain](t, colDomains, optional("owner_id", ownerID), byID)
}

func (t *tx) Task(id string) (*game.Task, error) { return findOne[game.Task](t, colTasks, id) }
func (t *tx) PutTask(task *game.Task) error      { return t.replace(colTasks, task.ID, task) }

func (t *tx) Tasks(group string) ([]*game.Task, error) {
	return findMany[game.Task](t, colTasks, optional("group", group), newestFirst)
}

func (t *tx) Submission(id string) (*game.Submission, error) {
	return findOne[game.Submission](t, colSubmissions, id)
}

func (t *tx) PutSubmission(s *game.Submission) error { return t.replace(colSubmissions, s.ID, s) }

func (t *tx) Submissions(taskID string) ([]*game.Submission, error) {
	return findMany[game.Submission](t, colSubmissions, bson.M{"task_id": taskID}, byID)
}

func (t *tx) Message(id string) (*game.Message, error) {
	return findOne[game.Message](t, colMessages, id)
}

func (t *tx) PutMessage(m *game.Message) error { return t.replace(colMessages, m.ID, m) }

func (t *tx) Inbox(playerID string) ([]*game.Message, error) {
	return findMany[game.Message](t, colMessages, bson.M{"to": playerID}, newestFirst)
}

func (t *tx) Survey(id string) (*game.Survey, error) { return findOne[game.Survey](t, colSurveys, id) }
func (t *tx) PutSurvey(s *game.Survey) error         { return t.replace(colSurveys, s.ID, s) }

func (t *tx) Surveys() ([]*game.Survey, error) {
	return findMany[game.Survey](t, colSurveys, bson.M{}, newestFirst)
}

func (t *tx) SurveyResponse(id string) (*game.SurveyResponse, error) {
	return findOne[game.SurveyResponse](t, colSurveyResponses, id)
}

func (t *tx) PutSurveyResponse(r *game.SurveyResponse) error {
	return t.replace(colSurveyResponses, r.ID, r)
}
