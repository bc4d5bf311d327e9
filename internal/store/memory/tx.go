package memory

import (
	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/store"
)

var _ store.Tx = (*tx)(nil)

type tx struct {
	players         *staged[*game.Player]
	trades          *staged[*game.Trade]
	missions        *staged[*game.PlayerMission]
	domains         *staged[*game.OuterDomain]
	tasks           *staged[*game.Task]
	submissions     *staged[*game.Submission]
	messages        *staged[*game.Message]
	surveys         *staged[*game.Survey]
	surveyResponses *staged[*game.SurveyResponse]
}

func newTx(st *state) *tx {
	return &tx{
		players:         newStaged("player", st.players),
		trades:          newStaged("trade", st.trades),
		missions:        newStaged("mission", st.missions),
		domains:         newStaged("domain", st.domains),
		tasks:           newStaged("task", st.tasks),
		submissions:     newStaged("submission", st.submissions),
		messages:        newStaged("message", st.messages),
		surveys:         newStaged("survey", st.surveys),
		surveyResponses: newStaged("survey response", st.surveyResponses),
	}
}

func (t *tx) dirty() bool {
	return t.players.dirty() || t.trades.dirty() || t.missions.dirty() ||
		t.domains.dirty() || t.tasks.dirty() || t.submissions.dirty() ||
		t.messages.dirty() || t.surveys.dirty() || t.surveyResponses.dirty()
}

func (t *tx) commit() {
	t.players.commit()
	t.trades.commit()
	t.missions.commit()
	t.domains.commit()
	t.tasks.commit()
	t.submissions.commit()
	t.messages.commit()
	t.surveys.commit()
	t.surveyResponses.commit()
}

func (t *tx) Player(id string) (*game.Player, error) { return t.players.get(id) }

func (t *tx) PutPlayer(p *game.Player) error {
	p.Version++
	return t.players.put(p)
}

func (t *tx) Players(group string) ([]*game.Player, error) {
	return t.players.list(func(p *game.Player) bool {
		return group == "" || p.Group == group
	}, func(a, b *game.Player) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}), nil
}

func (t *tx) Trade(id string) (*game.Trade, error) { return t.trades.get(id) }
func (t *tx) PutTrade(tr *game.Trade) error        { return t.trades.put(tr) }

func (t *tx) TradesFor(playerID string) ([]*game.Trade, error) {
	return t.trades.list(func(tr *game.Trade) bool {
		return tr.FromPlayer == playerID || tr.ToPlayer == playerID
	}, func(a, b *game.Trade) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (t *tx) Mission(id string) (*game.PlayerMission, error) { return t.missions.get(id) }
func (t *tx) PutMission(m *game.PlayerMission) error         { return t.missions.put(m) }
func (t *tx) DeleteMission(id string) error                  { return t.missions.del(id) }

func (t *tx) MissionsFor(playerID string) ([]*game.PlayerMission, error) {
	return t.missions.list(func(m *game.PlayerMission) bool {
		return m.PlayerID == playerID
	}, nil), nil
}

func (t *tx) Domain(id string) (*game.OuterDomain, error) { return t.domains.get(id) }
func (t *tx) PutDomain(d *game.OuterDomain) error         { return t.domains.put(d) }
func (t *tx) DeleteDomain(id string) error                { return t.domains.del(id) }

func (t *tx) Domains(ownerID string) ([]*game.OuterDomain, error) {
	return t.domains.list(func(d *game.OuterDomain) bool {
		return ownerID == "" || d.OwnerID == ownerID
	}, nil), nil
}

func (t *tx) Task(id string) (*game.Task, error) { return t.tasks.get(id) }
func (t *tx) PutTask(task *game.Task) error      { return t.tasks.put(task) }

func (t *tx) Tasks(group string) ([]*game.Task, error) {
	return t.tasks.list(func(task *game.Task) bool {
		return group == "" || task.Group == group
	}, func(a, b *game.Task) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (t *tx) Submission(id string) (*game.Submission, error) { return t.submissions.get(id) }
func (t *tx) PutSubmission(s *game.Submission) error         { return t.submissions.put(s) }

func (t *tx) Submissions(taskID string) ([]*game.Submission, error) {
	return t.submissions.list(func(s *game.Submission) bool {
		return s.TaskID == taskID
	}, nil), nil
}

func (t *tx) Message(id string) (*game.Message, error) { return t.messages.get(id) }
func (t *tx) PutMessage(m *game.Message) error         { return t.messages.put(m) }

func (t *tx) Inbox(playerID string) ([]*game.Message, error) {
	return t.messages.list(func(m *game.Message) bool {
		return m.To == playerID
	}, func(a, b *game.Message) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (t *tx) Survey(id string) (*game.Survey, error) { return t.surveys.get(id) }
func (t *tx) PutSurvey(s *game.Survey) error         { return t.surveys.put(s) }

func (t *tx) Surveys() ([]*game.Survey, error) {
	return t.surveys.list(nil, func(a, b *game.Survey) bool {
		return a.CreatedAt.After(b.CreatedAt)
	}), nil
}

func (t *tx) SurveyResponse(id string) (*game.SurveyResponse, error) {
	return t.surveyResponses.get(id)
}

func (t *tx) PutSurveyResponse(r *game.SurveyResponse) error { return t.surveyResponses.put(r) }
