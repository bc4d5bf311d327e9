package memory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/eduland/eduland-server/internal/game"
)

// snapshot is the on-disk form of the store. It is BSON so that it keeps
// the same field set as the MongoDB backend, hidden deposits included.
type snapshot struct {
	Players         []*game.Player         `bson:"players"`
	Trades          []*game.Trade          `bson:"trades"`
	Missions        []*game.PlayerMission  `bson:"missions"`
	Domains         []*game.OuterDomain    `bson:"domains"`
	Tasks           []*game.Task           `bson:"tasks"`
	Submissions     []*game.Submission     `bson:"submissions"`
	Messages        []*game.Message        `bson:"messages"`
	Surveys         []*game.Survey         `bson:"surveys"`
	SurveyResponses []*game.SurveyResponse `bson:"survey_responses"`
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func index[T document[T]](docs []T) map[string]T {
	out := make(map[string]T, len(docs))
	for _, d := range docs {
		out[d.DocID()] = d
	}
	return out
}

func writeSnapshot(path string, st *state) error {
	data, err := bson.Marshal(snapshot{
		Players:         values(st.players),
		Trades:          values(st.trades),
		Missions:        values(st.missions),
		Domains:         values(st.domains),
		Tasks:           values(st.tasks),
		Submissions:     values(st.submissions),
		Messages:        values(st.messages),
		Surveys:         values(st.surveys),
		SurveyResponses: values(st.surveyResponses),
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// loadSnapshot reads path. A missing file is not an error.
func loadSnapshot(path string) (state, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return state{}, false, nil
	}
	if err != nil {
		return state{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := bson.Unmarshal(data, &snap); err != nil {
		return state{}, false, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	for _, p := range snap.Players {
		p.Normalize()
	}
	return state{
		players:         index(snap.Players),
		trades:          index(snap.Trades),
		missions:        index(snap.Missions),
		domains:         index(snap.Domains),
		tasks:           index(snap.Tasks),
		submissions:     index(snap.Submissions),
		messages:        index(snap.Messages),
		surveys:         index(snap.Surveys),
		surveyResponses: index(snap.SurveyResponses),
	}, true, nil
}
