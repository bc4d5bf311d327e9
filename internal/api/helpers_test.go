package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/events"
	"github.com/eduland/eduland-server/internal/gameserver"
	"github.com/eduland/eduland-server/internal/store"
	"github.com/eduland/eduland-server/internal/store/memory"
	"github.com/eduland/eduland-server/internal/testutil"
)

type testAPI struct {
	*Server
	game  *gameserver.Server
	hub   *Hub
	clock *testutil.FakeClock
	store store.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	hub := NewHub(8, testutil.NopLogger())
	bus := events.NewEventBus()
	bus.Subscribe(hub)

	st := memory.NewEphemeral()
	g := gameserver.NewServer(gameserver.Deps{
		Store:    st,
		Catalog:  testutil.Catalog(),
		Bus:      bus,
		Clock:    clock,
		Settings: gameserver.DefaultSettings(),
		Logger:   testutil.NopLogger(),
	})
	srv := NewServer(Options{
		DisableReqLogs: true,
		Game:           g,
		Hub:            hub,
		Logger:         testutil.NopLogger(),
	})
	return &testAPI{Server: srv, game: g, hub: hub, clock: clock, store: st}
}

type request struct {
	method  string
	path    string
	body    interface{}
	actor   string
	headers map[string]string
}

func (a *testAPI) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if r.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(r.body))
	}
	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.actor != "" {
		req.Header.Set(ActorHeader, r.actor)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createPlayer(t *testing.T, name string) *game.Player {
	t.Helper()
	rec := a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/players",
		body:   map[string]string{"name": name, "heroClass": "scientist"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p game.Player
	decode(t, rec, &p)
	return &p
}

// grantDirect credits a player without going through the API
func (a *testAPI) grantDirect(t *testing.T, playerID string, r core.Resources) {
	t.Helper()
	err := a.store.RunInTransaction(context.Background(), func(tx store.Tx) error {
		p, err := tx.Player(playerID)
		if err != nil {
			return err
		}
		p.Resources.Add(r)
		return tx.PutPlayer(p)
	})
	require.NoError(t, err)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Error interface{} `json:"error"`
}
