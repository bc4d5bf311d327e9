package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduland/eduland-server/internal/game"
	"github.com/eduland/eduland-server/internal/game/core"
	"github.com/eduland/eduland-server/internal/game/states"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("player p1: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrNotAuthorized, http.StatusForbidden},
		{core.ErrInvalidInput, http.StatusBadRequest},
		{core.ErrInvalidCell, http.StatusBadRequest},
		{core.ErrInsufficientResources, http.StatusConflict},
		{core.ErrNotReady, http.StatusConflict},
		{core.ErrDomainLimit, http.StatusConflict},
		{core.ErrLocked, http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestCreateAndRetrievePlayer(t *testing.T) {
	a := newTestAPI(t)
	p := a.createPlayer(t, "Оля")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 300, p.Resources.Get(core.Gold))

	rec := a.do(t, request{method: http.MethodGet, path: "/v1/players/" + p.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var got game.Player
	decode(t, rec, &got)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "Оля", got.Name)

	// trailing slashes are tolerated
	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + p.ID + "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, request{method: http.MethodPost, path: "/v1/players", body: map[string]string{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error map[string]string `json:"error"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "required", body.Error["name"])
	assert.Equal(t, "required", body.Error["heroClass"])
}

func TestErrorMapping(t *testing.T) {
	a := newTestAPI(t)
	p := a.createPlayer(t, "Оля")

	tests := []struct {
		name     string
		req      request
		wantCode int
		wantMsg  string
	}{
		{
			name:     "unknown player",
			req:      request{method: http.MethodGet, path: "/v1/players/nobody"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "game rule",
			req:      request{method: http.MethodPost, path: "/v1/players/" + p.ID + "/castle/upgrade"},
			wantCode: http.StatusConflict,
			wantMsg:  core.ErrInsufficientResources.Error(),
		},
		{
			name:     "cell is not a number",
			req:      request{method: http.MethodPost, path: "/v1/players/" + p.ID + "/cells/abc/research"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "cell off the grid",
			req:      request{method: http.MethodPost, path: "/v1/players/" + p.ID + "/cells/999/research"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing actor",
			req:      request{method: http.MethodPost, path: "/v1/domains/1/1/claim"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown route",
			req:      request{method: http.MethodGet, path: "/v1/nothing-here"},
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, tt.req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var body errorBody
			decode(t, rec, &body)
			require.NotNil(t, body.Error)
			if tt.wantMsg != "" {
				assert.Contains(t, body.Error, tt.wantMsg)
			}
		})
	}
}

func TestTradeOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	from := a.createPlayer(t, "Оля")
	to := a.createPlayer(t, "Петро")

	rec := a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/trades",
		actor:  from.ID,
		body: map[string]interface{}{
			"to":      to.ID,
			"offer":   map[string]int{"gold": 100},
			"request": map[string]int{"wood": 50},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var trade game.Trade
	decode(t, rec, &trade)
	assert.Equal(t, states.TradePending, trade.Status)

	// only the receiver may accept
	rec = a.do(t, request{method: http.MethodPost, path: "/v1/trades/" + trade.ID + "/accept", actor: from.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, request{method: http.MethodPost, path: "/v1/trades/" + trade.ID + "/accept", actor: to.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &trade)
	assert.Equal(t, states.TradeAccepted, trade.Status)

	rec = a.do(t, request{method: http.MethodPost, path: "/v1/trades/" + trade.ID + "/cancel", actor: from.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + to.ID + "/trades"})
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []game.Trade
	decode(t, rec, &listed)
	require.Len(t, listed, 1)
}

func TestIdempotentReplay(t *testing.T) {
	a := newTestAPI(t)
	from := a.createPlayer(t, "Оля")
	to := a.createPlayer(t, "Петро")

	req := request{
		method:  http.MethodPost,
		path:    "/v1/trades",
		actor:   from.ID,
		headers: map[string]string{IdempotencyHeader: "trade-1"},
		body: map[string]interface{}{
			"to":      to.ID,
			"offer":   map[string]int{"gold": 100},
			"request": map[string]int{"wood": 50},
		},
	}
	first := a.do(t, req)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get(ReplayHeader))

	second := a.do(t, req)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(ReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := a.do(t, request{method: http.MethodGet, path: "/v1/players/" + from.ID})
	var p game.Player
	decode(t, rec, &p)
	assert.Equal(t, 200, p.Resources.Get(core.Gold), "offer debited once")

	// another actor with the same key is a different request
	req.actor = to.ID
	req.body = map[string]interface{}{
		"to":      from.ID,
		"offer":   map[string]int{"wood": 10},
		"request": map[string]int{"gold": 10},
	}
	third := a.do(t, req)
	require.Equal(t, http.StatusCreated, third.Code, third.Body.String())
	assert.Empty(t, third.Header().Get(ReplayHeader))
}

func TestConcurrentRetriesRunOnce(t *testing.T) {
	a := newTestAPI(t)
	from := a.createPlayer(t, "Оля")
	to := a.createPlayer(t, "Петро")
	a.grantDirect(t, from.ID, core.Resources{core.Gold: 10000})

	rec := a.do(t, request{method: http.MethodGet, path: "/v1/players/" + from.ID})
	var before game.Player
	decode(t, rec, &before)

	body := []byte(fmt.Sprintf(`{"to":%q,"offer":{"gold":10},"request":{"wood":5}}`, to.ID))
	const retries = 50
	start := make(chan struct{})
	results := make([]*httptest.ResponseRecorder, retries)
	var wg sync.WaitGroup
	for i := 0; i < retries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/v1/trades", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(ActorHeader, from.ID)
			req.Header.Set(IdempotencyHeader, "trade-burst")
			results[i] = httptest.NewRecorder()
			<-start
			a.ServeHTTP(results[i], req)
		}(i)
	}
	close(start)
	wg.Wait()

	fresh := 0
	for _, res := range results {
		require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
		assert.JSONEq(t, results[0].Body.String(), res.Body.String())
		if res.Header().Get(ReplayHeader) == "" {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)

	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + from.ID + "/trades"})
	var trades []game.Trade
	decode(t, rec, &trades)
	assert.Len(t, trades, 1)

	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + from.ID})
	var after game.Player
	decode(t, rec, &after)
	assert.Equal(t, before.Resources.Get(core.Gold)-10, after.Resources.Get(core.Gold), "offer debited once")
}

func TestFailedRequestIsNotReplayed(t *testing.T) {
	a := newTestAPI(t)
	p := a.createPlayer(t, "Оля")
	req := request{
		method:  http.MethodPost,
		path:    "/v1/players/" + p.ID + "/castle/upgrade",
		headers: map[string]string{IdempotencyHeader: "castle-1"},
	}

	rec := a.do(t, req)
	require.Equal(t, http.StatusConflict, rec.Code)

	a.grantDirect(t, p.ID, core.Resources{core.Gold: 1000, core.Stone: 1000})
	rec = a.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got game.Player
	decode(t, rec, &got)
	assert.Equal(t, 2, got.Castle.Level)
}

func TestActionReportAmountIsOptional(t *testing.T) {
	a := newTestAPI(t)
	p := a.createPlayer(t, "Оля")
	path := "/v1/players/" + p.ID + "/actions"

	rec := a.do(t, request{method: http.MethodPost, path: path, body: map[string]string{"action": "research_complete"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var changed []game.PlayerMission
	decode(t, rec, &changed)
	scholar := game.MissionDocID(p.ID, "ach_scholar", "")
	var found bool
	for _, m := range changed {
		if m.ID == scholar {
			found = true
			assert.Equal(t, 1, m.Progress)
		}
	}
	assert.True(t, found)

	rec = a.do(t, request{method: http.MethodPost, path: path, body: map[string]interface{}{"action": "research_complete", "amount": -2}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error map[string]string `json:"error"`
	}
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "amount")
}

func TestCatalogRoute(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, request{method: http.MethodGet, path: "/v1/catalog"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Buildings []struct {
			ID string `json:"id"`
		} `json:"buildings"`
	}
	decode(t, rec, &body)
	require.NotEmpty(t, body.Buildings)
	assert.Equal(t, "server", body.Buildings[0].ID)
}

func TestClassroomOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	teacher := a.createPlayer(t, "Вчителька")
	student := a.createPlayer(t, "Оля")

	rec := a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/tasks",
		actor:  teacher.ID,
		body: map[string]interface{}{
			"title":  "Прочитати розділ 3",
			"reward": map[string]interface{}{"xp": 20, "resources": map[string]int{"gold": 50}},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task game.Task
	decode(t, rec, &task)

	rec = a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/tasks/" + task.ID + "/submissions",
		actor:  student.ID,
		body:   map[string]string{"answer": "готово"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub game.Submission
	decode(t, rec, &sub)

	rec = a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/submissions/" + sub.ID + "/review",
		body:   map[string]interface{}{"approve": true},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &sub)
	assert.Equal(t, states.SubmissionApproved, sub.Status)

	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + student.ID})
	var p game.Player
	decode(t, rec, &p)
	assert.Equal(t, 350, p.Resources.Get(core.Gold))

	rec = a.do(t, request{
		method: http.MethodPost,
		path:   "/v1/messages",
		actor:  teacher.ID,
		body:   map[string]string{"to": student.ID, "subject": "Молодець", "body": "Чудова робота"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg game.Message
	decode(t, rec, &msg)

	rec = a.do(t, request{method: http.MethodPost, path: "/v1/messages/" + msg.ID + "/read", actor: teacher.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, request{method: http.MethodGet, path: "/v1/players/" + student.ID + "/inbox"})
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox []game.Message
	decode(t, rec, &inbox)
	require.Len(t, inbox, 1)
	assert.Equal(t, msg.ID, inbox[0].ID)
}
