package httpserver

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/twoworlds/puzzle-server/internal/catalog"
	"github.com/twoworlds/puzzle-server/internal/completion"
	"github.com/twoworlds/puzzle-server/internal/config"
	"github.com/twoworlds/puzzle-server/internal/progress"
	"github.com/twoworlds/puzzle-server/internal/puzzle"
	"github.com/twoworlds/puzzle-server/internal/reveal"
	"github.com/twoworlds/puzzle-server/internal/session"
	"github.com/twoworlds/puzzle-server/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Port:           5175,
		Storage:        config.StorageMemory,
		JWTSecret:      "test-secret",
		JWTExpiresDays: 1,
		CookieName:     "tw_test",
		ClientOrigin:   "http://localhost:5173",
		RequestTimeout: 5 * time.Second,
	}
}

type env struct {
	srv   *Server
	sched *reveal.Manual
}

func newEnv(t *testing.T, kv store.KV) *env {
	t.Helper()
	db, err := store.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(context.Background(), db))

	if kv == nil {
		kv = store.NewMemoryStore()
	}
	results := completion.NewStore(db)
	sched := &reveal.Manual{}
	now := time.Unix(1_700_000_000, 0)
	reg := session.NewRegistry(kv,
		session.WithScheduler(sched),
		session.WithFinishHook(results.RecordFinish),
		session.WithControllerOptions(
			progress.WithRand(rand.New(rand.NewPCG(5, 6))),
			progress.WithClock(func() time.Time {
				now = now.Add(time.Second)
				return now
			}),
		),
	)
	return &env{srv: New(testConfig(), reg, db, results), sched: sched}
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	e       *env
	cookies map[string]*http.Cookie
}

func (e *env) client(t *testing.T) *client {
	return &client{t: t, e: e, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path, body string) (int, gjson.Result) {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.e.srv.Router().ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	require.True(c.t, gjson.Valid(rr.Body.String()), "body is not JSON: %s", rr.Body.String())
	return rr.Code, gjson.Parse(rr.Body.String())
}

func (c *client) post(path, body string) (int, gjson.Result) { return c.do(http.MethodPost, path, body) }

func (c *client) mustPost(path, body string) gjson.Result {
	c.t.Helper()
	code, res := c.post(path, body)
	require.Equal(c.t, http.StatusOK, code, res.Raw)
	return res
}

// solveActive solves the level the view says is active.
func (c *client) solveActive() gjson.Result {
	c.t.Helper()
	_, st := c.do(http.MethodGet, "/game/state", "")
	lvl := int(st.Get("view.screen.level").Int())
	def := catalog.Level(lvl)

	if len(def.Investigation) > 0 {
		c.mustPost("/game/round", fmt.Sprintf(`{"levelId":%d}`, lvl))
		c.e.sched.Advance(time.Minute)
	}

	var res gjson.Result
	switch def.Solution.Kind {
	case catalog.ExactString:
		res = c.mustPost("/game/answer", fmt.Sprintf(`{"levelId":%d,"input":%q}`, lvl, strings.ToLower(def.Solution.Text)))
	case catalog.ExactInt:
		res = c.mustPost("/game/answer", fmt.Sprintf(`{"levelId":%d,"input":"%d"}`, lvl, def.Solution.Number))
	case catalog.OrderedIndexSequence:
		for _, cell := range def.Solution.Sequence {
			res = c.mustPost("/game/tap", fmt.Sprintf(`{"levelId":%d,"cell":%d}`, lvl, cell))
		}
	case catalog.DynamicSequence:
		round := c.mustPost("/game/round", fmt.Sprintf(`{"levelId":%d}`, lvl))
		c.e.sched.Advance(time.Minute)
		for _, cell := range round.Get(`round.timeline.#(kind=="show")#.cell`).Array() {
			res = c.mustPost("/game/tap", fmt.Sprintf(`{"levelId":%d,"cell":%d}`, lvl, cell.Int()))
		}
	case catalog.Assembly:
		for slot, piece := range def.Solution.Slots {
			res = c.mustPost("/game/place", fmt.Sprintf(`{"slot":%q,"piece":%d}`, puzzle.Slot(slot), piece))
		}
	}
	require.Equal(c.t, "match", res.Get("result").String(), res.Raw)
	return res
}

func TestHealthAndLevels(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)

	code, res := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Get("ok").Bool())

	code, res = c.do(http.MethodGet, "/levels", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(7), res.Get("levels.#").Int())
	assert.Equal(t, "The Grid", res.Get("levels.1.title").String())
	assert.Equal(t, "dynamic_sequence", res.Get("levels.1.kind").String())
	assert.Equal(t, int64(9), res.Get("levels.1.cells").Int())
	assert.True(t, res.Get("levels.6.final").Bool())
	assert.NotContains(t, res.Raw, "MONKEY")
	assert.NotContains(t, res.Raw, "2249")
	assert.NotContains(t, res.Raw, "2430m")

	code, _ = c.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGuestFirstLevel(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)

	_, res := c.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, "at_menu", res.Get("view.screen.phase").String())
	assert.False(t, res.Get("view.canContinue").Bool())
	require.Contains(t, c.cookies, anonCookieName)

	res = c.mustPost("/game/start", "")
	assert.Equal(t, "in_level", res.Get("view.screen.phase").String())
	assert.Equal(t, int64(1), res.Get("view.screen.level").Int())

	res = c.mustPost("/game/answer", `{"levelId":1,"input":"MONKEY"}`)
	assert.Equal(t, "match", res.Get("result").String())
	assert.Equal(t, "level_solved", res.Get("view.screen.phase").String())
	assert.Equal(t, int64(2), res.Get("view.unlockedLevel").Int())
	assert.Equal(t, "W _ _ _ _ _ _", res.Get("view.hud.letters").String())
	assert.Equal(t, "W", res.Get(`events.#(kind=="letter").letter`).String())
	assert.Equal(t, "success", res.Get(`events.#(kind=="banner").banner.kind`).String())

	res = c.mustPost("/game/advance", "")
	assert.Equal(t, int64(2), res.Get("view.screen.level").Int())
}

func TestMismatchAndRejection(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")

	code, res := c.post("/game/answer", `{"levelId":1,"input":"DONKEY"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mismatch", res.Get("result").String())
	assert.Equal(t, "in_level", res.Get("view.screen.phase").String())
	assert.Equal(t, "error", res.Get(`events.#(kind=="banner").banner.kind`).String())

	code, res = c.post("/game/advance", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "rejected", res.Get("result").String())
	assert.NotEmpty(t, res.Get("error").String())
	assert.Equal(t, int64(1), res.Get("view.screen.level").Int())

	code, _ = c.post("/game/select", `{"levelId":5}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = c.post("/game/tap", `{"levelId":1,"cell":0}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestBadRequests(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)

	code, res := c.post("/game/answer", `{"levelId":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "bad_json", res.Get("error").String())

	code, _ = c.post("/game/place", `{"slot":"middle","piece":0}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = c.post("/auth/signup", `nope`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHintsAndSound(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")

	for i := 1; i <= 3; i++ {
		res := c.mustPost("/game/hint", "")
		assert.Equal(t, int64(i), res.Get("hint.used").Int())
		assert.Equal(t, catalog.Level(1).Hint, res.Get("hint.text").String())
	}
	res := c.mustPost("/game/hint", "")
	assert.True(t, res.Get("hint.capReached").Bool())
	assert.Equal(t, int64(0), res.Get("view.hintsRemaining").Int())
	assert.Equal(t, "notice", res.Get(`events.#(kind=="banner").banner.kind`).String())

	res = c.mustPost("/game/sound", "")
	assert.True(t, res.Get("sound").Bool())
	assert.True(t, res.Get("view.soundEnabled").Bool())

	res = c.mustPost("/game/reset", "")
	assert.Equal(t, "at_menu", res.Get("view.screen.phase").String())
	assert.False(t, res.Get("view.soundEnabled").Bool())
	assert.Equal(t, int64(0), res.Get("view.hintsUsed").Int())
}

func TestGridRoundOverHTTP(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")
	c.solveActive()
	c.mustPost("/game/advance", "")

	round := c.mustPost("/game/round", `{"levelId":2}`)
	tl := round.Get("round.timeline")
	assert.Equal(t, int64(9), tl.Get("#").Int())
	assert.Equal(t, int64(0), tl.Get("0.atMs").Int())
	assert.Equal(t, int64(1300), tl.Get("1.atMs").Int())
	assert.Equal(t, "enable_input", tl.Get("8.kind").String())
	assert.Equal(t, int64(6200), tl.Get("8.atMs").Int())
	assert.Empty(t, round.Get("view.level.entered").Array())

	first := tl.Get("0.cell").Int()
	res := c.mustPost("/game/tap", fmt.Sprintf(`{"levelId":2,"cell":%d}`, first))
	assert.Equal(t, "ignored", res.Get("result").String())

	e.sched.Advance(time.Minute)
	res = c.mustPost("/game/tap", fmt.Sprintf(`{"levelId":2,"cell":%d}`, first))
	assert.Equal(t, "pending", res.Get("result").String())
	assert.Equal(t, []any{float64(first)}, res.Get("view.level.entered").Value())
}

func TestRevealLevelsIgnoreInputUntilRevealed(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")
	c.solveActive()
	c.mustPost("/game/advance", "")

	res := c.mustPost("/game/tap", `{"levelId":2,"cell":0}`)
	assert.Equal(t, "ignored", res.Get("result").String())
	assert.Empty(t, res.Get("view.level.entered").Array())

	c.solveActive()
	c.mustPost("/game/advance", "")

	res = c.mustPost("/game/answer", `{"levelId":3,"input":"2249"}`)
	assert.Equal(t, "ignored", res.Get("result").String())
	assert.Equal(t, "in_level", res.Get("view.screen.phase").String())
}

func TestFullPlaythroughAndLeaderboard(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")
	c.mustPost("/game/hint", "")

	for lvl := 1; lvl <= 7; lvl++ {
		c.solveActive()
		c.mustPost("/game/advance", "")
	}
	_, st := c.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, "all_solved", st.Get("view.screen.phase").String())
	assert.Equal(t, int64(8), st.Get("view.unlockedLevel").Int())
	assert.Equal(t, "W T H B R U _", st.Get("view.hud.letters").String())
	assert.Equal(t, "Words: MONKEY, SURFACE", st.Get("view.hud.wordsLine").String())

	_, lb := c.do(http.MethodGet, "/leaderboard", "")
	require.Equal(t, int64(1), lb.Get("rows.#").Int())
	assert.Equal(t, int64(1), lb.Get("rows.0.hintsUsed").Int())
	assert.Equal(t, int64(1), lb.Get("rows.0.rank").Int())
}

func TestSignupClaimsGuestProgress(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)
	c.mustPost("/game/start", "")
	c.solveActive()
	c.mustPost("/game/advance", "")

	res := c.mustPost("/auth/signup", `{"username":"ada_l","password":"correct horse"}`)
	assert.Equal(t, "ada_l", res.Get("username").String())
	require.Contains(t, c.cookies, "tw_test")

	_, me := c.do(http.MethodGet, "/auth/me", "")
	assert.Equal(t, "ada_l", me.Get("username").String())

	_, st := c.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, int64(2), st.Get("view.unlockedLevel").Int())
	assert.True(t, st.Get("view.canContinue").Bool())

	// Signed out, the guest cookie no longer carries the progress.
	c.mustPost("/auth/logout", "")
	_, st = c.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, int64(1), st.Get("view.unlockedLevel").Int())

	// Signing back in restores the account's progress.
	c.mustPost("/auth/login", `{"username":"ADA_L","password":"correct horse"}`)
	_, st = c.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, int64(2), st.Get("view.unlockedLevel").Int())
}

func TestAuthErrors(t *testing.T) {
	e := newEnv(t, nil)
	c := e.client(t)

	code, _ := c.do(http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = c.post("/auth/signup", `{"username":"ab","password":"longenough"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	c.mustPost("/auth/signup", `{"username":"grace","password":"longenough"}`)
	other := e.client(t)
	code, _ = other.post("/auth/signup", `{"username":"Grace","password":"longenough"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = other.post("/auth/login", `{"username":"grace","password":"wrongpass"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	other.cookies["tw_test"] = &http.Cookie{Name: "tw_test", Value: "garbage"}
	code, _ = other.do(http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestProfilesAreIsolated(t *testing.T) {
	e := newEnv(t, nil)
	a, b := e.client(t), e.client(t)
	a.mustPost("/game/start", "")
	a.solveActive()

	_, st := b.do(http.MethodGet, "/game/state", "")
	assert.Equal(t, int64(1), st.Get("view.unlockedLevel").Int())
	assert.NotEqual(t, a.cookies[anonCookieName].Value, b.cookies[anonCookieName].Value)
}

type brokenKV struct{ store.KV }

func (brokenKV) Load(context.Context, string) (map[string]string, error) {
	return nil, errors.New("disk on fire")
}

func TestStorageFailureIs500(t *testing.T) {
	e := newEnv(t, brokenKV{store.NewMemoryStore()})
	c := e.client(t)
	code, res := c.post("/game/start", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "storage_error", res.Get("error").String())
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/game/start", nil)
	rr := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}
