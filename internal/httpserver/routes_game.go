// internal/httpserver/routes_game.go
//
// HTTP routes for player intents. Mounted under /game:
//   - GET  /game/state
//   - POST /game/start | /continue | /advance | /hint | /sound | /reset
//   - POST /game/answer {levelId,input}
//   - POST /game/tap    {levelId,cell}
//   - POST /game/place  {slot,piece}
//   - POST /game/select {levelId}
//   - POST /game/round  {levelId}
//
// Every intent answers {result, view, events, error?}. A wrong answer is a
// normal outcome (200, result "mismatch"); an intent that is illegal in the
// current state is 409 with the state unchanged.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/twoworlds/puzzle-server/internal/progress"
	"github.com/twoworlds/puzzle-server/internal/puzzle"
	"github.com/twoworlds/puzzle-server/internal/session"
)

// intentRes is the body of every /game response.
type intentRes struct {
	Result session.Result          `json:"result"`
	View   progress.View           `json:"view"`
	Events []progress.Notification `json:"events"`
	Hint   *progress.HintView      `json:"hint,omitempty"`
	Sound  *bool                   `json:"sound,omitempty"`
	Round  *session.Playback       `json:"round,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// Results that only exist at the HTTP edge.
const (
	resultRejected session.Result = "rejected"
	resultError    session.Result = "error"
)

type levelReq struct {
	LevelID int `json:"levelId"`
}

type answerReq struct {
	LevelID int    `json:"levelId"`
	Input   string `json:"input"`
}

type tapReq struct {
	LevelID int `json:"levelId"`
	Cell    int `json:"cell"`
}

type placeReq struct {
	Slot  string `json:"slot"`
	Piece int    `json:"piece"`
}

// intentFunc runs one intent against a locked session and fills res.
type intentFunc func(ctx context.Context, s *session.Session, res *intentRes) error

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Get("/state", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		return nil
	}))

	r.Post("/start", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		return ss.Start(ctx)
	}))
	r.Post("/continue", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		return ss.Continue(ctx)
	}))
	r.Post("/advance", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		return ss.Advance(ctx)
	}))
	r.Post("/hint", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		h := ss.Hint(ctx)
		res.Hint = &h
		return nil
	}))
	r.Post("/sound", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		on := ss.Sound(ctx)
		res.Sound = &on
		return nil
	}))
	r.Post("/reset", s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
		return ss.Reset(ctx)
	}))

	r.Post("/answer", func(w http.ResponseWriter, r *http.Request) {
		var req answerReq
		if !decode(w, r, &req) {
			return
		}
		s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) (err error) {
			res.Result, err = ss.Answer(ctx, req.LevelID, req.Input)
			return err
		})(w, r)
	})
	r.Post("/tap", func(w http.ResponseWriter, r *http.Request) {
		var req tapReq
		if !decode(w, r, &req) {
			return
		}
		s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) (err error) {
			res.Result, err = ss.Tap(ctx, req.LevelID, req.Cell)
			return err
		})(w, r)
	})
	r.Post("/place", func(w http.ResponseWriter, r *http.Request) {
		var req placeReq
		if !decode(w, r, &req) {
			return
		}
		slot, err := puzzle.ParseSlot(req.Slot)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) (err error) {
			res.Result, err = ss.Place(ctx, slot, req.Piece)
			return err
		})(w, r)
	})
	r.Post("/select", func(w http.ResponseWriter, r *http.Request) {
		var req levelReq
		if !decode(w, r, &req) {
			return
		}
		s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
			return ss.Select(ctx, req.LevelID)
		})(w, r)
	})
	r.Post("/round", func(w http.ResponseWriter, r *http.Request) {
		var req levelReq
		if !decode(w, r, &req) {
			return
		}
		s.intent(func(ctx context.Context, ss *session.Session, res *intentRes) error {
			pb, err := ss.Round(ctx, req.LevelID)
			if err != nil {
				return err
			}
			res.Round = &pb
			return nil
		})(w, r)
	})
}

// intent adapts fn into a handler: resolve the profile, run fn with the
// session locked, and answer with the resulting view and notifications.
func (s *Server) intent(fn intentFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := s.profileID(w, r)
		res := intentRes{Result: session.ResultOK}
		var intentErr error

		err := s.sessions.Do(r.Context(), profile, func(ss *session.Session) error {
			intentErr = fn(r.Context(), ss, &res)
			res.View = ss.View()
			res.Events = ss.Events()
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("profile", profile).Msg("load session")
			writeError(w, http.StatusInternalServerError, "storage_error")
			return
		}

		status := http.StatusOK
		if intentErr != nil {
			var te *progress.TransitionError
			if errors.As(intentErr, &te) {
				res.Error = te.Reason
			} else {
				res.Error = intentErr.Error()
			}
			switch {
			case errors.Is(intentErr, progress.ErrInputMismatch):
				res.Result = session.ResultMismatch
			case errors.Is(intentErr, progress.ErrInvariantViolation):
				res.Result = resultRejected
				status = http.StatusConflict
			default:
				res.Result = resultError
				status = http.StatusInternalServerError
			}
		}
		writeJSON(w, status, res)
	}
}

// decode reads a JSON body into v, answering 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return false
	}
	return true
}
