// internal/progress/record.go
//
// The persisted record: a flat key/value map of strings, one key per State
// field. Integers and booleans are plain decimal/"true"/"false"; the word and
// letter lists are JSON arrays.
//
// Decoding never fails. A missing key takes its default silently; a
// malformed one takes its default and is reported as ErrPersistenceCorrupt
// so the caller can log it.

package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/twoworlds/puzzle-server/internal/catalog"
	"github.com/twoworlds/puzzle-server/internal/store"
)

// Record keys.
const (
	KeyCurrentLevel  = "currentLevel"
	KeyUnlockedLevel = "unlockedLevel"
	KeyHintsUsed     = "hintsUsed"
	KeySoundEnabled  = "soundEnabled"
	KeyWords         = "discoveredWords"
	KeyLetters       = "revealedLetters"
)

// EncodeRecord flattens s into its persisted form.
func EncodeRecord(s State) map[string]string {
	words, _ := json.Marshal(s.Words.List())
	letters, _ := json.Marshal(normalizeLetters(s.Letters))
	return map[string]string{
		KeyCurrentLevel:  strconv.Itoa(s.CurrentLevel),
		KeyUnlockedLevel: strconv.Itoa(s.UnlockedLevel),
		KeyHintsUsed:     strconv.Itoa(s.HintsUsed),
		KeySoundEnabled:  strconv.FormatBool(s.SoundEnabled),
		KeyWords:         string(words),
		KeyLetters:       string(letters),
	}
}

// normalizeLetters pads or truncates to the final word length.
func normalizeLetters(in []string) []string {
	out := emptyLetters()
	copy(out, in)
	return out
}

// DecodeRecord rebuilds a State from rec. The returned errors describe
// fields that were present but unusable.
func DecodeRecord(rec map[string]string) (State, []error) {
	s := DefaultState()
	var issues []error
	n := catalog.Count()

	if raw, ok := rec[KeyCurrentLevel]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= n {
			s.CurrentLevel = v
		} else {
			issues = append(issues, corrupt(KeyCurrentLevel, fmt.Sprintf("%q not in 1..%d", raw, n)))
		}
	}
	if raw, ok := rec[KeyUnlockedLevel]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= n+1 {
			s.UnlockedLevel = v
		} else {
			issues = append(issues, corrupt(KeyUnlockedLevel, fmt.Sprintf("%q not in 1..%d", raw, n+1)))
		}
	}
	if raw, ok := rec[KeyHintsUsed]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 && v <= MaxHints {
			s.HintsUsed = v
		} else {
			issues = append(issues, corrupt(KeyHintsUsed, fmt.Sprintf("%q not in 0..%d", raw, MaxHints)))
		}
	}
	if raw, ok := rec[KeySoundEnabled]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			s.SoundEnabled = v
		} else {
			issues = append(issues, corrupt(KeySoundEnabled, fmt.Sprintf("%q is not a bool", raw)))
		}
	}
	if raw, ok := rec[KeyWords]; ok {
		if words, ok := stringArray(raw); ok {
			s.Words = NewWordSet(words...)
		} else {
			issues = append(issues, corrupt(KeyWords, "not a JSON array of strings"))
		}
	}
	if raw, ok := rec[KeyLetters]; ok {
		if letters, ok := letterArray(raw); ok {
			s.Letters = letters
		} else {
			issues = append(issues, corrupt(KeyLetters, "not a JSON array of single letters"))
		}
	}
	return s, issues
}

// stringArray parses a JSON array whose elements are all strings.
func stringArray(raw string) ([]string, bool) {
	if !gjson.Valid(raw) {
		return nil, false
	}
	r := gjson.Parse(raw)
	if !r.IsArray() {
		return nil, false
	}
	out := []string{}
	ok := true
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type != gjson.String {
			ok = false
			return false
		}
		out = append(out, v.String())
		return true
	})
	return out, ok
}

// letterArray parses the revealed letters: exactly len(FinalWord) entries,
// each empty or a single character.
func letterArray(raw string) ([]string, bool) {
	arr, ok := stringArray(raw)
	if !ok || len(arr) != len(catalog.FinalWord) {
		return nil, false
	}
	for _, l := range arr {
		if utf8.RuneCountInString(l) > 1 {
			return nil, false
		}
	}
	return arr, true
}

// Persister loads and saves the progress of one player.
type Persister interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Clear(ctx context.Context) error
}

// RecordStore persists State as a flat record in a store.KV under a
// profile id.
type RecordStore struct {
	kv      store.KV
	profile string
}

// NewRecordStore binds kv to profile.
func NewRecordStore(kv store.KV, profile string) *RecordStore {
	return &RecordStore{kv: kv, profile: profile}
}

// Load reads the stored record. Corrupt fields fall back to defaults and
// are logged; only a storage failure is returned.
func (r *RecordStore) Load(ctx context.Context) (State, error) {
	rec, err := r.kv.Load(ctx, r.profile)
	if err != nil {
		return DefaultState(), fmt.Errorf("load progress: %w", err)
	}
	s, issues := DecodeRecord(rec)
	for _, issue := range issues {
		log.Debug().Err(issue).Str("profile", r.profile).Msg("progress field reset to default")
	}
	return s, nil
}

func (r *RecordStore) Save(ctx context.Context, s State) error {
	if err := r.kv.Save(ctx, r.profile, EncodeRecord(s)); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (r *RecordStore) Clear(ctx context.Context) error {
	if err := r.kv.Clear(ctx, r.profile); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
