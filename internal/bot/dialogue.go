package bot

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageBaseCurrency
	stageAmount
)

func (s conversationStage) String() string {
	switch s {
	case stageBaseCurrency:
		return "awaiting_base_currency"
	case stageAmount:
		return "awaiting_amount"
	default:
		return "idle"
	}
}

type conversationState struct {
	stage  conversationStage
	manual bool
}

// dialogueStore holds at most one active dialogue per user. Entries expire
// after ttl of inactivity; a missing entry means the user is idle.
type dialogueStore struct {
	cache *cache.Cache
}

func newDialogueStore(ttl time.Duration) *dialogueStore {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &dialogueStore{cache: cache.New(ttl, cleanup)}
}

func dialogueKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Set replaces any dialogue the user already had.
func (d *dialogueStore) Set(userID int64, state conversationState) {
	d.cache.SetDefault(dialogueKey(userID), state)
}

func (d *dialogueStore) Get(userID int64) (conversationState, bool) {
	v, ok := d.cache.Get(dialogueKey(userID))
	if !ok {
		return conversationState{}, false
	}
	state, ok := v.(conversationState)
	if !ok || state.stage == stageNone {
		return conversationState{}, false
	}
	return state, true
}

func (d *dialogueStore) Clear(userID int64) {
	d.cache.Delete(dialogueKey(userID))
}
