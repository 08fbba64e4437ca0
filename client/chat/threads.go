package chat

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
)

// maxThreadLen bounds each conversation; the oldest messages fall off first.
const maxThreadLen = 200

// thread is the persisted form of one conversation.
type thread struct {
	Messages   []Message `json:"messages"`
	LastActive time.Time `json:"lastActive"`
}

// ThreadStore persists conversations, unread counters, and the active peer,
// namespaced per local user id. Every mutation writes through immediately so
// a crash never loses more than the in-flight change.
type ThreadStore struct {
	st     store.Store
	userID int64
	log    zerolog.Logger

	threads map[int64]*thread
	unread  map[int64]int
	active  int64
}

// NewThreadStore loads the user's persisted chat state. Corrupt entries are
// discarded rather than failing the whole load.
func NewThreadStore(st store.Store, userID int64, log zerolog.Logger) *ThreadStore {
	t := &ThreadStore{
		st:      st,
		userID:  userID,
		log:     log,
		threads: make(map[int64]*thread),
		unread:  make(map[int64]int),
	}
	t.load()
	return t
}

func (t *ThreadStore) keyThreads() string {
	return "chat:" + strconv.FormatInt(t.userID, 10) + ":threads"
}

func (t *ThreadStore) keyUnread() string {
	return "chat:" + strconv.FormatInt(t.userID, 10) + ":unread"
}

func (t *ThreadStore) keyActive() string {
	return "chat:" + strconv.FormatInt(t.userID, 10) + ":active"
}

func (t *ThreadStore) load() {
	if raw, err := t.st.Get(t.keyThreads()); err == nil {
		if err := json.Unmarshal([]byte(raw), &t.threads); err != nil {
			t.log.Warn().Err(err).Msg("discarding corrupt thread storage")
			t.threads = make(map[int64]*thread)
		}
	}
	if raw, err := t.st.Get(t.keyUnread()); err == nil {
		if err := json.Unmarshal([]byte(raw), &t.unread); err != nil {
			t.unread = make(map[int64]int)
		}
	}
	if raw, err := t.st.Get(t.keyActive()); err == nil {
		t.active, _ = strconv.ParseInt(raw, 10, 64)
	}
}

// Thread returns a copy of the conversation with peerID, oldest first.
func (t *ThreadStore) Thread(peerID int64) []Message {
	th, ok := t.threads[peerID]
	if !ok {
		return nil
	}
	return append([]Message(nil), th.Messages...)
}

// Unread returns the unread counter for peerID.
func (t *ThreadStore) Unread(peerID int64) int { return t.unread[peerID] }

// ActivePeer returns the persisted selected conversation, 0 when none.
func (t *ThreadStore) ActivePeer() int64 { return t.active }

// SetActive records the selected conversation.
func (t *ThreadStore) SetActive(peerID int64) {
	t.active = peerID
	if err := t.st.Set(t.keyActive(), strconv.FormatInt(peerID, 10)); err != nil {
		t.log.Warn().Err(err).Msg("failed to persist active peer")
	}
}

// ResetUnread zeroes the counter for peerID and persists.
func (t *ThreadStore) ResetUnread(peerID int64) {
	if t.unread[peerID] == 0 {
		return
	}
	delete(t.unread, peerID)
	t.persistUnread()
}

// IncUnread bumps the counter for peerID and persists.
func (t *ThreadStore) IncUnread(peerID int64) {
	t.unread[peerID]++
	t.persistUnread()
}

// ReplaceThread overwrites the conversation with peerID, keeping at most the
// newest maxThreadLen entries.
func (t *ThreadStore) ReplaceThread(peerID int64, msgs []Message) {
	if len(msgs) > maxThreadLen {
		msgs = msgs[len(msgs)-maxThreadLen:]
	}
	t.threads[peerID] = &thread{
		Messages:   append([]Message(nil), msgs...),
		LastActive: time.Now(),
	}
	t.persistThreads(peerID)
}

// Append adds one message to the conversation with peerID, dropping the
// oldest entry when the bound is hit. Duplicate ids are ignored.
func (t *ThreadStore) Append(peerID int64, m Message) {
	th, ok := t.threads[peerID]
	if !ok {
		th = &thread{}
		t.threads[peerID] = th
	}
	for _, existing := range th.Messages {
		if existing.ID == m.ID {
			return
		}
	}
	th.Messages = append(th.Messages, m)
	if len(th.Messages) > maxThreadLen {
		th.Messages = th.Messages[len(th.Messages)-maxThreadLen:]
	}
	th.LastActive = time.Now()
	t.persistThreads(peerID)
}

func (t *ThreadStore) persistUnread() {
	b, err := json.Marshal(t.unread)
	if err != nil {
		return
	}
	if err := t.st.Set(t.keyUnread(), string(b)); err != nil {
		t.log.Warn().Err(err).Msg("failed to persist unread counters")
	}
}

// persistThreads writes the thread map, compacting on quota pressure. The
// current thread is the one that triggered the write; compaction prefers
// evicting other, less recently active conversations before touching it.
func (t *ThreadStore) persistThreads(current int64) {
	if t.tryPersistThreads() {
		return
	}

	// Step 1: evict the least recently active other threads. A fifth of the
	// conversations, at least one, at most two.
	n := len(t.threads) / 5
	if n < 1 {
		n = 1
	}
	if n > 2 {
		n = 2
	}
	evicted := t.evictStale(current, n)
	if evicted > 0 && t.tryPersistThreads() {
		return
	}

	// Step 2: halve the triggering thread, keeping the newest messages.
	if th, ok := t.threads[current]; ok && len(th.Messages) > 1 {
		th.Messages = th.Messages[len(th.Messages)/2:]
		if t.tryPersistThreads() {
			return
		}
	}

	// Out of room even after compaction; the newest change is dropped from
	// disk but stays in memory.
	t.log.Warn().Int64("peer", current).Msg("chat storage quota exhausted, change not persisted")
}

func (t *ThreadStore) tryPersistThreads() bool {
	b, err := json.Marshal(t.threads)
	if err != nil {
		t.log.Error().Err(err).Msg("failed to encode threads")
		return true
	}
	err = t.st.Set(t.keyThreads(), string(b))
	if err == nil {
		return true
	}
	if !errors.Is(err, store.ErrQuotaExceeded) {
		t.log.Warn().Err(err).Msg("failed to persist threads")
		return true
	}
	return false
}

// evictStale removes up to n threads other than keep, least recently active
// first, and returns how many were removed.
func (t *ThreadStore) evictStale(keep int64, n int) int {
	type cand struct {
		peer int64
		at   time.Time
	}
	cands := make([]cand, 0, len(t.threads))
	for peer, th := range t.threads {
		if peer == keep {
			continue
		}
		cands = append(cands, cand{peer: peer, at: th.LastActive})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].at.Before(cands[j].at) })

	evicted := 0
	for _, c := range cands {
		if evicted >= n {
			break
		}
		delete(t.threads, c.peer)
		delete(t.unread, c.peer)
		evicted++
	}
	if evicted > 0 {
		t.persistUnread()
	}
	return evicted
}
