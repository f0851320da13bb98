package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
)

type sessionRepository struct {
	db *DB
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) load(sess session.Session) session.Session {
	if grp, ok := repo.db.groups[sess.GroupID]; ok {
		g := *grp
		for _, m := range repo.db.groupMembers {
			if m.GroupID == g.ID {
				g.Members = append(g.Members, *m)
			}
		}
		sort.Slice(g.Members, func(i, j int) bool { return g.Members[i].UserID < g.Members[j].UserID })
		sess.Group = &g
	}
	if cnt, ok := repo.db.contents[sess.ContentID]; ok {
		c := *cnt
		sess.Content = &c
	}

	sess.Members = make([]session.Member, 0)
	for _, m := range repo.db.sessionMembers {
		if m.SessionID == sess.ID {
			mbr := *m
			if usr, ok := repo.db.users[mbr.UserID]; ok {
				u := *usr
				mbr.User = &u
			}
			sess.Members = append(sess.Members, mbr)
		}
	}
	sort.Slice(sess.Members, func(i, j int) bool { return sess.Members[i].UserID < sess.Members[j].UserID })

	sess.Rounds = make([]session.Round, 0)
	for _, r := range repo.db.rounds {
		if r.SessionID == sess.ID {
			sess.Rounds = append(sess.Rounds, *r)
		}
	}
	sort.Slice(sess.Rounds, func(i, j int) bool { return sess.Rounds[i].RoundIndex < sess.Rounds[j].RoundIndex })
	return sess
}

func (repo *sessionRepository) CreateSession(_ context.Context, sess session.Session, _ ...core.DBExecutor) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sess.ID = uuid.New().String()
	stored := sess
	stored.Group, stored.Content, stored.Members, stored.Rounds = nil, nil, nil, nil
	repo.db.sessions[sess.ID] = &stored
	return sess, nil
}

func (repo *sessionRepository) GetSessionByID(_ context.Context, id string, _ ...core.DBExecutor) (session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sess, ok := repo.db.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return repo.load(*sess), nil
}

func (repo *sessionRepository) QuerySessionsByGroup(_ context.Context, groupID string, _ ...core.DBExecutor) ([]session.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]session.Session, 0)
	for _, s := range repo.db.sessions {
		if s.GroupID == groupID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *sessionRepository) CountFinishedSessions(_ context.Context, groupID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, s := range repo.db.sessions {
		if s.GroupID == groupID && s.Status == session.StatusFinished {
			n++
		}
	}
	return n, nil
}

func (repo *sessionRepository) UpdateSession(_ context.Context, sess session.Session, _ ...core.DBExecutor) (session.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessions[sess.ID]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	if sess.Status != "" {
		orig.Status = sess.Status
	}
	if !sess.StartsAt.IsZero() {
		orig.StartsAt = sess.StartsAt
	}
	if !sess.EndsAt.IsZero() {
		orig.EndsAt = sess.EndsAt
	}
	if !sess.UpdatedAt.IsZero() {
		orig.UpdatedAt = sess.UpdatedAt
	}
	return *orig, nil
}

func (repo *sessionRepository) CreateSessionMember(_ context.Context, mbr session.Member, _ ...core.DBExecutor) (session.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	mbr.ID = uuid.New().String()
	repo.db.sessionMembers[mbr.ID] = &mbr
	return mbr, nil
}

func (repo *sessionRepository) UpdateSessionMember(_ context.Context, mbr session.Member, _ ...core.DBExecutor) (session.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.sessionMembers[mbr.ID]
	if !ok {
		return session.Member{}, session.ErrNotFound
	}
	if mbr.AttendanceStatus != "" {
		orig.AttendanceStatus = mbr.AttendanceStatus
	}
	if !mbr.UpdatedAt.IsZero() {
		orig.UpdatedAt = mbr.UpdatedAt
	}
	return *orig, nil
}

func (repo *sessionRepository) CreateRounds(_ context.Context, rounds []session.Round, _ ...core.DBExecutor) ([]session.Round, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	created := make([]session.Round, 0, len(rounds))
	for _, rnd := range rounds {
		rnd.ID = uuid.New().String()
		stored := rnd
		repo.db.rounds[rnd.ID] = &stored
		created = append(created, rnd)
	}
	return created, nil
}

func (repo *sessionRepository) UpdateRoundPrompt(_ context.Context, rnd session.Round, _ ...core.DBExecutor) (session.Round, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.rounds[rnd.ID]
	if !ok {
		return session.Round{}, session.ErrRoundNotFound
	}
	orig.Prompt = rnd.Prompt
	if !rnd.UpdatedAt.IsZero() {
		orig.UpdatedAt = rnd.UpdatedAt
	}
	return *orig, nil
}

func (repo *sessionRepository) UpdateRoundStatus(_ context.Context, roundID, fromStatus, toStatus string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	rnd, ok := repo.db.rounds[roundID]
	if !ok {
		return session.ErrRoundNotFound
	}
	if rnd.Status != fromStatus {
		return session.ErrRoundStatusChanged
	}
	rnd.Status = toStatus
	return nil
}

func (repo *sessionRepository) CreateEvent(_ context.Context, evt session.Event, _ ...core.DBExecutor) (session.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	evt.ID = uuid.New().String()
	repo.db.events = append(repo.db.events, evt)
	return evt, nil
}

func (repo *sessionRepository) QueryEvents(_ context.Context, sessionID, roundID string, _ ...core.DBExecutor) ([]session.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	roundIDs := make(map[string]bool)
	for _, r := range repo.db.rounds {
		if r.SessionID == sessionID {
			roundIDs[r.ID] = true
		}
	}

	events := make([]session.Event, 0)
	for _, e := range repo.db.events {
		if !roundIDs[e.RoundID] {
			continue
		}
		if roundID != "" && e.RoundID != roundID {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

func (repo *sessionRepository) EventUserIDs(_ context.Context, roundID, eventType string, _ ...core.DBExecutor) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, e := range repo.db.events {
		if e.RoundID == roundID && e.EventType == eventType && !seen[e.UserID] {
			seen[e.UserID] = true
			ids = append(ids, e.UserID)
		}
	}
	return ids, nil
}

func (repo *sessionRepository) EventExists(_ context.Context, roundID, eventType string, _ ...core.DBExecutor) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, e := range repo.db.events {
		if e.RoundID == roundID && e.EventType == eventType {
			return true, nil
		}
	}
	return false, nil
}

func (repo *sessionRepository) GetSharedCardByRound(_ context.Context, roundID string, _ ...core.DBExecutor) (session.SharedCard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if card, ok := repo.db.sharedCards[roundID]; ok {
		return *card, nil
	}
	return session.SharedCard{}, session.ErrNotFound
}

func (repo *sessionRepository) UpsertSharedCard(_ context.Context, card session.SharedCard, _ ...core.DBExecutor) (session.SharedCard, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.sharedCards[card.RoundID]; ok {
		card.ID = existing.ID
		card.CreatedAt = existing.CreatedAt
	} else {
		card.ID = uuid.New().String()
	}
	stored := card
	repo.db.sharedCards[card.RoundID] = &stored
	return card, nil
}

func (repo *sessionRepository) QuerySharedCards(_ context.Context, sessionID string, _ ...core.DBExecutor) ([]session.SharedCard, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	cards := make([]session.SharedCard, 0)
	for _, r := range repo.db.rounds {
		if r.SessionID != sessionID {
			continue
		}
		if card, ok := repo.db.sharedCards[r.ID]; ok {
			c := *card
			c.RoundIndex = r.RoundIndex
			c.RoundStatus = r.Status
			cards = append(cards, c)
		}
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].CreatedAt.Before(cards[j].CreatedAt) })
	return cards, nil
}
