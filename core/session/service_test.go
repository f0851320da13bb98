package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

type nopMailService struct{}

func (nopMailService) SendMessages(...*core.EmailMessage) {}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// recordingBroadcaster captures published bus events for assertions.
type recordingBroadcaster struct {
	sync.Mutex
	published []busEvent
}

type busEvent struct {
	Channel string
	Event   string
}

func (b *recordingBroadcaster) Publish(channel, event string, payload interface{}) {
	b.Lock()
	defer b.Unlock()
	b.published = append(b.published, busEvent{channel, event})
}

func (b *recordingBroadcaster) events() []busEvent {
	b.Lock()
	defer b.Unlock()
	return append([]busEvent(nil), b.published...)
}

func (b *recordingBroadcaster) last() busEvent {
	evts := b.events()
	if len(evts) == 0 {
		return busEvent{}
	}
	return evts[len(evts)-1]
}

type testEnv struct {
	db       *dummydb.DB
	usrRepo  user.Repository
	grpRepo  group.Repository
	sessRepo session.Repository
	grpSvc   group.Service
	sessSvc  session.Service
	bcast    *recordingBroadcaster
	conf     *core.Config
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{AppName: "darasa", TestMode: true}
	usrRepo := dummydb.NewUserRepository(db)
	cntRepo := dummydb.NewContentRepository(db)
	grpRepo := dummydb.NewGroupRepository(db)
	sessRepo := dummydb.NewSessionRepository(db)

	usrSvc := user.NewService(db, usrRepo, nopMailService{}, conf)
	cntSvc := content.NewService(cntRepo)
	grpSvc := group.NewService(db, grpRepo, usrSvc, nopMailService{}, conf)
	bcast := &recordingBroadcaster{}
	sessSvc := session.NewService(db, sessRepo, grpSvc, cntSvc, bcast, nopLogger{}, conf)

	return &testEnv{
		db:       db,
		usrRepo:  usrRepo,
		grpRepo:  grpRepo,
		sessRepo: sessRepo,
		grpSvc:   grpSvc,
		sessSvc:  sessSvc,
		bcast:    bcast,
		conf:     conf,
	}
}

func (env *testEnv) createUser(t *testing.T, name string) user.User {
	t.Helper()
	now := time.Now().UTC()
	active := true
	usr, err := env.usrRepo.CreateUser(context.Background(), user.User{
		Name:      name,
		Username:  name,
		Email:     name + "@test.cd",
		IsActive:  &active,
		Roles:     []string{user.RoleStudent},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("creating user failed: %v", err)
	}
	return usr
}

// createGroup creates a group owned by users[0] with every user an ACTIVE
// member, plus a content item owned by users[0].
func (env *testEnv) createGroup(t *testing.T, users ...user.User) (group.Group, content.Content) {
	t.Helper()
	grp, err := env.grpSvc.Create(users[0].ID, group.NewGroup{Name: "Study Squad"})
	if err != nil {
		t.Fatalf("creating group failed: %v", err)
	}
	now := time.Now().UTC()
	for _, usr := range users[1:] {
		if _, err = env.grpRepo.CreateGroupMember(context.Background(), group.Member{
			GroupID:   grp.ID,
			UserID:    usr.ID,
			Role:      group.RoleMember,
			Status:    group.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			t.Fatalf("creating group member failed: %v", err)
		}
	}
	cnt, err := dummyContent(env, users[0].ID)
	if err != nil {
		t.Fatalf("creating content failed: %v", err)
	}
	return grp, cnt
}

func dummyContent(env *testEnv, ownerID string) (content.Content, error) {
	return dummydb.NewContentRepository(env.db).CreateContent(context.Background(), content.Content{
		OwnerID: ownerID,
		Title:   "Photosynthesis, chapter 3",
		Kind:    content.KindDocument,
		URI:     "https://cdn.test.cd/photosynthesis.pdf",
	})
}

// createSession spins up a group of n users and a CREATED session with the
// given number of rounds. Session members start out JOINED.
func (env *testEnv) createSession(t *testing.T, n, rounds int) ([]user.User, group.Group, session.Session) {
	t.Helper()
	users := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, env.createUser(t, fmt.Sprintf("member%02d", i)))
	}
	grp, cnt := env.createGroup(t, users...)
	sess, err := env.sessSvc.Create(grp.ID, users[0].ID, session.NewSession{
		ContentID:   cnt.ID,
		Mode:        session.ModePISprint,
		Layer:       session.LayerL1,
		RoundsCount: rounds,
	})
	if err != nil {
		t.Fatalf("creating session failed: %v", err)
	}
	return users, grp, sess
}

// roleHolder returns the session member holding the given functional role.
func roleHolder(t *testing.T, sess session.Session, role string) session.Member {
	t.Helper()
	for _, m := range sess.Members {
		if m.AssignedRole == role {
			return m
		}
	}
	t.Fatalf("no member holds role %s", role)
	return session.Member{}
}

func submitAll(t *testing.T, env *testEnv, sess session.Session, roundIdx int, eventType string) {
	t.Helper()
	for _, m := range sess.Members {
		if _, err := env.sessSvc.SubmitEvent(sess.ID, m.UserID, session.NewEvent{
			RoundIndex: roundIdx,
			EventType:  eventType,
			Payload:    session.EventPayload{Choice: "B"},
		}); err != nil {
			t.Fatalf("submitting %s for %s failed: %v", eventType, m.UserID, err)
		}
	}
}

func TestSessionCreate(t *testing.T) {
	env := setup(t)

	t.Run("requires two active members", func(t *testing.T) {
		solo := env.createUser(t, "solo")
		grp, cnt := env.createGroup(t, solo)
		_, err := env.sessSvc.Create(grp.ID, solo.ID, session.NewSession{ContentID: cnt.ID, RoundsCount: 1})
		var vErr *core.ValidationError
		if !assert.ErrorAs(t, err, &vErr) {
			t.Fatalf("expected validation error; got %v", err)
		}
	})

	t.Run("requires group membership", func(t *testing.T) {
		users, grp, _ := env.createSession(t, 2, 1)
		stranger := env.createUser(t, "stranger")
		_, err := env.sessSvc.Create(grp.ID, stranger.ID, session.NewSession{ContentID: "x", RoundsCount: 1})
		var pErr *core.PermissionError
		if !assert.ErrorAs(t, err, &pErr) {
			t.Fatalf("expected permission error; got %v", err)
		}
		_ = users
	})

	t.Run("creates members and rounds", func(t *testing.T) {
		users, _, sess := env.createSession(t, 3, 4)

		assert.Equal(t, session.StatusCreated, sess.Status)
		assert.Len(t, sess.Members, len(users))
		for _, m := range sess.Members {
			assert.Equal(t, session.AttendanceJoined, m.AttendanceStatus)
		}
		assert.Len(t, sess.Rounds, 4)
		for i, rnd := range sess.Rounds {
			assert.Equal(t, i+1, rnd.RoundIndex)
			assert.Equal(t, session.RoundCreated, rnd.Status)
			assert.Equal(t, session.DefaultTimers(session.LayerL1), rnd.Timing)
		}

		// roles follow member order (sorted by user ID) on the first session
		holders := make(map[string]string)
		for _, m := range sess.Members {
			if m.AssignedRole != "" {
				holders[m.AssignedRole] = m.UserID
			}
		}
		assert.Len(t, holders, 3)
		assert.NotEmpty(t, holders[session.RoleFacilitator])
		assert.NotEmpty(t, holders[session.RoleTimekeeper])
		assert.NotEmpty(t, holders[session.RoleClarifier])
	})
}

func TestRoleRotationAcrossSessions(t *testing.T) {
	env := setup(t)
	_, grp, sess := env.createSession(t, 3, 1)

	firstFac := roleHolder(t, sess, session.RoleFacilitator)

	// finish the session; the next one must rotate the facilitator
	if _, err := env.sessSvc.UpdateStatus(sess.ID, firstFac.UserID, session.UpdateSessionStatus{Status: session.StatusFinished}); err != nil {
		t.Fatalf("finishing session failed: %v", err)
	}

	next, err := env.sessSvc.Create(grp.ID, firstFac.UserID, session.NewSession{ContentID: sess.ContentID, RoundsCount: 1})
	if err != nil {
		t.Fatalf("creating second session failed: %v", err)
	}
	secondFac := roleHolder(t, next, session.RoleFacilitator)
	assert.NotEqual(t, firstFac.UserID, secondFac.UserID, "facilitator must rotate after a finished session")

	// the previous facilitator moves to the last assigned seat
	prev := next.Members
	var prevRole string
	for _, m := range prev {
		if m.UserID == firstFac.UserID {
			prevRole = m.AssignedRole
		}
	}
	assert.Equal(t, session.RoleClarifier, prevRole)
}

func TestSessionStart(t *testing.T) {
	env := setup(t)
	users, _, sess := env.createSession(t, 2, 1)

	started, err := env.sessSvc.Start(sess.ID, users[0].ID)
	if err != nil {
		t.Fatalf("starting session failed: %v", err)
	}
	assert.Equal(t, session.StatusRunning, started.Status)
	assert.False(t, started.StartsAt.IsZero())
	assert.Equal(t, session.BcastSessionStarted, env.bcast.last().Event)

	// starting twice is rejected
	_, err = env.sessSvc.Start(sess.ID, users[0].ID)
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestAdvanceRoundQuorum(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 3, 1)
	fac := roleHolder(t, sess, session.RoleFacilitator)

	t.Run("facilitator only", func(t *testing.T) {
		other := roleHolder(t, sess, session.RoleTimekeeper)
		_, err := env.sessSvc.AdvanceRound(sess.ID, 1, other.UserID, session.RoundDiscussing)
		var pErr *core.PermissionError
		assert.ErrorAs(t, err, &pErr)
	})

	t.Run("no votes yet", func(t *testing.T) {
		_, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDiscussing)
		var cErr *core.ConflictError
		if !assert.ErrorAs(t, err, &cErr) {
			t.Fatalf("expected conflict; got %v", err)
		}
		assert.Equal(t, 3, cErr.Required)
		assert.Equal(t, 0, cErr.Current)
		assert.Len(t, cErr.Missing, 3)
	})

	t.Run("resubmitting does not double count", func(t *testing.T) {
		vote := session.NewEvent{RoundIndex: 1, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "A"}}
		if _, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, vote); err != nil {
			t.Fatalf("submitting vote failed: %v", err)
		}
		if _, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, vote); err != nil {
			t.Fatalf("resubmitting vote failed: %v", err)
		}

		_, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDiscussing)
		var cErr *core.ConflictError
		if !assert.ErrorAs(t, err, &cErr) {
			t.Fatalf("expected conflict; got %v", err)
		}
		assert.Equal(t, 3, cErr.Required)
		assert.Equal(t, 1, cErr.Current)
		assert.Len(t, cErr.Missing, 2)
		assert.NotContains(t, cErr.Missing, fac.UserID)
	})

	t.Run("full quorum advances", func(t *testing.T) {
		submitAll(t, env, sess, 1, session.EventPIVote)
		rnd, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDiscussing)
		if err != nil {
			t.Fatalf("advancing round failed: %v", err)
		}
		assert.Equal(t, session.RoundDiscussing, rnd.Status)
		assert.Equal(t, session.BcastRoundAdvanced, env.bcast.last().Event)
	})

	t.Run("revote quorum gates EXPLAINING", func(t *testing.T) {
		_, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundExplaining)
		var cErr *core.ConflictError
		if !assert.ErrorAs(t, err, &cErr) {
			t.Fatalf("expected conflict; got %v", err)
		}
		assert.Equal(t, 3, cErr.Required)
		assert.Equal(t, 0, cErr.Current)

		submitAll(t, env, sess, 1, session.EventPIRevote)
		rnd, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundExplaining)
		if err != nil {
			t.Fatalf("advancing round failed: %v", err)
		}
		assert.Equal(t, session.RoundExplaining, rnd.Status)
	})

	t.Run("explanation gates DONE", func(t *testing.T) {
		_, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDone)
		var cErr *core.ConflictError
		if !assert.ErrorAs(t, err, &cErr) {
			t.Fatalf("expected conflict; got %v", err)
		}
		// with fewer than 5 members there is no SCRIBE seat; the gate still
		// requires the explanation event, which only a SCRIBE may submit
	})
}

func TestQuorumShrinksWhenMemberLeaves(t *testing.T) {
	env := setup(t)
	users, _, sess := env.createSession(t, 3, 1)
	fac := roleHolder(t, sess, session.RoleFacilitator)

	// a member leaving drops them out of the quorum denominator
	var leaver user.User
	for _, u := range users {
		if u.ID != fac.UserID {
			leaver = u
			break
		}
	}
	if _, err := env.sessSvc.Leave(sess.ID, leaver.ID); err != nil {
		t.Fatalf("leaving session failed: %v", err)
	}

	sess, err := env.sessSvc.GetByID(sess.ID, fac.UserID)
	if err != nil {
		t.Fatalf("reloading session failed: %v", err)
	}
	joined := sess.JoinedMembers()
	assert.Len(t, joined, 2)

	for _, m := range joined {
		if _, err := env.sessSvc.SubmitEvent(sess.ID, m.UserID, session.NewEvent{
			RoundIndex: 1, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "C"},
		}); err != nil {
			t.Fatalf("submitting vote failed: %v", err)
		}
	}
	rnd, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDiscussing)
	if err != nil {
		t.Fatalf("advancing round failed: %v", err)
	}
	assert.Equal(t, session.RoundDiscussing, rnd.Status)

	// left members may not submit
	_, err = env.sessSvc.SubmitEvent(sess.ID, leaver.ID, session.NewEvent{
		RoundIndex: 1, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "C"},
	})
	var pErr *core.PermissionError
	assert.ErrorAs(t, err, &pErr)

	// rejoining restores both rights and quorum weight
	mbr, err := env.sessSvc.Join(sess.ID, leaver.ID)
	if err != nil {
		t.Fatalf("rejoining failed: %v", err)
	}
	assert.Equal(t, session.AttendanceJoined, mbr.AttendanceStatus)
}

func TestAdvanceRoundLooseTargets(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 2, 1)
	fac := roleHolder(t, sess, session.RoleFacilitator)

	// targets outside the guarded trio are persisted as-is
	rnd, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, "PAUSED")
	if err != nil {
		t.Fatalf("advancing to custom status failed: %v", err)
	}
	assert.Equal(t, "PAUSED", rnd.Status)

	// DONE remains an ordinary guarded target, not a terminal one:
	// advancing away from it is permitted
	if err := env.sessRepo.UpdateRoundStatus(context.Background(), rnd.ID, "PAUSED", session.RoundDone); err != nil {
		t.Fatalf("forcing DONE failed: %v", err)
	}
	rnd, err = env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, "REVIEW")
	if err != nil {
		t.Fatalf("advancing out of DONE failed: %v", err)
	}
	assert.Equal(t, "REVIEW", rnd.Status)
}

func TestUpdateRoundStatusCAS(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 2, 1)
	rnd := sess.Rounds[0]

	if err := env.sessRepo.UpdateRoundStatus(context.Background(), rnd.ID, session.RoundCreated, session.RoundDiscussing); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	// a second writer holding the stale status loses
	err := env.sessRepo.UpdateRoundStatus(context.Background(), rnd.ID, session.RoundCreated, session.RoundExplaining)
	assert.Equal(t, session.ErrRoundStatusChanged, err)
}

func TestUpdatePrompt(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 2, 1)
	fac := roleHolder(t, sess, session.RoleFacilitator)
	other := roleHolder(t, sess, session.RoleTimekeeper)

	_, err := env.sessSvc.UpdatePrompt(sess.ID, 1, other.UserID, session.UpdatePrompt{Text: "nope"})
	var pErr *core.PermissionError
	assert.ErrorAs(t, err, &pErr)

	rnd, err := env.sessSvc.UpdatePrompt(sess.ID, 1, fac.UserID, session.UpdatePrompt{
		Text:               "What limits the rate of photosynthesis at noon?",
		Options:            []string{"A", "B", "C", "D"},
		LinkedHighlightIDs: []string{"hl-1"},
	})
	if err != nil {
		t.Fatalf("updating prompt failed: %v", err)
	}
	assert.Equal(t, session.BcastPromptUpdated, env.bcast.last().Event)

	// a later update replaces the prompt entirely, dropped fields included
	rnd, err = env.sessSvc.UpdatePrompt(sess.ID, 1, fac.UserID, session.UpdatePrompt{Text: "Rewritten"})
	if err != nil {
		t.Fatalf("updating prompt failed: %v", err)
	}
	assert.Equal(t, "Rewritten", rnd.Prompt.Text)
	assert.Empty(t, rnd.Prompt.Options)
	assert.Empty(t, rnd.Prompt.LinkedHighlightIDs)
}

func TestSharedCardLifecycle(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 5, 1)
	fac := roleHolder(t, sess, session.RoleFacilitator)
	scribe := roleHolder(t, sess, session.RoleScribe)

	if _, err := env.sessSvc.UpdatePrompt(sess.ID, 1, fac.UserID, session.UpdatePrompt{Text: "Why do leaves wilt?"}); err != nil {
		t.Fatalf("updating prompt failed: %v", err)
	}

	t.Run("scribe only", func(t *testing.T) {
		_, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, session.NewEvent{
			RoundIndex: 1,
			EventType:  session.EventGroupExplanation,
			Payload:    session.EventPayload{Explanation: "water pressure"},
		})
		var pErr *core.PermissionError
		assert.ErrorAs(t, err, &pErr)
	})

	t.Run("creates the card with the round prompt", func(t *testing.T) {
		_, err := env.sessSvc.SubmitEvent(sess.ID, scribe.UserID, session.NewEvent{
			RoundIndex: 1,
			EventType:  session.EventGroupExplanation,
			Payload: session.EventPayload{
				GroupAnswer: "B",
				Explanation: "Loss of turgor pressure in the cells.",
				KeyTerms:    []string{"turgor"},
			},
		})
		if err != nil {
			t.Fatalf("submitting explanation failed: %v", err)
		}

		cards, err := env.sessSvc.SharedCards(sess.ID, fac.UserID)
		if err != nil {
			t.Fatalf("listing cards failed: %v", err)
		}
		if len(cards) != 1 {
			t.Fatalf("expected 1 card; got %d", len(cards))
		}
		assert.Equal(t, "Why do leaves wilt?", cards[0].Prompt, "prompt falls back to the round's")
		assert.Equal(t, "B", cards[0].GroupAnswer)
		assert.Equal(t, 1, cards[0].RoundIndex)
		assert.Equal(t, scribe.UserID, cards[0].CreatedByUserID)
	})

	t.Run("resubmission updates in place and keeps the prompt", func(t *testing.T) {
		cards, _ := env.sessSvc.SharedCards(sess.ID, fac.UserID)
		origID := cards[0].ID

		_, err := env.sessSvc.SubmitEvent(sess.ID, scribe.UserID, session.NewEvent{
			RoundIndex: 1,
			EventType:  session.EventGroupExplanation,
			Payload: session.EventPayload{
				GroupAnswer: "C",
				Explanation: "Corrected after discussion.",
			},
		})
		if err != nil {
			t.Fatalf("resubmitting explanation failed: %v", err)
		}

		cards, err = env.sessSvc.SharedCards(sess.ID, fac.UserID)
		if err != nil {
			t.Fatalf("listing cards failed: %v", err)
		}
		if len(cards) != 1 {
			t.Fatalf("expected a single card after resubmission; got %d", len(cards))
		}
		assert.Equal(t, origID, cards[0].ID)
		assert.Equal(t, "Why do leaves wilt?", cards[0].Prompt, "existing prompt survives a promptless resubmission")
		assert.Equal(t, "C", cards[0].GroupAnswer)
		assert.Equal(t, "Corrected after discussion.", cards[0].Explanation)
	})

	t.Run("explanation unlocks DONE", func(t *testing.T) {
		rnd, err := env.sessSvc.AdvanceRound(sess.ID, 1, fac.UserID, session.RoundDone)
		if err != nil {
			t.Fatalf("advancing to DONE failed: %v", err)
		}
		assert.Equal(t, session.RoundDone, rnd.Status)
	})
}

func TestSubmitEventLedger(t *testing.T) {
	env := setup(t)
	_, _, sess := env.createSession(t, 2, 2)
	fac := roleHolder(t, sess, session.RoleFacilitator)

	t.Run("unknown round", func(t *testing.T) {
		_, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, session.NewEvent{
			RoundIndex: 9, EventType: session.EventPIVote,
		})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("broadcast vocabulary", func(t *testing.T) {
		if _, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, session.NewEvent{
			RoundIndex: 1, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "A"},
		}); err != nil {
			t.Fatalf("submitting vote failed: %v", err)
		}
		assert.Equal(t, session.BcastVoteSubmitted, env.bcast.last().Event)

		if _, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, session.NewEvent{
			RoundIndex: 1, EventType: session.EventChatMessage, Payload: session.EventPayload{Text: "salut"},
		}); err != nil {
			t.Fatalf("submitting chat failed: %v", err)
		}
		assert.Equal(t, session.BcastChatMessage, env.bcast.last().Event)
	})

	t.Run("ledger is append-only and filterable", func(t *testing.T) {
		if _, err := env.sessSvc.SubmitEvent(sess.ID, fac.UserID, session.NewEvent{
			RoundIndex: 2, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "D"},
		}); err != nil {
			t.Fatalf("submitting vote failed: %v", err)
		}

		all, err := env.sessSvc.Events(sess.ID, fac.UserID)
		if err != nil {
			t.Fatalf("listing events failed: %v", err)
		}
		assert.Len(t, all, 3)

		round2, err := env.sessSvc.Events(sess.ID, fac.UserID, 2)
		if err != nil {
			t.Fatalf("listing round events failed: %v", err)
		}
		assert.Len(t, round2, 1)
		assert.Equal(t, "D", round2[0].Payload.Choice)
	})
}

func TestUpdateStatusFinish(t *testing.T) {
	t.Run("loose finish by default", func(t *testing.T) {
		env := setup(t)
		_, _, sess := env.createSession(t, 2, 3)
		fac := roleHolder(t, sess, session.RoleFacilitator)

		finished, err := env.sessSvc.UpdateStatus(sess.ID, fac.UserID, session.UpdateSessionStatus{Status: session.StatusFinished})
		if err != nil {
			t.Fatalf("finishing session failed: %v", err)
		}
		assert.Equal(t, session.StatusFinished, finished.Status)
		assert.False(t, finished.EndsAt.IsZero())
	})

	t.Run("strict finish requires all rounds DONE", func(t *testing.T) {
		env := setup(t)
		env.conf.Session.StrictFinish = true
		_, _, sess := env.createSession(t, 2, 2)
		fac := roleHolder(t, sess, session.RoleFacilitator)

		_, err := env.sessSvc.UpdateStatus(sess.ID, fac.UserID, session.UpdateSessionStatus{Status: session.StatusFinished})
		var cErr *core.ConflictError
		if !assert.ErrorAs(t, err, &cErr) {
			t.Fatalf("expected conflict; got %v", err)
		}
		assert.Equal(t, 2, cErr.Required)
		assert.Equal(t, 0, cErr.Current)

		for _, rnd := range sess.Rounds {
			if err := env.sessRepo.UpdateRoundStatus(context.Background(), rnd.ID, session.RoundCreated, session.RoundDone); err != nil {
				t.Fatalf("forcing round DONE failed: %v", err)
			}
		}
		finished, err := env.sessSvc.UpdateStatus(sess.ID, fac.UserID, session.UpdateSessionStatus{Status: session.StatusFinished})
		if err != nil {
			t.Fatalf("finishing session failed: %v", err)
		}
		assert.Equal(t, session.StatusFinished, finished.Status)
	})

	t.Run("finished sessions are read-only", func(t *testing.T) {
		env := setup(t)
		_, _, sess := env.createSession(t, 2, 1)
		fac := roleHolder(t, sess, session.RoleFacilitator)

		if _, err := env.sessSvc.UpdateStatus(sess.ID, fac.UserID, session.UpdateSessionStatus{Status: session.StatusFinished}); err != nil {
			t.Fatalf("finishing session failed: %v", err)
		}
		_, err := env.sessSvc.UpdateStatus(sess.ID, fac.UserID, session.UpdateSessionStatus{Status: session.StatusRunning})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestGroupModsMayFacilitate(t *testing.T) {
	env := setup(t)
	users, _, sess := env.createSession(t, 3, 1)

	// the group owner (creator) facilitates regardless of their assigned seat
	owner := users[0]
	caps := sess.CapabilitiesOf(owner.ID)
	assert.True(t, caps.Facilitate)
}
