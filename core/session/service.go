package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
)

var (
	// errors
	ErrNotFound           = errors.New("session not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrMinimumMembers     = errors.New("minimum 2 active members required to start a session")
	ErrSessionNotCreated  = errors.New("session has already been started")
	ErrSessionFinished    = errors.New("session is finished")
	ErrRoundsNotDone      = errors.New("all rounds must be done before finishing the session")
	ErrQuorumNotMet       = errors.New("waiting for all joined members")
	ErrExplanationMissing = errors.New("the group explanation has not been submitted yet")
	// ErrRoundStatusChanged signals a lost compare-and-swap on a round's
	// status: another caller advanced the round first.
	ErrRoundStatusChanged = errors.New("round status changed concurrently")

	errNotSessionMember = "not a joined member of this session"
	errNotFacilitator   = "facilitator permission required"
	errNotScribe        = "only the SCRIBE may submit the group explanation"
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		// GetSessionByID loads the full session view: group with members and
		// their users, content, session members with users, and rounds
		// ordered by index.
		GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		QuerySessionsByGroup(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]Session, error)
		CountFinishedSessions(ctx context.Context, groupID string, exec ...core.DBExecutor) (int, error)
		UpdateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)

		CreateSessionMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)
		UpdateSessionMember(ctx context.Context, mbr Member, exec ...core.DBExecutor) (Member, error)

		CreateRounds(ctx context.Context, rounds []Round, exec ...core.DBExecutor) ([]Round, error)
		UpdateRoundPrompt(ctx context.Context, rnd Round, exec ...core.DBExecutor) (Round, error)
		// UpdateRoundStatus transitions a round fromStatus -> toStatus as a
		// single compare-and-swap; it fails with ErrRoundStatusChanged when
		// the round is no longer in fromStatus.
		UpdateRoundStatus(ctx context.Context, roundID, fromStatus, toStatus string, exec ...core.DBExecutor) error

		CreateEvent(ctx context.Context, evt Event, exec ...core.DBExecutor) (Event, error)
		// QueryEvents returns ledger entries for the session, optionally
		// scoped to one round, ordered by creation time ascending.
		QueryEvents(ctx context.Context, sessionID, roundID string, exec ...core.DBExecutor) ([]Event, error)
		// EventUserIDs returns the distinct user IDs having at least one
		// event of the given type for the round.
		EventUserIDs(ctx context.Context, roundID, eventType string, exec ...core.DBExecutor) ([]string, error)
		EventExists(ctx context.Context, roundID, eventType string, exec ...core.DBExecutor) (bool, error)

		GetSharedCardByRound(ctx context.Context, roundID string, exec ...core.DBExecutor) (SharedCard, error)
		UpsertSharedCard(ctx context.Context, card SharedCard, exec ...core.DBExecutor) (SharedCard, error)
		// QuerySharedCards returns the session's shared cards annotated with
		// their round's index and current status, ordered by creation time.
		QuerySharedCards(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]SharedCard, error)
	}

	Service interface {
		Create(groupID, creatorID string, ns NewSession) (Session, error)
		GetByID(sessionID, userID string) (Session, error)
		QueryByGroup(groupID, userID string) ([]Session, error)
		Start(sessionID, userID string) (Session, error)
		UpdateStatus(sessionID, userID string, us UpdateSessionStatus) (Session, error)
		Join(sessionID, userID string) (Member, error)
		Leave(sessionID, userID string) (Member, error)

		UpdatePrompt(sessionID string, roundIndex int, userID string, up UpdatePrompt) (Round, error)
		AdvanceRound(sessionID string, roundIndex int, userID, toStatus string) (Round, error)
		SubmitEvent(sessionID, userID string, ne NewEvent) (Event, error)
		Events(sessionID, userID string, roundIndex ...int) ([]Event, error)
		SharedCards(sessionID, userID string) ([]SharedCard, error)
	}

	service struct {
		db       core.DB
		repo     Repository
		groupSvc group.Service
		cntSvc   content.Service
		bcast    core.Broadcaster
		logger   core.Logger
		conf     *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	groupSvc group.Service,
	cntSvc content.Service,
	bcast core.Broadcaster,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		db:       db,
		repo:     repo,
		groupSvc: groupSvc,
		cntSvc:   cntSvc,
		bcast:    bcast,
		logger:   logger,
		conf:     conf,
	}
}

// publish broadcasts an event on a channel. Broadcasting is best-effort: a
// misbehaving Broadcaster must never fail or undo the mutation it follows.
func (svc *service) publish(channel, event string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error("broadcast panic", r)
		}
	}()
	svc.bcast.Publish(channel, event, payload)
}

func (svc *service) Create(groupID, creatorID string, ns NewSession) (Session, error) {
	ctx := context.Background()

	if err := svc.groupSvc.AssertActiveMember(groupID, creatorID); err != nil {
		return Session{}, err
	}

	if _, err := svc.cntSvc.GetByID(ns.ContentID); err != nil {
		if errors.Cause(err) == content.ErrNotFound {
			return Session{}, core.NewValidationError(err, core.FieldError{Field: "content_id", Error: content.ErrNotFound.Error()})
		}
		return Session{}, errors.Wrap(err, "finding content")
	}

	members, err := svc.groupSvc.ActiveMembers(groupID)
	if err != nil {
		return Session{}, errors.Wrap(err, "fetching active members")
	}
	if len(members) < 2 {
		return Session{}, core.NewValidationError(ErrMinimumMembers)
	}

	// the rotation offset is rederived from history, not stored
	finished, err := svc.repo.CountFinishedSessions(ctx, groupID)
	if err != nil {
		return Session{}, errors.Wrap(err, "counting finished sessions")
	}

	now := time.Now().UTC()

	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	sess, err := svc.repo.CreateSession(ctx, Session{
		GroupID:   groupID,
		ContentID: ns.ContentID,
		Mode:      ns.Mode,
		Layer:     ns.Layer,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}, tx)
	if err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}

	for _, ra := range assignRoles(members, finished) {
		if _, err = svc.repo.CreateSessionMember(ctx, Member{
			SessionID:        sess.ID,
			UserID:           ra.UserID,
			AssignedRole:     ra.Role,
			AttendanceStatus: AttendanceJoined,
			CreatedAt:        now,
			UpdatedAt:        now,
		}, tx); err != nil {
			return Session{}, errors.Wrap(err, "creating session member")
		}
	}

	timing := DefaultTimers(ns.Layer)
	rounds := make([]Round, 0, ns.RoundsCount)
	for i := 1; i <= ns.RoundsCount; i++ {
		rounds = append(rounds, Round{
			SessionID:  sess.ID,
			RoundIndex: i,
			RoundType:  RoundTypePI,
			Timing:     timing,
			Status:     RoundCreated,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if _, err = svc.repo.CreateRounds(ctx, rounds, tx); err != nil {
		return Session{}, errors.Wrap(err, "creating rounds")
	}

	if err = tx.Commit(); err != nil {
		return Session{}, errors.Wrap(err, "committing transaction")
	}

	sess, err = svc.repo.GetSessionByID(ctx, sess.ID)
	if err != nil {
		return Session{}, errors.Wrap(err, "loading session")
	}
	svc.publish(groupID, BcastSessionUpdated, sess)
	return sess, nil
}

// getForMember loads the full session view and asserts the caller is an
// active member of its group.
func (svc *service) getForMember(ctx context.Context, sessionID, userID string) (Session, error) {
	sess, err := svc.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if err = svc.groupSvc.AssertActiveMember(sess.GroupID, userID); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (svc *service) GetByID(sessionID, userID string) (Session, error) {
	return svc.getForMember(context.Background(), sessionID, userID)
}

func (svc *service) QueryByGroup(groupID, userID string) ([]Session, error) {
	if err := svc.groupSvc.AssertActiveMember(groupID, userID); err != nil {
		return nil, err
	}
	return svc.repo.QuerySessionsByGroup(context.Background(), groupID)
}

func (svc *service) Start(sessionID, userID string) (Session, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Session{}, err
	}
	if sess.Status != StatusCreated {
		return Session{}, core.NewValidationError(ErrSessionNotCreated)
	}

	sess.Status = StatusRunning
	sess.StartsAt = time.Now().UTC()
	sess.UpdatedAt = sess.StartsAt
	sess, err = svc.repo.UpdateSession(ctx, sess)
	if err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}

	svc.publish(sess.ID, BcastSessionStarted, sess)
	return sess, nil
}

func (svc *service) UpdateStatus(sessionID, userID string, us UpdateSessionStatus) (Session, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Session{}, err
	}
	if !sess.CapabilitiesOf(userID).Facilitate {
		return Session{}, core.NewPermissionError(errNotFacilitator)
	}
	if sess.Status == StatusFinished {
		return Session{}, core.NewValidationError(ErrSessionFinished)
	}

	now := time.Now().UTC()
	if us.Status == StatusFinished {
		// by default finishing is a manual override that does not require
		// every round to have reached DONE
		if svc.conf.Session.StrictFinish {
			var done int
			for _, r := range sess.Rounds {
				if r.Status == RoundDone {
					done++
				}
			}
			if done < len(sess.Rounds) {
				return Session{}, core.NewConflictError(ErrRoundsNotDone, len(sess.Rounds), done, nil)
			}
		}
		sess.EndsAt = now
	}

	sess.Status = us.Status
	sess.UpdatedAt = now
	sess, err = svc.repo.UpdateSession(ctx, sess)
	if err != nil {
		return Session{}, errors.Wrap(err, "updating session")
	}

	svc.publish(sess.ID, BcastSessionUpdated, sess)
	return sess, nil
}

func (svc *service) Join(sessionID, userID string) (Member, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Member{}, err
	}

	now := time.Now().UTC()
	mbr, ok := sess.MemberByUserID(userID)
	if ok {
		if mbr.AttendanceStatus == AttendanceJoined {
			return mbr, nil
		}
		mbr.AttendanceStatus = AttendanceJoined
		mbr.UpdatedAt = now
		mbr, err = svc.repo.UpdateSessionMember(ctx, mbr)
	} else {
		// groups with >5 active members: late joiners get no distinguished role
		mbr, err = svc.repo.CreateSessionMember(ctx, Member{
			SessionID:        sess.ID,
			UserID:           userID,
			AttendanceStatus: AttendanceJoined,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}
	if err != nil {
		return Member{}, errors.Wrap(err, "saving session member")
	}

	svc.publish(sess.ID, BcastSessionUpdated, mbr)
	return mbr, nil
}

func (svc *service) Leave(sessionID, userID string) (Member, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Member{}, err
	}
	mbr, ok := sess.MemberByUserID(userID)
	if !ok {
		return Member{}, core.NewPermissionError(errNotSessionMember)
	}
	if mbr.AttendanceStatus == AttendanceLeft {
		return mbr, nil
	}

	mbr.AttendanceStatus = AttendanceLeft
	mbr.UpdatedAt = time.Now().UTC()
	mbr, err = svc.repo.UpdateSessionMember(ctx, mbr)
	if err != nil {
		return Member{}, errors.Wrap(err, "saving session member")
	}

	svc.publish(sess.ID, BcastSessionUpdated, mbr)
	return mbr, nil
}

func (svc *service) UpdatePrompt(sessionID string, roundIndex int, userID string, up UpdatePrompt) (Round, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Round{}, err
	}
	if !sess.CapabilitiesOf(userID).Facilitate {
		return Round{}, core.NewPermissionError(errNotFacilitator)
	}
	rnd, ok := sess.RoundByIndex(roundIndex)
	if !ok {
		return Round{}, core.NewValidationError(ErrRoundNotFound)
	}

	// the prompt is overwritten entirely, never merged
	rnd.Prompt = Prompt{
		Text:               up.Text,
		Options:            up.Options,
		LinkedHighlightIDs: up.LinkedHighlightIDs,
	}
	rnd.UpdatedAt = time.Now().UTC()
	rnd, err = svc.repo.UpdateRoundPrompt(ctx, rnd)
	if err != nil {
		return Round{}, errors.Wrap(err, "updating round prompt")
	}

	svc.publish(sess.ID, BcastPromptUpdated, rnd)
	return rnd, nil
}

func (svc *service) AdvanceRound(sessionID string, roundIndex int, userID, toStatus string) (Round, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Round{}, err
	}
	if !sess.CapabilitiesOf(userID).Facilitate {
		return Round{}, core.NewPermissionError(errNotFacilitator)
	}
	rnd, ok := sess.RoundByIndex(roundIndex)
	if !ok {
		return Round{}, core.NewValidationError(ErrRoundNotFound)
	}

	// transition guards, validated before persisting the new status
	switch toStatus {
	case RoundDiscussing:
		if err = svc.checkQuorum(ctx, sess, rnd, EventPIVote); err != nil {
			return Round{}, err
		}
	case RoundExplaining:
		if err = svc.checkQuorum(ctx, sess, rnd, EventPIRevote); err != nil {
			return Round{}, err
		}
	case RoundDone:
		exists, err := svc.repo.EventExists(ctx, rnd.ID, EventGroupExplanation)
		if err != nil {
			return Round{}, errors.Wrap(err, "checking explanation presence")
		}
		if !exists {
			return Round{}, core.NewConflictError(ErrExplanationMissing, 1, 0, nil)
		}
	default:
		// other targets are not reachable from current client flows but are
		// not rejected
	}

	// compare-and-swap against the status loaded above: two callers racing
	// with different targets cannot both win
	if err = svc.repo.UpdateRoundStatus(ctx, rnd.ID, rnd.Status, toStatus); err != nil {
		if errors.Cause(err) == ErrRoundStatusChanged {
			return Round{}, core.NewConflictError(ErrRoundStatusChanged, 0, 0, nil)
		}
		return Round{}, errors.Wrap(err, "updating round status")
	}
	rnd.Status = toStatus
	rnd.UpdatedAt = time.Now().UTC()

	svc.publish(sess.ID, BcastRoundAdvanced, map[string]interface{}{
		"round_id":    rnd.ID,
		"round_index": rnd.RoundIndex,
		"status":      rnd.Status,
	})
	return rnd, nil
}

// checkQuorum verifies that every currently-JOINED session member has at
// least one event of the given type for the round. Quorum is derived from
// the ledger rather than a counter: a member resubmitting does not double
// count, because the count is over distinct users.
func (svc *service) checkQuorum(ctx context.Context, sess Session, rnd Round, eventType string) error {
	voterIDs, err := svc.repo.EventUserIDs(ctx, rnd.ID, eventType)
	if err != nil {
		return errors.Wrap(err, "counting round events")
	}
	voters := make(map[string]bool, len(voterIDs))
	for _, id := range voterIDs {
		voters[id] = true
	}

	joined := sess.JoinedMembers()
	var missing []string
	for _, m := range joined {
		if !voters[m.UserID] {
			missing = append(missing, m.UserID)
		}
	}
	if len(missing) > 0 {
		return core.NewConflictError(ErrQuorumNotMet, len(joined), len(joined)-len(missing), missing)
	}
	return nil
}

func (svc *service) SubmitEvent(sessionID, userID string, ne NewEvent) (Event, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return Event{}, err
	}
	mbr, ok := sess.MemberByUserID(userID)
	if !ok || mbr.AttendanceStatus != AttendanceJoined {
		return Event{}, core.NewPermissionError(errNotSessionMember)
	}
	rnd, ok := sess.RoundByIndex(ne.RoundIndex)
	if !ok {
		return Event{}, core.NewValidationError(ErrRoundNotFound)
	}
	if ne.EventType == EventGroupExplanation && mbr.AssignedRole != RoleScribe {
		return Event{}, core.NewPermissionError(errNotScribe)
	}

	evt, err := svc.repo.CreateEvent(ctx, Event{
		RoundID:   rnd.ID,
		UserID:    userID,
		EventType: ne.EventType,
		Payload:   ne.Payload,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Event{}, errors.Wrap(err, "creating event")
	}

	if ne.EventType == EventGroupExplanation {
		card, err := svc.upsertSharedCard(ctx, rnd, userID, ne.Payload)
		if err != nil {
			return Event{}, err
		}
		svc.publish(sess.ID, BcastSharedCardCreated, card)
	}

	switch ne.EventType {
	case EventPIVote:
		svc.publish(sess.ID, BcastVoteSubmitted, evt)
	case EventPIRevote:
		svc.publish(sess.ID, BcastRevoteSubmitted, evt)
	case EventChatMessage:
		svc.publish(sess.ID, BcastChatMessage, evt)
	default:
		svc.publish(sess.ID, BcastSessionUpdated, evt)
	}
	return evt, nil
}

// upsertSharedCard creates or updates the round's shared card from an
// explanation payload. All fields are replaced by the new payload except
// the prompt, which falls back to the existing card's when absent.
func (svc *service) upsertSharedCard(ctx context.Context, rnd Round, userID string, payload EventPayload) (SharedCard, error) {
	now := time.Now().UTC()
	card := SharedCard{
		RoundID:            rnd.ID,
		Prompt:             payload.Prompt,
		GroupAnswer:        payload.GroupAnswer,
		Explanation:        payload.Explanation,
		LinkedHighlightIDs: payload.LinkedHighlightIDs,
		KeyTerms:           payload.KeyTerms,
		CreatedByUserID:    userID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if card.Prompt == "" {
		card.Prompt = rnd.Prompt.Text
	}

	if existing, err := svc.repo.GetSharedCardByRound(ctx, rnd.ID); err == nil {
		if payload.Prompt == "" && existing.Prompt != "" {
			card.Prompt = existing.Prompt
		}
		card.ID = existing.ID
		card.CreatedAt = existing.CreatedAt
	} else if errors.Cause(err) != ErrNotFound {
		return SharedCard{}, errors.Wrap(err, "finding shared card")
	}

	card, err := svc.repo.UpsertSharedCard(ctx, card)
	if err != nil {
		return SharedCard{}, errors.Wrap(err, "upserting shared card")
	}
	return card, nil
}

func (svc *service) Events(sessionID, userID string, roundIndex ...int) ([]Event, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	var roundID string
	if len(roundIndex) > 0 {
		rnd, ok := sess.RoundByIndex(roundIndex[0])
		if !ok {
			return nil, core.NewValidationError(ErrRoundNotFound)
		}
		roundID = rnd.ID
	}
	return svc.repo.QueryEvents(ctx, sess.ID, roundID)
}

func (svc *service) SharedCards(sessionID, userID string) ([]SharedCard, error) {
	ctx := context.Background()

	sess, err := svc.getForMember(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QuerySharedCards(ctx, sess.ID)
}
