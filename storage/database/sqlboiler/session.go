package boiledrepos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/sqlboiler/models"
)

type sessionRepository struct {
	exec core.DBExecutor
}

var _ session.Repository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) session.Repository {
	return &sessionRepository{exec: exec}
}

func (repo sessionRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo sessionRepository) unboilSession(sess *models.Session) session.Session {
	if sess == nil {
		return session.Session{}
	}
	return session.Session{
		ID:        sess.ID,
		GroupID:   sess.GroupID,
		ContentID: sess.ContentID,
		Mode:      sess.Mode,
		Layer:     sess.Layer,
		Status:    sess.Status,
		StartsAt:  sess.StartsAt.Time,
		EndsAt:    sess.EndsAt.Time,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
}

func (repo sessionRepository) unboilMember(mbr *models.SessionMember) session.Member {
	if mbr == nil {
		return session.Member{}
	}
	return session.Member{
		ID:               mbr.ID,
		SessionID:        mbr.SessionID,
		UserID:           mbr.UserID,
		AssignedRole:     mbr.AssignedRole,
		AttendanceStatus: mbr.AttendanceStatus,
		CreatedAt:        mbr.CreatedAt,
		UpdatedAt:        mbr.UpdatedAt,
	}
}

func (repo sessionRepository) unboilRound(rnd *models.Round) (session.Round, error) {
	if rnd == nil {
		return session.Round{}, nil
	}
	r := session.Round{
		ID:         rnd.ID,
		SessionID:  rnd.SessionID,
		RoundIndex: rnd.RoundIndex,
		RoundType:  rnd.RoundType,
		Status:     rnd.Status,
		CreatedAt:  rnd.CreatedAt,
		UpdatedAt:  rnd.UpdatedAt,
	}
	if len(rnd.Prompt) > 0 {
		if err := json.Unmarshal(rnd.Prompt, &r.Prompt); err != nil {
			return session.Round{}, errors.Wrap(err, "decoding round prompt")
		}
	}
	if len(rnd.Timing) > 0 {
		if err := json.Unmarshal(rnd.Timing, &r.Timing); err != nil {
			return session.Round{}, errors.Wrap(err, "decoding round timing")
		}
	}
	return r, nil
}

func (repo sessionRepository) boilRound(rnd session.Round) (*models.Round, error) {
	prompt, err := json.Marshal(rnd.Prompt)
	if err != nil {
		return nil, errors.Wrap(err, "encoding round prompt")
	}
	timing, err := json.Marshal(rnd.Timing)
	if err != nil {
		return nil, errors.Wrap(err, "encoding round timing")
	}
	return &models.Round{
		ID:         rnd.ID,
		SessionID:  rnd.SessionID,
		RoundIndex: rnd.RoundIndex,
		RoundType:  rnd.RoundType,
		Prompt:     prompt,
		Timing:     timing,
		Status:     rnd.Status,
		CreatedAt:  rnd.CreatedAt.UTC(),
		UpdatedAt:  rnd.UpdatedAt.UTC(),
	}, nil
}

func (repo sessionRepository) unboilEvent(evt *models.Event) (session.Event, error) {
	e := session.Event{
		ID:        evt.ID,
		RoundID:   evt.RoundID,
		UserID:    evt.UserID,
		EventType: evt.EventType,
		CreatedAt: evt.CreatedAt,
	}
	if len(evt.Payload) > 0 {
		if err := json.Unmarshal(evt.Payload, &e.Payload); err != nil {
			return session.Event{}, errors.Wrap(err, "decoding event payload")
		}
	}
	return e, nil
}

func (repo sessionRepository) unboilCard(card *models.SharedCard) session.SharedCard {
	if card == nil {
		return session.SharedCard{}
	}
	return session.SharedCard{
		ID:                 card.ID,
		RoundID:            card.RoundID,
		Prompt:             card.Prompt,
		GroupAnswer:        card.GroupAnswer,
		Explanation:        card.Explanation,
		LinkedHighlightIDs: card.LinkedHighlightIDs,
		KeyTerms:           card.KeyTerms,
		CreatedByUserID:    card.CreatedByUserID,
		CreatedAt:          card.CreatedAt,
		UpdatedAt:          card.UpdatedAt,
	}
}

func (repo sessionRepository) CreateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	sess.ID = uuid.New().String()
	s := &models.Session{
		ID:        sess.ID,
		GroupID:   sess.GroupID,
		ContentID: sess.ContentID,
		Mode:      sess.Mode,
		Layer:     sess.Layer,
		Status:    sess.Status,
		StartsAt:  null.NewTime(sess.StartsAt.UTC(), !sess.StartsAt.IsZero()),
		EndsAt:    null.NewTime(sess.EndsAt.UTC(), !sess.EndsAt.IsZero()),
		CreatedAt: sess.CreatedAt.UTC(),
		UpdatedAt: sess.UpdatedAt.UTC(),
	}
	if err := s.Insert(ctx, repo.getExec(exec)); err != nil {
		return session.Session{}, errors.Wrap(err, "inserting session")
	}
	return repo.unboilSession(s), nil
}

func (repo sessionRepository) GetSessionByID(ctx context.Context, id string, exec ...core.DBExecutor) (session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return session.Session{}, session.ErrNotFound
	}
	exe := repo.getExec(exec)

	s, err := models.FindSession(ctx, exe, id)
	if err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "finding session")
	}
	sess := repo.unboilSession(s)

	// group with members
	grpRepo := groupRepository{exec: exe}
	grp, err := grpRepo.GetGroupByID(ctx, sess.GroupID, exe)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "loading session group")
	}
	sess.Group = &grp

	// content
	cntRepo := contentRepository{exec: exe}
	cnt, err := cntRepo.GetContentByID(ctx, sess.ContentID, exe)
	if err == nil {
		sess.Content = &cnt
	}

	// session members with users
	mbrSlice, err := models.SessionMembers(
		qm.Where(models.SessionMemberColumns.SessionID+" = ?", id),
		qm.OrderBy(models.SessionMemberColumns.UserID),
	).All(ctx, exe)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "querying session members")
	}
	sess.Members = make([]session.Member, 0, len(mbrSlice))
	usersByID := make(map[string]user.User, len(grp.Members))
	for _, gm := range grp.Members {
		if gm.User != nil {
			usersByID[gm.UserID] = *gm.User
		}
	}
	for _, m := range mbrSlice {
		mbr := repo.unboilMember(m)
		if usr, ok := usersByID[mbr.UserID]; ok {
			u := usr
			mbr.User = &u
		}
		sess.Members = append(sess.Members, mbr)
	}

	// rounds ordered by index
	rndSlice, err := models.Rounds(
		qm.Where(models.RoundColumns.SessionID+" = ?", id),
		qm.OrderBy(models.RoundColumns.RoundIndex),
	).All(ctx, exe)
	if err != nil {
		return session.Session{}, errors.Wrap(err, "querying rounds")
	}
	sess.Rounds = make([]session.Round, 0, len(rndSlice))
	for _, r := range rndSlice {
		rnd, err := repo.unboilRound(r)
		if err != nil {
			return session.Session{}, err
		}
		sess.Rounds = append(sess.Rounds, rnd)
	}
	return sess, nil
}

func (repo sessionRepository) QuerySessionsByGroup(ctx context.Context, groupID string, exec ...core.DBExecutor) ([]session.Session, error) {
	slice, err := models.Sessions(
		qm.Where(models.SessionColumns.GroupID+" = ?", groupID),
		qm.OrderBy(models.SessionColumns.CreatedAt),
	).All(ctx, repo.getExec(exec))
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]session.Session, 0, len(slice))
	for _, s := range slice {
		sessions = append(sessions, repo.unboilSession(s))
	}
	return sessions, nil
}

func (repo sessionRepository) CountFinishedSessions(ctx context.Context, groupID string, exec ...core.DBExecutor) (int, error) {
	cnt, err := models.Sessions(
		qm.Where(models.SessionColumns.GroupID+" = ?", groupID),
		qm.Where(models.SessionColumns.Status+" = ?", session.StatusFinished),
	).Count(ctx, repo.getExec(exec))
	if err != nil {
		return 0, errors.Wrap(err, "counting finished sessions")
	}
	return int(cnt), nil
}

func (repo sessionRepository) UpdateSession(ctx context.Context, sess session.Session, exec ...core.DBExecutor) (session.Session, error) {
	s := &models.Session{
		ID:        sess.ID,
		Status:    sess.Status,
		StartsAt:  null.NewTime(sess.StartsAt.UTC(), !sess.StartsAt.IsZero()),
		EndsAt:    null.NewTime(sess.EndsAt.UTC(), !sess.EndsAt.IsZero()),
		UpdatedAt: sess.UpdatedAt.UTC(),
	}
	n, err := s.Update(ctx, repo.getExec(exec))
	if err != nil {
		return session.Session{}, errors.Wrap(err, "updating session")
	}
	if n == 0 {
		return session.Session{}, session.ErrNotFound
	}
	return sess, nil
}

func (repo sessionRepository) CreateSessionMember(ctx context.Context, mbr session.Member, exec ...core.DBExecutor) (session.Member, error) {
	mbr.ID = uuid.New().String()
	m := &models.SessionMember{
		ID:               mbr.ID,
		SessionID:        mbr.SessionID,
		UserID:           mbr.UserID,
		AssignedRole:     mbr.AssignedRole,
		AttendanceStatus: mbr.AttendanceStatus,
		CreatedAt:        mbr.CreatedAt.UTC(),
		UpdatedAt:        mbr.UpdatedAt.UTC(),
	}
	if err := m.Insert(ctx, repo.getExec(exec)); err != nil {
		return session.Member{}, errors.Wrap(err, "inserting session member")
	}
	return repo.unboilMember(m), nil
}

func (repo sessionRepository) UpdateSessionMember(ctx context.Context, mbr session.Member, exec ...core.DBExecutor) (session.Member, error) {
	m := &models.SessionMember{
		ID:               mbr.ID,
		AttendanceStatus: mbr.AttendanceStatus,
		UpdatedAt:        mbr.UpdatedAt.UTC(),
	}
	n, err := m.Update(ctx, repo.getExec(exec))
	if err != nil {
		return session.Member{}, errors.Wrap(err, "updating session member")
	}
	if n == 0 {
		return session.Member{}, session.ErrNotFound
	}
	return mbr, nil
}

func (repo sessionRepository) CreateRounds(ctx context.Context, rounds []session.Round, exec ...core.DBExecutor) ([]session.Round, error) {
	exe := repo.getExec(exec)
	created := make([]session.Round, 0, len(rounds))
	for _, rnd := range rounds {
		rnd.ID = uuid.New().String()
		r, err := repo.boilRound(rnd)
		if err != nil {
			return nil, err
		}
		if err = r.Insert(ctx, exe); err != nil {
			return nil, errors.Wrap(err, "inserting round")
		}
		created = append(created, rnd)
	}
	return created, nil
}

func (repo sessionRepository) UpdateRoundPrompt(ctx context.Context, rnd session.Round, exec ...core.DBExecutor) (session.Round, error) {
	r, err := repo.boilRound(rnd)
	if err != nil {
		return session.Round{}, err
	}
	n, err := r.UpdatePrompt(ctx, repo.getExec(exec))
	if err != nil {
		return session.Round{}, errors.Wrap(err, "updating round prompt")
	}
	if n == 0 {
		return session.Round{}, session.ErrRoundNotFound
	}
	return rnd, nil
}

func (repo sessionRepository) UpdateRoundStatus(ctx context.Context, roundID, fromStatus, toStatus string, exec ...core.DBExecutor) error {
	// single-statement compare-and-swap; a zero rowcount means the round's
	// status moved under us (or the round is gone, same outcome for callers)
	const query = `UPDATE "round" SET "status" = $3, "updated_at" = NOW() WHERE "id" = $1 AND "status" = $2`
	result, err := repo.getExec(exec).ExecContext(ctx, query, roundID, fromStatus, toStatus)
	if err != nil {
		return errors.Wrap(err, "updating round status")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating round status")
	}
	if n == 0 {
		return session.ErrRoundStatusChanged
	}
	return nil
}

func (repo sessionRepository) CreateEvent(ctx context.Context, evt session.Event, exec ...core.DBExecutor) (session.Event, error) {
	evt.ID = uuid.New().String()
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return session.Event{}, errors.Wrap(err, "encoding event payload")
	}
	e := &models.Event{
		ID:        evt.ID,
		RoundID:   evt.RoundID,
		UserID:    evt.UserID,
		EventType: evt.EventType,
		Payload:   payload,
		CreatedAt: evt.CreatedAt.UTC(),
	}
	if err = e.Insert(ctx, repo.getExec(exec)); err != nil {
		return session.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo sessionRepository) QueryEvents(ctx context.Context, sessionID, roundID string, exec ...core.DBExecutor) ([]session.Event, error) {
	mods := []qm.QueryMod{
		qm.InnerJoin(fmt.Sprintf(
			`"%s" ON "%s".%s = "%s".%s`,
			models.TableNames.Round,
			models.TableNames.Round, models.RoundColumns.ID,
			models.TableNames.Event, models.EventColumns.RoundID)),
		qm.Where(fmt.Sprintf(`"%s".%s = ?`, models.TableNames.Round, models.RoundColumns.SessionID), sessionID),
		qm.OrderBy(fmt.Sprintf(`"%s".%s`, models.TableNames.Event, models.EventColumns.CreatedAt)),
	}
	if roundID != "" {
		mods = append(mods, qm.Where(fmt.Sprintf(`"%s".%s = ?`, models.TableNames.Event, models.EventColumns.RoundID), roundID))
	}

	slice, err := models.Events(mods...).All(ctx, repo.getExec(exec))
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]session.Event, 0, len(slice))
	for _, e := range slice {
		evt, err := repo.unboilEvent(e)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, nil
}

func (repo sessionRepository) EventUserIDs(ctx context.Context, roundID, eventType string, exec ...core.DBExecutor) ([]string, error) {
	const query = `SELECT DISTINCT "user_id" FROM "event" WHERE "round_id" = $1 AND "event_type" = $2`

	var rows []struct {
		UserID string `boil:"user_id"`
	}
	if err := queries.Raw(query, roundID, eventType).Bind(ctx, repo.getExec(exec), &rows); err != nil {
		return nil, errors.Wrap(err, "querying event user IDs")
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	return ids, nil
}

func (repo sessionRepository) EventExists(ctx context.Context, roundID, eventType string, exec ...core.DBExecutor) (bool, error) {
	exists, err := models.Events(
		qm.Where(models.EventColumns.RoundID+" = ?", roundID),
		qm.Where(models.EventColumns.EventType+" = ?", eventType),
	).Exists(ctx, repo.getExec(exec))
	if err != nil {
		return false, errors.Wrap(err, "checking event existence")
	}
	return exists, nil
}

func (repo sessionRepository) GetSharedCardByRound(ctx context.Context, roundID string, exec ...core.DBExecutor) (session.SharedCard, error) {
	card, err := models.SharedCards(qm.Where(models.SharedCardColumns.RoundID+" = ?", roundID)).
		One(ctx, repo.getExec(exec))
	if err != nil {
		return session.SharedCard{}, trapNoRowsErr(err, session.ErrNotFound, "finding shared card")
	}
	return repo.unboilCard(card), nil
}

func (repo sessionRepository) UpsertSharedCard(ctx context.Context, card session.SharedCard, exec ...core.DBExecutor) (session.SharedCard, error) {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	c := &models.SharedCard{
		ID:                 card.ID,
		RoundID:            card.RoundID,
		Prompt:             card.Prompt,
		GroupAnswer:        card.GroupAnswer,
		Explanation:        card.Explanation,
		LinkedHighlightIDs: card.LinkedHighlightIDs,
		KeyTerms:           card.KeyTerms,
		CreatedByUserID:    card.CreatedByUserID,
		CreatedAt:          card.CreatedAt.UTC(),
		UpdatedAt:          card.UpdatedAt.UTC(),
	}
	if err := c.Upsert(ctx, repo.getExec(exec)); err != nil {
		return session.SharedCard{}, errors.Wrap(err, "upserting shared card")
	}
	return repo.unboilCard(c), nil
}

func (repo sessionRepository) QuerySharedCards(ctx context.Context, sessionID string, exec ...core.DBExecutor) ([]session.SharedCard, error) {
	exe := repo.getExec(exec)

	rndSlice, err := models.Rounds(qm.Where(models.RoundColumns.SessionID+" = ?", sessionID)).All(ctx, exe)
	if err != nil {
		return nil, errors.Wrap(err, "querying rounds")
	}
	if len(rndSlice) == 0 {
		return []session.SharedCard{}, nil
	}
	roundsByID := make(map[string]*models.Round, len(rndSlice))
	roundIDs := make([]string, 0, len(rndSlice))
	for _, r := range rndSlice {
		roundsByID[r.ID] = r
		roundIDs = append(roundIDs, r.ID)
	}

	cardSlice, err := models.SharedCards(
		qm.WhereIn(fmt.Sprintf("%s IN ?", models.SharedCardColumns.RoundID), idArgs(roundIDs)...),
		qm.OrderBy(models.SharedCardColumns.CreatedAt),
	).All(ctx, exe)
	if err != nil {
		return nil, errors.Wrap(err, "querying shared cards")
	}

	cards := make([]session.SharedCard, 0, len(cardSlice))
	for _, c := range cardSlice {
		card := repo.unboilCard(c)
		if rnd, ok := roundsByID[c.RoundID]; ok {
			card.RoundIndex = rnd.RoundIndex
			card.RoundStatus = rnd.Status
		}
		cards = append(cards, card)
	}
	return cards, nil
}
