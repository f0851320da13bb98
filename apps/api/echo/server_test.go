package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/core/group"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/core/user"
	broadcastsvc "github.com/trezcool/darasa/services/broadcast"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

type testServer struct {
	server  *Server
	usrRepo user.Repository
	grpRepo group.Repository
	usrSvc  user.Service
	grpSvc  group.Service
	cntSvc  content.Service
	conf    *core.Config
}

func setup(t *testing.T) *testServer {
	conf := &core.Config{
		TestMode:         true,
		AppName:          "darasa",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@localhost",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}

	db, err := dummydb.Open()
	require.NoError(t, err)

	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	usrRepo := dummydb.NewUserRepository(db)
	grpRepo := dummydb.NewGroupRepository(db)
	cntRepo := dummydb.NewContentRepository(db)
	sessRepo := dummydb.NewSessionRepository(db)

	usrSvc := user.NewServiceMock(db, usrRepo, mailSvc, conf)
	grpSvc := group.NewService(db, grpRepo, usrSvc, mailSvc, conf)
	cntSvc := content.NewService(cntRepo)
	sessSvc := session.NewService(db, sessRepo, grpSvc, cntSvc, broadcastsvc.NewConsoleBroadcaster(logger), logger, conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	srv := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		GroupSvc:       grpSvc,
		ContentSvc:     cntSvc,
		SessionSvc:     sessSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return &testServer{
		server:  srv,
		usrRepo: usrRepo,
		grpRepo: grpRepo,
		usrSvc:  usrSvc,
		grpSvc:  grpSvc,
		cntSvc:  cntSvc,
		conf:    conf,
	}
}

func (ts *testServer) createUser(t *testing.T, uname, pwd string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      uname,
		Username:  uname,
		Email:     uname + "@test.cd",
		Roles:     []string{user.RoleStudent},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, usr.SetPassword(pwd))
	usr, err := ts.usrRepo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func (ts *testServer) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func (ts *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func Test_userApi_login(t *testing.T) {
	ts := setup(t)
	usr := ts.createUser(t, "jdoe", "s3cr3t#pass")

	rec := ts.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "jdoe", Password: "s3cr3t#pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
	var res LoginResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Token)

	rec = ts.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: usr.Username, Password: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "ghost", Password: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_authRequired(t *testing.T) {
	ts := setup(t)

	rec := ts.request(t, http.MethodGet, "/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_groupApi_membershipGate(t *testing.T) {
	ts := setup(t)
	owner := ts.createUser(t, "owner", "s3cr3t#pass")
	stranger := ts.createUser(t, "stranger", "s3cr3t#pass")

	rec := ts.request(t, http.MethodPost, "/v1/groups", ts.token(t, owner), group.NewGroup{Name: "Biology 101"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var grp group.Group
	decode(t, rec, &grp)

	// members see the group
	rec = ts.request(t, http.MethodGet, "/v1/groups/"+grp.ID, ts.token(t, owner), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// strangers get a 404, not a 403
	rec = ts.request(t, http.MethodGet, "/v1/groups/"+grp.ID, ts.token(t, stranger), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// seedGroup creates a group with n active student members; members[0] owns it.
func (ts *testServer) seedGroup(t *testing.T, n int) (group.Group, content.Content, []user.User) {
	t.Helper()
	users := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, ts.createUser(t, fmt.Sprintf("member%02d", i), "s3cr3t#pass"))
	}

	grp, err := ts.grpSvc.Create(users[0].ID, group.NewGroup{Name: "Study Group"})
	require.NoError(t, err)
	now := time.Now().UTC()
	for _, usr := range users[1:] {
		_, err = ts.grpRepo.CreateGroupMember(context.Background(), group.Member{
			GroupID:   grp.ID,
			UserID:    usr.ID,
			Role:      group.RoleMember,
			Status:    group.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
		require.NoError(t, err)
	}

	cnt, err := ts.cntSvc.Add(users[0].ID, content.NewContent{
		Title: "Photosynthesis",
		Kind:  content.KindDocument,
		URI:   "https://example.com/photosynthesis.pdf",
	})
	require.NoError(t, err)
	return grp, cnt, users
}

func Test_sessionApi_lifecycle(t *testing.T) {
	ts := setup(t)
	grp, cnt, users := ts.seedGroup(t, 3)
	facToken := ""

	rec := ts.request(t, http.MethodPost, "/v1/groups/"+grp.ID+"/sessions", ts.token(t, users[0]),
		session.NewSession{ContentID: cnt.ID, RoundsCount: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess session.Session
	decode(t, rec, &sess)
	assert.Len(t, sess.Members, 3)
	assert.Len(t, sess.Rounds, 2)

	// identify the facilitator for round control
	for _, m := range sess.Members {
		if m.AssignedRole == session.RoleFacilitator {
			for _, usr := range users {
				if usr.ID == m.UserID {
					facToken = ts.token(t, usr)
				}
			}
		}
	}
	require.NotEmpty(t, facToken)

	rec = ts.request(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/start", facToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sess)
	assert.Equal(t, session.StatusRunning, sess.Status)

	// advancing before anyone voted trips the quorum guard
	rec = ts.request(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/rounds/1/advance", facToken,
		session.AdvanceRound{Status: session.RoundDiscussing})
	require.Equal(t, http.StatusConflict, rec.Code)
	var conflict struct {
		Required int      `json:"required"`
		Current  int      `json:"current"`
		Missing  []string `json:"missing"`
	}
	decode(t, rec, &conflict)
	assert.Equal(t, 3, conflict.Required)
	assert.Equal(t, 0, conflict.Current)
	assert.Len(t, conflict.Missing, 3)

	for _, usr := range users {
		rec = ts.request(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/events", ts.token(t, usr),
			session.NewEvent{RoundIndex: 1, EventType: session.EventPIVote, Payload: session.EventPayload{Choice: "B"}})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = ts.request(t, http.MethodPost, "/v1/sessions/"+sess.ID+"/rounds/1/advance", facToken,
		session.AdvanceRound{Status: session.RoundDiscussing})
	require.Equal(t, http.StatusOK, rec.Code)
	var rnd session.Round
	decode(t, rec, &rnd)
	assert.Equal(t, session.RoundDiscussing, rnd.Status)

	// the ledger is queryable per round
	rec = ts.request(t, http.MethodGet, "/v1/sessions/"+sess.ID+"/events?round=1", facToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []session.Event
	decode(t, rec, &events)
	assert.Len(t, events, 3)

	// non-members cannot peek at the session
	stranger := ts.createUser(t, "stranger", "s3cr3t#pass")
	rec = ts.request(t, http.MethodGet, "/v1/sessions/"+sess.ID, ts.token(t, stranger), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_sessionApi_promptPermissions(t *testing.T) {
	ts := setup(t)
	grp, cnt, users := ts.seedGroup(t, 3)

	rec := ts.request(t, http.MethodPost, "/v1/groups/"+grp.ID+"/sessions", ts.token(t, users[0]),
		session.NewSession{ContentID: cnt.ID, RoundsCount: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess session.Session
	decode(t, rec, &sess)

	var fac, other user.User
	for _, m := range sess.Members {
		for _, usr := range users {
			if usr.ID != m.UserID {
				continue
			}
			if m.AssignedRole == session.RoleFacilitator {
				fac = usr
			} else if other.ID == "" && ts.isPlainMember(grp, usr) {
				other = usr
			}
		}
	}
	require.NotEmpty(t, fac.ID)
	require.NotEmpty(t, other.ID)

	up := session.UpdatePrompt{Text: "What limits the rate of photosynthesis?", Options: []string{"A", "B", "C"}}

	rec = ts.request(t, http.MethodPut, "/v1/sessions/"+sess.ID+"/rounds/1/prompt", ts.token(t, other), up)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.request(t, http.MethodPut, "/v1/sessions/"+sess.ID+"/rounds/1/prompt", ts.token(t, fac), up)
	require.Equal(t, http.StatusOK, rec.Code)
	var rnd session.Round
	decode(t, rec, &rnd)
	assert.Equal(t, up.Text, rnd.Prompt.Text)
	assert.Equal(t, up.Options, rnd.Prompt.Options)

	rec = ts.request(t, http.MethodPut, "/v1/sessions/"+sess.ID+"/rounds/0/prompt", ts.token(t, fac), up)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// isPlainMember reports whether usr holds no group authority that would grant
// facilitation rights regardless of their assigned session role.
func (ts *testServer) isPlainMember(grp group.Group, usr user.User) bool {
	role, err := ts.grpSvc.RoleOf(grp.ID, usr.ID)
	return err == nil && role == group.RoleMember
}
