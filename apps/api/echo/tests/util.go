package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/kayembi/ratiba/apps/api/echo"
	"github.com/kayembi/ratiba/core"
	"github.com/kayembi/ratiba/core/classroom"
	"github.com/kayembi/ratiba/core/event"
	"github.com/kayembi/ratiba/core/schedule"
	"github.com/kayembi/ratiba/core/timetable"
	"github.com/kayembi/ratiba/core/user"
	dummydb "github.com/kayembi/ratiba/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fixture struct {
	conf    *core.Config
	app     *echoapi.Server
	usrRepo user.Repository
	clsRepo classroom.Repository
	ttRepo  timetable.Repository
	evtRepo event.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := testConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	clsRepo := dummydb.NewClassroomRepository(db)
	ttRepo := dummydb.NewTimetableRepository(db)
	evtRepo := dummydb.NewEventRepository(db)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	usrSvc := user.NewService(usrRepo)
	clsSvc := classroom.NewService(clsRepo, usrRepo, ttRepo, evtRepo)
	ttSvc := timetable.NewService(ttRepo, usrRepo, clsRepo)
	evtSvc := event.NewService(evtRepo, clsRepo, nopLogger{})
	schedSvc := schedule.NewService(usrRepo, clsRepo, ttRepo, evtRepo)

	app := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       nopLogger{},
			UserSvc:      usrSvc,
			ClassSvc:     clsSvc,
			TimetableSvc: ttSvc,
			EventSvc:     evtSvc,
			ScheduleSvc:  schedSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	return &fixture{
		conf:    conf,
		app:     app,
		usrRepo: usrRepo,
		clsRepo: clsRepo,
		ttRepo:  ttRepo,
		evtRepo: evtRepo,
	}
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Ratiba",
		SecretKey: "0okm9ijn8uhb7ygv",
		Server: core.ServerConfig{
			Addr:                      ":0",
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 2 * time.Hour,
		},
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var _ core.Logger = nopLogger{}

func (f *fixture) createUser(t *testing.T, name, username, pwd string, roles []string, classID string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  username,
		Email:     username + "@shule.cd",
		IsActive:  true,
		Roles:     roles,
		ClassID:   classID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := f.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (f *fixture) createClass(t *testing.T, name string) classroom.Classroom {
	t.Helper()
	now := time.Now().UTC()
	cls, err := f.clsRepo.CreateClassroom(context.Background(), classroom.Classroom{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return cls
}

func (f *fixture) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := echoapi.GetUserClaims(f.conf, usr, time.Now())
	token, err := echoapi.GenerateToken(f.conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (f *fixture) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	var body bytes.Buffer
	if tt.body != nil {
		body.Write(tt.body)
	}
	req := httptest.NewRequest(method, tt.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if tt.token != "" {
		req.Header.Set("Authorization", "Bearer "+tt.token)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
