package challenge

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/parislaw/stepchase/internal/verify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(svc *Service, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
		c.Locals("user", token)
		return c.Next()
	})

	h := NewHandler(svc)
	app.Get("/challenge/dashboard", h.Dashboard)
	app.Get("/challenge/leaderboard", h.Leaderboard)
	app.Post("/challenge/submissions", h.Submit)

	admin := NewAdminHandler(svc)
	app.Put("/challenge/steps", admin.OverrideSteps)
	app.Get("/challenge/users", admin.ListUsers)
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func TestHandler_Submit_Accepted(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{
		verification: verify.StepVerification{StepCount: 12000, FraudProbability: 0.1},
	})
	app := testApp(svc, "1")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/challenge/submissions",
		`{"photoDataUri":"`+testImage+`"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result SubmissionResult
	decodeBody(t, resp, &result)
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Verification)
	assert.Equal(t, 12000, result.Verification.StepCount)
	assert.Equal(t, 1, st.writes)
}

func TestHandler_Submit_RejectionIsStillOK(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{
		verification: verify.StepVerification{StepCount: 12000, FraudProbability: 0.9},
	})
	app := testApp(svc, "1")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/challenge/submissions",
		`{"photoDataUri":"`+testImage+`"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result SubmissionResult
	decodeBody(t, resp, &result)
	assert.Equal(t, "high fraud probability", result.Error)
	require.NotNil(t, result.Verification)
	assert.Zero(t, st.writes)
}

func TestHandler_Submit_BadRequests(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"not json", `steps=12000`},
		{"not a data uri", `{"photoDataUri":"steps.png"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPost, "/challenge/submissions", tt.body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Zero(t, st.writes)
}

func TestHandler_Submit_OutsideChallengeWindow(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{})

	tests := []struct {
		name string
		now  time.Time
	}{
		{"before start", testStart.AddDate(0, 0, -1)},
		{"after end", testStart.AddDate(0, 0, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.now = func() time.Time { return tt.now }
			app := testApp(svc, "1")

			resp, err := app.Test(jsonRequest(http.MethodPost, "/challenge/submissions",
				`{"photoDataUri":"`+testImage+`"}`))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHandler_Submit_UnknownUser(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{
		verification: verify.StepVerification{StepCount: 12000},
	})
	app := testApp(svc, "ghost")

	resp, err := app.Test(jsonRequest(http.MethodPost, "/challenge/submissions",
		`{"photoDataUri":"`+testImage+`"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Dashboard(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/challenge/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var dashboard DashboardResponse
	decodeBody(t, resp, &dashboard)
	assert.Equal(t, "1", dashboard.User.ID)
	assert.Equal(t, 5, dashboard.Day)
	assert.Len(t, dashboard.Progress, 30)
}

func TestHandler_Leaderboard(t *testing.T) {
	st := newFakeStore(testUser("1"), testUser("2"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/challenge/leaderboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var board LeaderboardResponse
	decodeBody(t, resp, &board)
	assert.Len(t, board.Entries, 2)
}

func TestAdminHandler_OverrideSteps(t *testing.T) {
	st := newFakeStore(testUser("3"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	resp, err := app.Test(jsonRequest(http.MethodPut, "/challenge/steps",
		`{"userId":"3","day":5,"steps":9999}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out OverrideResponse
	decodeBody(t, resp, &out)
	assert.True(t, out.Success)
	assert.Equal(t, "Successfully updated steps for Day 5.", out.Message)

	slot := st.users["3"].Progress[4]
	require.NotNil(t, slot.Steps)
	assert.Equal(t, 9999, *slot.Steps)
	assert.False(t, slot.GoalMet)
}

func TestAdminHandler_OverrideSteps_Errors(t *testing.T) {
	st := newFakeStore(testUser("3"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing user", `{"day":5,"steps":100}`, http.StatusBadRequest},
		{"missing day", `{"userId":"3","steps":100}`, http.StatusBadRequest},
		{"negative steps", `{"userId":"3","day":5,"steps":-1}`, http.StatusBadRequest},
		{"unknown user", `{"userId":"ghost","day":5,"steps":100}`, http.StatusNotFound},
		{"day out of range", `{"userId":"3","day":31,"steps":100}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(jsonRequest(http.MethodPut, "/challenge/steps", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var out OverrideResponse
			decodeBody(t, resp, &out)
			assert.False(t, out.Success)
		})
	}
	assert.Zero(t, st.writes)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	st := newFakeStore(testUser("1"))
	svc := newTestService(st, &fakeVerifier{})
	app := testApp(svc, "1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/challenge/users", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data []AdminUserRow `json:"data"`
	}
	decodeBody(t, resp, &out)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "AJ", out.Data[0].Initials)
}
