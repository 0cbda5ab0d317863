package e2e

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the running server over HTTP.
type E2ETestSuite struct {
	suite.Suite
	pw  *playwright.Playwright
	api playwright.APIRequestContext
}

// SetupSuite runs once before all tests
func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run(&playwright.RunOptions{SkipInstallBrowsers: true})
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	api, err := pw.Request.NewContext(playwright.APIRequestNewContextOptions{
		BaseURL: playwright.String(appURL),
		ExtraHttpHeaders: map[string]string{
			"Content-Type": "application/json",
		},
	})
	require.NoError(suite.T(), err, "could not create request context")
	suite.api = api
}

// TearDownSuite runs once after all tests
func (suite *E2ETestSuite) TearDownSuite() {
	if suite.api != nil {
		suite.api.Dispose()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// register creates a fresh account and returns its email.
func (suite *E2ETestSuite) register(username string) string {
	email := fmt.Sprintf("%s-%d@example.com", username, time.Now().UnixNano())
	resp, err := suite.api.Post("/api/auth/register", playwright.APIRequestContextPostOptions{
		Data: map[string]string{
			"username": fmt.Sprintf("%s-%d", username, time.Now().UnixNano()),
			"email":    email,
			"password": "Password1",
		},
	})
	require.NoError(suite.T(), err, "register request failed")
	require.Equal(suite.T(), http.StatusOK, resp.Status(), "register status")
	return email
}

func (suite *E2ETestSuite) login(email string) map[string]string {
	resp, err := suite.api.Post("/api/auth/login", playwright.APIRequestContextPostOptions{
		Data: map[string]string{"email": email, "password": "Password1"},
	})
	require.NoError(suite.T(), err, "login request failed")
	require.Equal(suite.T(), http.StatusOK, resp.Status(), "login status")

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(suite.T(), resp.JSON(&body))
	require.NotEmpty(suite.T(), body.Token)
	return map[string]string{"Authorization": "Bearer " + body.Token}
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	auth := suite.login(suite.register("alice"))

	// Create
	resp, err := suite.api.Post("/api/Expense", playwright.APIRequestContextPostOptions{
		Headers: auth,
		Data: map[string]any{
			"name":        "Lunch",
			"amount":      12.5,
			"date":        "2024-05-03",
			"description": "Lunch Test",
		},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusCreated, resp.Status(), "create status")
	location := resp.Headers()["location"]
	require.True(suite.T(), strings.HasPrefix(location, "/api/expense/"), "location header %q", location)

	var created struct {
		ID     int64   `json:"id"`
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
		UserID int64   `json:"userId"`
	}
	require.NoError(suite.T(), resp.JSON(&created))
	suite.Equal("Lunch", created.Name)
	suite.InDelta(12.5, created.Amount, 0.001)

	// List
	resp, err = suite.api.Get("/api/Expense", playwright.APIRequestContextGetOptions{Headers: auth})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())
	var list []map[string]any
	require.NoError(suite.T(), resp.JSON(&list))
	suite.Len(list, 1)

	// Update
	resp, err = suite.api.Put(location, playwright.APIRequestContextPutOptions{
		Headers: auth,
		Data: map[string]any{
			"name":        "Dinner",
			"amount":      20,
			"date":        "2024-05-04",
			"description": "",
		},
	})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusOK, resp.Status(), "update status")

	// Summary
	resp, err = suite.api.Get("/api/expense/summary?year=2024&month=5", playwright.APIRequestContextGetOptions{Headers: auth})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusOK, resp.Status())
	var summary struct {
		Total float64 `json:"total"`
	}
	require.NoError(suite.T(), resp.JSON(&summary))
	suite.InDelta(20.0, summary.Total, 0.001)

	// Delete
	resp, err = suite.api.Delete(location, playwright.APIRequestContextDeleteOptions{Headers: auth})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusNoContent, resp.Status(), "delete status")

	resp, err = suite.api.Get(location, playwright.APIRequestContextGetOptions{Headers: auth})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusNotFound, resp.Status(), "deleted expense should be gone")
}

func (suite *E2ETestSuite) TestOtherUsersExpensesAreHidden() {
	owner := suite.login(suite.register("owner"))
	intruder := suite.login(suite.register("intruder"))

	resp, err := suite.api.Post("/api/expense", playwright.APIRequestContextPostOptions{
		Headers: owner,
		Data: map[string]any{
			"name":   "Rent",
			"amount": 900,
			"date":   "2024-05-01",
		},
	})
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), http.StatusCreated, resp.Status())
	location := resp.Headers()["location"]

	resp, err = suite.api.Get(location, playwright.APIRequestContextGetOptions{Headers: intruder})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusNotFound, resp.Status())

	resp, err = suite.api.Delete(location, playwright.APIRequestContextDeleteOptions{Headers: intruder})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusNotFound, resp.Status())

	resp, err = suite.api.Get(location, playwright.APIRequestContextGetOptions{Headers: owner})
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusOK, resp.Status(), "owner still sees the expense")
}

func (suite *E2ETestSuite) TestRequestsWithoutTokenAreRejected() {
	resp, err := suite.api.Get("/api/expense")
	require.NoError(suite.T(), err)
	suite.Equal(http.StatusUnauthorized, resp.Status())
	suite.Equal("Bearer", resp.Headers()["www-authenticate"])
}

// TestE2ESuite runs the e2e test suite
func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
