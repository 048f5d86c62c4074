package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	identityRepo "staycal/database/repository/identity"
	slotRepo "staycal/database/repository/slot"
	"staycal/handlers"
	"staycal/routes"
	"staycal/services/identity"
	"staycal/services/reservation"
	syncsvc "staycal/services/sync"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

func setupRouter(t *testing.T, capacity int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slots, err := slotRepo.NewMemorySlotRepo("")
	require.NoError(t, err)
	users, err := identityRepo.NewMemoryUserRepo("")
	require.NoError(t, err)

	identityService := &identity.DefaultIdentityService{Repo: users}
	reservationService := &reservation.DefaultReservationService{
		Repo:     slots,
		Sync:     syncsvc.NewHub(),
		Capacity: capacity,
		Now:      func() time.Time { return fixedNow },
	}

	hb := &handlers.HandlerBundle{
		Auth:     handlers.NewAuthHandler(identityService),
		Calendar: handlers.NewCalendarHandler(reservationService),
		Stream:   handlers.NewStreamHandler(reservationService, reservationService.Sync),
	}

	router := gin.New()
	routes.RegisterRoutes(router, hb)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, name string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/users/register", "", gin.H{"name": name, "secret": "1234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, name, resp.ID)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestToggleEndpoint(t *testing.T) {
	router := setupRouter(t, 1)
	kim := registerUser(t, router, "Kim")

	w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", kim, gin.H{"date": "2025-3-10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var slot struct {
		Key       string   `json:"key"`
		Occupants []string `json:"occupants"`
		Version   int64    `json:"version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slot))
	assert.Equal(t, "2025-3-10", slot.Key)
	assert.Equal(t, []string{"Kim"}, slot.Occupants)
	assert.Equal(t, int64(1), slot.Version)
}

func TestToggleEndpointRequiresAuth(t *testing.T) {
	router := setupRouter(t, 1)

	w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", "", gin.H{"date": "2025-3-10"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/calendar/toggle", "not-a-token", gin.H{"date": "2025-3-10"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToggleEndpointErrorCodes(t *testing.T) {
	router := setupRouter(t, 1)
	kim := registerUser(t, router, "Kim")
	lee := registerUser(t, router, "Lee")

	t.Run("past date", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", kim, gin.H{"date": "2025-3-4"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pastDate", resp.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", kim, gin.H{"date": "2025-2-30"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("slot full carries holders", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", kim, gin.H{"date": "2025-3-10"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/api/calendar/toggle", lee, gin.H{"date": "2025-3-10"})
		require.Equal(t, http.StatusConflict, w.Code)
		var resp struct {
			Code    string   `json:"code"`
			Holders []string `json:"holders"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "slotFull", resp.Code)
		assert.Equal(t, []string{"Kim"}, resp.Holders)
	})
}

func TestCalendarEndpoint(t *testing.T) {
	router := setupRouter(t, 2)
	kim := registerUser(t, router, "Kim")
	lee := registerUser(t, router, "Lee")

	for _, tok := range []string{kim, lee} {
		w := doJSON(t, router, http.MethodPost, "/api/calendar/toggle", tok, gin.H{"date": "2025-3-10"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/calendar", kim, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		Slots    map[string][]string `json:"slots"`
		Versions map[string]int64    `json:"versions"`
		Capacity int                 `json:"capacity"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 2, snap.Capacity)
	assert.Equal(t, []string{"Kim", "Lee"}, snap.Slots["2025-3-10"])
	assert.Equal(t, int64(2), snap.Versions["2025-3-10"])
}

func TestRegisterEndpointRejectsDuplicate(t *testing.T) {
	router := setupRouter(t, 1)
	registerUser(t, router, "Kim")

	w := doJSON(t, router, http.MethodPost, "/api/users/register", "", gin.H{"name": "Kim", "secret": "9999"})
	require.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alreadyExists", resp.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router := setupRouter(t, 1)
	registerUser(t, router, "Kim")

	w := doJSON(t, router, http.MethodPost, "/api/users/login", "", gin.H{"name": "Kim", "secret": "1234"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/users/login", "", gin.H{"name": "Kim", "secret": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalidCredential", resp.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	router := setupRouter(t, 1)
	kim := registerUser(t, router, "Kim")
	registerUser(t, router, "Lee")

	w := doJSON(t, router, http.MethodGet, "/api/users", kim, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.ID)
	}
	assert.ElementsMatch(t, []string{"Kim", "Lee"}, names)
	assert.NotContains(t, w.Body.String(), "secretHash")
}
