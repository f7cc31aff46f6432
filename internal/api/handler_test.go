package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quakealert-backend/config"
	"quakealert-backend/internal/apperr"
	"quakealert-backend/internal/metrics"
	"quakealert-backend/internal/model"
	"quakealert-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// failingStore returns a storage error from every operation.
type failingStore struct{}

func (failingStore) Upsert(context.Context, string, []model.WatchZone) error {
	return apperr.Storage("upsert profile", errors.New("database is locked"))
}

func (failingStore) ListAll(context.Context) ([]model.SubscriptionProfile, error) {
	return nil, apperr.Storage("list profiles", errors.New("database is locked"))
}

func (failingStore) AddUnread(context.Context, string, model.Event) error {
	return apperr.Storage("add unread alert", errors.New("database is locked"))
}

func (failingStore) GetUnread(context.Context, string) ([]model.Event, error) {
	return nil, apperr.Storage("get unread alerts", errors.New("database is locked"))
}

func (failingStore) ClearUnread(context.Context, string) error {
	return apperr.Storage("clear unread alerts", errors.New("database is locked"))
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	testDB, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:api_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, testDB.AutoMigrate(&model.SubscriptionProfile{}, &model.UnreadAlert{}, &model.ProcessedEvent{}))
	return store.NewGormStore(testDB)
}

func setupRouter(s store.Store) *gin.Engine {
	cfg := config.Default()
	cfg.Push.WebPush.PublicKey = "BPublicKey"
	return NewRouter(s, cfg, metrics.New())
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

const laPreferences = `{"fcm_token":"token-a","cities":[{"latitude":34.0,"longitude":-118.2,"radius_km":50,"min_magnitude":3.0}]}`

func TestUpdatePreferences(t *testing.T) {
	t.Run("stores zones", func(t *testing.T) {
		s := newTestStore(t)
		router := setupRouter(s)

		w := doRequest(router, http.MethodPost, "/api/preferences", laPreferences)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())

		profiles, err := s.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Equal(t, "token-a", profiles[0].Token)
		assert.Equal(t, []model.WatchZone{{Latitude: 34.0, Longitude: -118.2, RadiusKm: 50, MinMagnitude: 3.0}}, profiles[0].Zones)
	})

	t.Run("empty cities are accepted", func(t *testing.T) {
		s := newTestStore(t)
		router := setupRouter(s)

		w := doRequest(router, http.MethodPost, "/api/preferences", `{"fcm_token":"token-a","cities":[]}`)
		assert.Equal(t, http.StatusOK, w.Code)

		profiles, err := s.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, profiles, 1)
		assert.Empty(t, profiles[0].Zones)
	})

	t.Run("zero coordinates are valid", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodPost, "/api/preferences",
			`{"fcm_token":"token-a","cities":[{"latitude":0,"longitude":0,"radius_km":0,"min_magnitude":0}]}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("resets the inbox", func(t *testing.T) {
		ctx := context.Background()
		s := newTestStore(t)
		router := setupRouter(s)

		require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/preferences", laPreferences).Code)
		require.NoError(t, s.AddUnread(ctx, "token-a", model.Event{ID: "a", Time: 100}))
		require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/api/preferences", laPreferences).Code)

		events, err := s.GetUnread(ctx, "token-a")
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	invalid := map[string]string{
		"empty body":        "",
		"malformed json":    `{"fcm_token":`,
		"missing token":     `{"cities":[]}`,
		"empty token":       `{"fcm_token":"","cities":[]}`,
		"missing cities":    `{"fcm_token":"token-a"}`,
		"null cities":       `{"fcm_token":"token-a","cities":null}`,
		"missing latitude":  `{"fcm_token":"token-a","cities":[{"longitude":-118.2,"radius_km":50,"min_magnitude":3.0}]}`,
		"missing magnitude": `{"fcm_token":"token-a","cities":[{"latitude":34.0,"longitude":-118.2,"radius_km":50}]}`,
		"latitude range":    `{"fcm_token":"token-a","cities":[{"latitude":91,"longitude":-118.2,"radius_km":50,"min_magnitude":3.0}]}`,
		"longitude range":   `{"fcm_token":"token-a","cities":[{"latitude":34,"longitude":-181,"radius_km":50,"min_magnitude":3.0}]}`,
		"negative radius":   `{"fcm_token":"token-a","cities":[{"latitude":34,"longitude":-118.2,"radius_km":-1,"min_magnitude":3.0}]}`,
		"wrong type":        `{"fcm_token":"token-a","cities":[{"latitude":"34","longitude":-118.2,"radius_km":50,"min_magnitude":3.0}]}`,
		"unknown field":     `{"fcm_token":"token-a","cities":[],"city":"LA"}`,
		"unknown zone key":  `{"fcm_token":"token-a","cities":[{"lat":34.0,"latitude":34.0,"longitude":-118.2,"radius_km":50,"min_magnitude":3.0}]}`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			router := setupRouter(s)

			w := doRequest(router, http.MethodPost, "/api/preferences", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)

			profiles, err := s.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, profiles)
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodGet, "/api/preferences", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Contains(t, w.Body.String(), "method not allowed")
	})

	t.Run("storage failure", func(t *testing.T) {
		router := setupRouter(failingStore{})
		w := doRequest(router, http.MethodPost, "/api/preferences", laPreferences)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"upsert profile: database is locked"}`, w.Body.String())
	})
}

func TestGetUnreadAlerts(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		ctx := context.Background()
		s := newTestStore(t)
		router := setupRouter(s)

		require.NoError(t, s.Upsert(ctx, "token-a", []model.WatchZone{}))
		require.NoError(t, s.AddUnread(ctx, "token-a", model.Event{ID: "a", Time: 100}))
		require.NoError(t, s.AddUnread(ctx, "token-a", model.Event{ID: "b", Time: 200}))

		w := doRequest(router, http.MethodGet, "/api/alerts?fcm_token=token-a", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Alerts []model.Event `json:"alerts"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Alerts, 2)
		assert.Equal(t, "b", resp.Alerts[0].ID)
		assert.Equal(t, "a", resp.Alerts[1].ID)
	})

	t.Run("unknown token has an empty inbox", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodGet, "/api/alerts?fcm_token=nobody", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"alerts":[]}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodGet, "/api/alerts", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "fcm_token is required")
	})

	t.Run("storage failure", func(t *testing.T) {
		router := setupRouter(failingStore{})
		w := doRequest(router, http.MethodGet, "/api/alerts?fcm_token=token-a", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "database is locked")
	})
}

func TestClearUserAlerts(t *testing.T) {
	t.Run("clear then read is empty", func(t *testing.T) {
		ctx := context.Background()
		s := newTestStore(t)
		router := setupRouter(s)

		require.NoError(t, s.Upsert(ctx, "token-a", []model.WatchZone{}))
		require.NoError(t, s.AddUnread(ctx, "token-a", model.Event{ID: "a", Time: 100}))

		w := doRequest(router, http.MethodPost, "/api/alerts/clear", `{"fcm_token":"token-a"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())

		w = doRequest(router, http.MethodGet, "/api/alerts?fcm_token=token-a", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"alerts":[]}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodPost, "/api/alerts/clear", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		router := setupRouter(newTestStore(t))
		w := doRequest(router, http.MethodGet, "/api/alerts/clear", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		router := setupRouter(failingStore{})
		w := doRequest(router, http.MethodPost, "/api/alerts/clear", `{"fcm_token":"token-a"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "database is locked")
	})
}

func TestGetVAPIDPublicKey(t *testing.T) {
	router := setupRouter(newTestStore(t))
	w := doRequest(router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPublicKey"}`, w.Body.String())

	router = NewRouter(newTestStore(t), config.Default(), nil)
	w = doRequest(router, http.MethodGet, "/api/vapid_public_key", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	router := setupRouter(newTestStore(t))

	w := doRequest(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quakealert_events_fetched_total 0")
}

func TestNewRouter_LeavesBindingSettingsAlone(t *testing.T) {
	require.True(t, binding.EnableDecoderDisallowUnknownFields)

	binding.EnableDecoderDisallowUnknownFields = false
	t.Cleanup(func() { binding.EnableDecoderDisallowUnknownFields = true })

	_ = setupRouter(newTestStore(t))
	assert.False(t, binding.EnableDecoderDisallowUnknownFields)
}
