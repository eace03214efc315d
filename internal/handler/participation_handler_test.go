package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/config"
	"github.com/habitloop/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.User{},
		&db.Habit{},
		&db.UserHabit{},
		&db.HabitEntry{},
		&db.Challenge{},
		&db.ChallengeParticipant{},
		&db.ChallengeEntry{},
		&db.Message{},
		&db.Comment{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := gdb.Create(&db.User{Username: "tester", Email: "tester@example.com", Password: "hashed"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	db.DB = gdb

	return NewAPI(db.DB, config.AppConfig{UploadDir: "data/uploads", UploadURLPath: "/static/uploads"}), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// newSessionRouter 搭建带会话中间件的测试路由
// userID 非 0 时模拟已登录用户
func newSessionRouter(userID uint) *gin.Engine {
	router := gin.New()
	router.Use(sessions.Sessions("habitloop_session", cookie.NewStore([]byte("test-secret"))))
	if userID != 0 {
		router.Use(func(c *gin.Context) {
			session := sessions.Default(c)
			session.Set(sessionUserIDKey, userID)
			c.Next()
		})
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedChallenge(t *testing.T, createdBy uint, startOffset, endOffset int) db.Challenge {
	t.Helper()
	challenge := db.Challenge{
		Name:      "测试挑战",
		CreatedBy: createdBy,
		StartDate: time.Now().AddDate(0, 0, startOffset),
		EndDate:   time.Now().AddDate(0, 0, endOffset),
	}
	if err := db.DB.Create(&challenge).Error; err != nil {
		t.Fatalf("failed to seed challenge: %v", err)
	}
	return challenge
}

func TestJoinChallengeEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	challenge := seedChallenge(t, 1, 3, 10)

	router := newSessionRouter(1)
	router.POST("/challenge-participants", api.JoinChallenge)

	w := doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{
		"challenge_id": challenge.ID,
		"reason":       "想试试",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Rank int64 `json:"rank"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", resp.Rank)
	}

	// 重复加入
	w = doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": challenge.ID})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}

	// 未知挑战
	w = doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": 999})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	// 已开始的挑战
	started := seedChallenge(t, 1, -1, 10)
	w = doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": started.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}

	// 缺少挑战 ID
	w = doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestJoinChallengeLimitEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	router := newSessionRouter(1)
	router.POST("/challenge-participants", api.JoinChallenge)

	var last db.Challenge
	for i := 0; i < 4; i++ {
		last = seedChallenge(t, 1, 3, 10)
		if i == 3 {
			break
		}
		w := doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": last.ID})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201 on join %d, got %d", i, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": last.ID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 at limit, got %d", w.Code)
	}
}

func TestLeaveChallengeEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	challenge := seedChallenge(t, 1, 3, 10)
	participant := db.ChallengeParticipant{UserID: 1, ChallengeID: challenge.ID, JoinedDate: time.Now()}
	if err := db.DB.Create(&participant).Error; err != nil {
		t.Fatalf("failed to seed participant: %v", err)
	}

	router := newSessionRouter(1)
	router.DELETE("/challenge-participants", api.LeaveChallenge)

	w := doJSON(t, router, http.MethodDelete, "/challenge-participants", map[string]any{"challenge_id": challenge.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// 再退一次
	w = doJSON(t, router, http.MethodDelete, "/challenge-participants", map[string]any{"challenge_id": challenge.ID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestParticipationStatusEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	challenge := seedChallenge(t, 1, 3, 10)
	participant := db.ChallengeParticipant{UserID: 1, ChallengeID: challenge.ID, JoinedDate: time.Now()}
	if err := db.DB.Create(&participant).Error; err != nil {
		t.Fatalf("failed to seed participant: %v", err)
	}

	router := newSessionRouter(1)
	router.GET("/challenges/:id/participation-status", api.ParticipationStatus)

	w := doJSON(t, router, http.MethodGet, "/challenges/1/participation-status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp struct {
		Joined bool `json:"joined"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Joined {
		t.Fatal("expected joined true")
	}

	// 未知挑战不报错，返回未加入
	w = doJSON(t, router, http.MethodGet, "/challenges/999/participation-status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for unknown challenge, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Joined {
		t.Fatal("expected joined false for unknown challenge")
	}
}

func TestParticipationRequiresLogin(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	router := newSessionRouter(0)
	router.POST("/challenge-participants", api.JoinChallenge)

	w := doJSON(t, router, http.MethodPost, "/challenge-participants", map[string]any{"challenge_id": 1})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}
