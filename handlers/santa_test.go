package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"secret-santa-backend/config"
	"secret-santa-backend/database"
	"secret-santa-backend/middleware"
	"secret-santa-backend/models"
	"secret-santa-backend/services"
	"secret-santa-backend/utils"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret: "test-secret",
		CryptoKey: "0123456789abcdef0123456789abcdef",
		CryptoIV:  "0123456789abcdef",
		AppName:   "SecretSanta",
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Wish{},
		&models.Participation{},
		&models.Assignment{},
		&models.Acknowledgement{},
		&models.Activity{},
		&models.Invitation{},
	))

	database.DB = db
	database.Redis = nil

	codec, err := utils.NewCodec(config.AppConfig.CryptoKey, config.AppConfig.CryptoIV)
	require.NoError(t, err)
	Init(services.NewOrchestrator(db, codec, nil))

	r := gin.New()
	auth := r.Group("/auth")
	auth.POST("/register", Register)
	auth.POST("/login", Login)

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.POST("/groups", CreateGroup)
	api.GET("/groups/:id", GetGroup)
	api.POST("/groups/join", JoinGroup)
	api.POST("/groups/:id/shuffle", Shuffle)
	api.GET("/groups/:id/status", GroupStatus)
	api.POST("/groups/:id/wish", SubmitWish)
	api.POST("/groups/:id/wish/:uid/approve", ApproveWish)
	api.POST("/groups/:id/address", SubmitAddress)
	api.POST("/groups/:id/address/:uid/approve", ApproveAddress)
	api.GET("/groups/:id/assignment", GetAssignment)
	api.POST("/groups/:id/assignment/ack", Acknowledge)
	api.GET("/groups/:id/activity", GetGroupActivity)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response.Data
}

func registerUser(t *testing.T, r *gin.Engine, name, email string) (uuid.UUID, string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)
	user := data["user"].(map[string]interface{})
	id, err := uuid.Parse(user["id"].(string))
	require.NoError(t, err)
	return id, token
}

func TestRegisterAndLogin(t *testing.T) {
	r := setupTestApp(t)

	_, token := registerUser(t, r, "Alice", "alice@example.com")
	assert.NotEmpty(t, token)

	// Duplicate registration
	w := doJSON(t, r, http.MethodPost, "/auth/register", "", gin.H{
		"name": "Alice Again", "email": "alice@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Wrong password
	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Right password
	w = doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := setupTestApp(t)

	w := doJSON(t, r, http.MethodPost, "/api/groups", "", gin.H{"name": "No Token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/groups", "garbage-token", gin.H{"name": "Bad Token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndJoinGroup(t *testing.T) {
	r := setupTestApp(t)
	_, ownerToken := registerUser(t, r, "Owner", "owner@example.com")
	_, joinerToken := registerUser(t, r, "Joiner", "joiner@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/groups", ownerToken, gin.H{"name": "Family Santa"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)
	groupID := data["id"].(string)
	joinCode := data["join_code"].(string)
	require.NotEmpty(t, joinCode)

	// Duplicate (name, owner) is a conflict
	w = doJSON(t, r, http.MethodPost, "/api/groups", ownerToken, gin.H{"name": "Family Santa"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Bad code
	w = doJSON(t, r, http.MethodPost, "/api/groups/join", joinerToken, gin.H{"join_code": "WRONGCOD"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Join
	w = doJSON(t, r, http.MethodPost, "/api/groups/join", joinerToken, gin.H{"join_code": joinCode})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Joining twice is a conflict
	w = doJSON(t, r, http.MethodPost, "/api/groups/join", joinerToken, gin.H{"join_code": joinCode})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Members see the group, the join code stays admin-only
	w = doJSON(t, r, http.MethodGet, "/api/groups/"+groupID, joinerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeData(t, w)
	assert.Empty(t, data["join_code"])
	assert.Len(t, data["members"], 2)
}

func TestSecretSantaFlowOverHTTP(t *testing.T) {
	r := setupTestApp(t)

	ownerID, ownerToken := registerUser(t, r, "Owner", "owner@example.com")
	memberIDs := []uuid.UUID{ownerID}
	tokens := map[uuid.UUID]string{ownerID: ownerToken}

	w := doJSON(t, r, http.MethodPost, "/api/groups", ownerToken, gin.H{"name": "Office Santa"})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	groupID := data["id"].(string)
	joinCode := data["join_code"].(string)

	// Shuffle with a single member fails
	w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/shuffle", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for i := 1; i < 5; i++ {
		id, token := registerUser(t, r, fmt.Sprintf("Member %d", i), fmt.Sprintf("member%d@example.com", i))
		w := doJSON(t, r, http.MethodPost, "/api/groups/join", token, gin.H{"join_code": joinCode})
		require.Equal(t, http.StatusOK, w.Code)
		memberIDs = append(memberIDs, id)
		tokens[id] = token
	}

	// Only the admin can shuffle
	w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/shuffle", tokens[memberIDs[1]], nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/shuffle", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Nothing disclosed before approvals
	w = doJSON(t, r, http.MethodGet, "/api/groups/"+groupID+"/assignment", ownerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Everyone submits a wish, admin approves; then addresses
	for _, id := range memberIDs {
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/wish", tokens[id], gin.H{"wish": "wish of " + id.String()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/wish/"+id.String()+"/approve", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		// Second approval is a conflict
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/wish/"+id.String()+"/approve", ownerToken, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	}
	for _, id := range memberIDs {
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/address", tokens[id], gin.H{"address": "address of " + id.String()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/address/"+id.String()+"/approve", ownerToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Every santa can now read their disclosure; it never names the recipient
	for _, id := range memberIDs {
		w = doJSON(t, r, http.MethodGet, "/api/groups/"+groupID+"/assignment", tokens[id], nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Contains(t, data["wish"], "wish of ")
		assert.Contains(t, data["address"], "address of ")
		assert.NotContains(t, data, "recipient_id")
	}

	// Acknowledge exactly once
	for _, id := range memberIDs {
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/assignment/ack", tokens[id], nil)
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, r, http.MethodPost, "/api/groups/"+groupID+"/assignment/ack", tokens[id], nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	}

	// Admin status view reflects the finished exchange
	w = doJSON(t, r, http.MethodGet, "/api/groups/"+groupID+"/status", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var statusResponse struct {
		Data []models.MemberStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statusResponse))
	require.Len(t, statusResponse.Data, 5)
	for _, s := range statusResponse.Data {
		assert.Equal(t, models.StatusApproved, s.WishStatus)
		assert.Equal(t, models.StatusApproved, s.AddressStatus)
	}

	// Activity feed recorded the exchange
	w = doJSON(t, r, http.MethodGet, "/api/groups/"+groupID+"/activity", ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
