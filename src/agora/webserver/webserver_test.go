package webserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opencivic/agora/src/agora/config"
	"github.com/opencivic/agora/src/agora/types"
)

type env struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(types.Models()...))

	cfg := config.Config{
		JWTSecret:      []byte("test-secret"),
		AllowedOrigins: []string{"http://localhost:3000"},
	}
	// nil Redis client: fan-out disabled, notifications still stored.
	return &env{t: t, router: New(cfg, db, nil), db: db}
}

func (e *env) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func (e *env) register(name, role string) string {
	e.t.Helper()
	w, out := e.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.org",
		"password": "correct horse",
		"location": "Springfield",
		"role":     role,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := out["token"].(string)
	require.NotEmpty(e.t, token)
	return token
}

func (e *env) createPetition(token string) uint64 {
	e.t.Helper()
	w, out := e.do(http.MethodPost, "/v1/petitions", token, gin.H{
		"title":         "Fix the bridge",
		"description":   "The bridge on Main St needs repairs.",
		"category":      "infrastructure",
		"location":      "Springfield",
		"signatureGoal": 2,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return uint64(out["id"].(float64))
}

func (e *env) createPoll(token string, options ...string) uint64 {
	e.t.Helper()
	w, out := e.do(http.MethodPost, "/v1/polls", token, gin.H{
		"title":          "New park location",
		"targetLocation": "Springfield",
		"options":        options,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return uint64(out["id"].(float64))
}

func petitionPath(id uint64, tail string) string {
	return "/v1/petitions/" + strconv.FormatUint(id, 10) + tail
}

func pollPath(id uint64, tail string) string {
	return "/v1/polls/" + strconv.FormatUint(id, 10) + tail
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	e.register("ana", "")

	// Duplicate email.
	w, _ := e.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"name": "ana2", "email": "ana@example.org", "password": "correct horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown role literal.
	w, _ = e.do(http.MethodPost, "/v1/auth/register", "", gin.H{
		"name": "bo", "email": "bo@example.org", "password": "correct horse", "role": "official",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := e.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ana@example.org", "password": "correct horse",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, out["token"])

	w, _ = e.do(http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ana@example.org", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	w, _ := e.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodGet, "/v1/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := e.register("ana", "")
	w, out := e.do(http.MethodGet, "/v1/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", out["name"])
}

func TestSignFlow(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	signer := e.register("bo", "")
	id := e.createPetition(author)

	w, out := e.do(http.MethodPost, petitionPath(id, "/sign"), signer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["signatureCount"])

	// Signing twice is rejected and changes nothing.
	w, _ = e.do(http.MethodPost, petitionPath(id, "/sign"), signer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Authors cannot sign their own petition.
	w, _ = e.do(http.MethodPost, petitionPath(id, "/sign"), author, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = e.do(http.MethodGet, petitionPath(id, ""), author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, out["signatureCount"])

	w, _ = e.do(http.MethodPost, "/v1/petitions/999/sign", signer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusChangeAuthorization(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	officer := e.register("olga", string(types.RoleOfficer))
	id := e.createPetition(author)

	// Citizens cannot change status, and the status stays put.
	w, _ := e.do(http.MethodPut, petitionPath(id, "/status"), author, gin.H{"status": "Closed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, out := e.do(http.MethodGet, petitionPath(id, ""), author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Active", out["status"])

	w, out = e.do(http.MethodPut, petitionPath(id, "/status"), officer, gin.H{"status": "Under_Review"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Under_Review", out["status"])

	w, _ = e.do(http.MethodPut, petitionPath(id, "/status"), officer, gin.H{"status": "Active"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out = e.do(http.MethodPut, petitionPath(id, "/status"), officer, gin.H{"status": "Closed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Closed", out["status"])
}

func TestCommentAndReplyFlow(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	commenter := e.register("bo", "")
	id := e.createPetition(author)

	w, _ := e.do(http.MethodPost, petitionPath(id, "/comment"), commenter, gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := e.do(http.MethodPost, petitionPath(id, "/comment"), commenter, gin.H{"text": "I agree"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentsList := out["comments"].([]any)
	require.Len(t, commentsList, 1)
	parentID := uint64(commentsList[0].(map[string]any)["id"].(float64))

	w, _ = e.do(http.MethodPost, petitionPath(id, "/comment/reply"), author, gin.H{
		"parentCommentId": 999, "text": "thanks",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out = e.do(http.MethodPost, petitionPath(id, "/comment/reply"), author, gin.H{
		"parentCommentId": parentID, "text": "thanks",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parent := out["comments"].([]any)[0].(map[string]any)
	replies := parent["reply"].([]any)
	require.Len(t, replies, 1)
	assert.Equal(t, "thanks", replies[0].(map[string]any)["text"])
}

func TestCommentVoteFlow(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	voter := e.register("bo", "")
	id := e.createPetition(author)

	_, out := e.do(http.MethodPost, petitionPath(id, "/comment"), author, gin.H{"text": "vote on me"})
	commentID := uint64(out["comments"].([]any)[0].(map[string]any)["id"].(float64))

	w, _ := e.do(http.MethodPost, petitionPath(id, "/comment/vote"), voter, gin.H{
		"commentId": commentID, "type": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(http.MethodPost, petitionPath(id, "/comment/vote"), voter, gin.H{
		"commentId": 999, "type": "up",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, node := e.do(http.MethodPost, petitionPath(id, "/comment/vote"), voter, gin.H{
		"commentId": commentID, "type": "up",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, node["upVote"].([]any), 1)
	assert.Empty(t, node["downVote"])

	// Flipping moves the voter across, never duplicates.
	w, node = e.do(http.MethodPost, petitionPath(id, "/comment/vote"), voter, gin.H{
		"commentId": commentID, "type": "down",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, node["upVote"])
	assert.Len(t, node["downVote"].([]any), 1)
}

func TestPollFlow(t *testing.T) {
	e := newEnv(t)
	creator := e.register("ana", "")
	voter := e.register("bo", "")
	officer := e.register("olga", string(types.RoleOfficer))
	id := e.createPoll(creator, "A", "B")

	w, _ := e.do(http.MethodPost, pollPath(id, "/vote"), voter, gin.H{"optionIndex": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, out := e.do(http.MethodPost, pollPath(id, "/vote"), voter, gin.H{"optionIndex": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, out["hasVoted"])

	w, _ = e.do(http.MethodPost, pollPath(id, "/vote"), voter, gin.H{"optionIndex": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Only the creator or an officer may edit.
	w, _ = e.do(http.MethodPut, pollPath(id, ""), voter, gin.H{"title": "hijack"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Officer replaces the option set: voters reset, "A" keeps its tally.
	w, out = e.do(http.MethodPut, pollPath(id, ""), officer, gin.H{"options": []string{"A", "C"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	opts := out["options"].([]any)
	require.Len(t, opts, 2)
	assert.EqualValues(t, 1, opts[0].(map[string]any)["votes"])
	assert.EqualValues(t, 0, opts[1].(map[string]any)["votes"])
	assert.Empty(t, out["voters"])

	// Deleting is gated the same way.
	w, _ = e.do(http.MethodDelete, pollPath(id, ""), voter, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = e.do(http.MethodDelete, pollPath(id, ""), creator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodGet, pollPath(id, ""), creator, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNotificationsFlow(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	signer := e.register("bo", "")
	id := e.createPetition(author)

	w, _ := e.do(http.MethodPost, petitionPath(id, "/sign"), signer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/notifications", nil)
	req.Header.Set("x-auth-token", author)
	w2 := httptest.NewRecorder()
	e.router.ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, false, list[0]["isRead"])
	notifID := uint64(list[0]["id"].(float64))

	// Only the recipient can mark it read.
	w, _ = e.do(http.MethodPut, "/v1/notifications/"+strconv.FormatUint(notifID, 10)+"/read", signer, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, out := e.do(http.MethodPut, "/v1/notifications/"+strconv.FormatUint(notifID, 10)+"/read", author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, out["isRead"])
}

func TestPetitionOwnershipGuards(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	other := e.register("bo", "")
	id := e.createPetition(author)

	w, _ := e.do(http.MethodPut, petitionPath(id, ""), other, gin.H{"title": "hijack"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodDelete, petitionPath(id, ""), other, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = e.do(http.MethodDelete, petitionPath(id, ""), author, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(http.MethodGet, petitionPath(id, ""), author, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	e := newEnv(t)
	token := e.register("ana", "")
	id := e.createPetition(token)

	w, _ := e.do(http.MethodDelete, "/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The account is gone, so the token no longer resolves.
	w, _ = e.do(http.MethodGet, "/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var n int64
	e.db.Model(&types.Petition{}).Where("id = ?", id).Count(&n)
	assert.Zero(t, n)
}

func TestAnalyticsSummary(t *testing.T) {
	e := newEnv(t)
	author := e.register("ana", "")
	signer := e.register("bo", "")
	id := e.createPetition(author)
	e.createPoll(author, "A", "B")

	w, _ := e.do(http.MethodPost, petitionPath(id, "/sign"), signer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, out := e.do(http.MethodGet, "/v1/analytics", author, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, out["totalSignatures"])
	assert.EqualValues(t, 1, out["totalPolls"])
	byStatus := out["petitionsByStatus"].(map[string]any)
	assert.EqualValues(t, 1, byStatus["Active"])
}
