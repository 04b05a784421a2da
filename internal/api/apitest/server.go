// Package apitest runs an in-memory stand-in for the feedback REST backend. It speaks the
// same envelope and error shapes as the real server and is meant for tests only.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/feedbacktool/internal/models"
)

const lockedMessage = "Cannot modify questions for a survey that already has responses"

type account struct {
	user models.User
	hash []byte
}

// hashPassword hashes at the minimum bcrypt cost.
func hashPassword(pw string) []byte {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: hash password: %v", err))
	}
	return h
}

type claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Request is one call seen by the fake, for assertions.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Language      string
}

// Server is the fake backend. Its knobs may be changed between requests.
type Server struct {
	srv    *httptest.Server
	secret []byte

	mu          sync.Mutex
	accounts    map[string]*account
	nextUser    int64
	surveys     map[int64]*models.Survey
	nextSurvey  int64
	nextQID     int64
	responses   map[int64][]models.ResponseRecord
	revoked     map[string]bool
	resetTokens map[string]string
	requests    []Request

	// MeStatus forces /auth/me to fail with this status when non-zero.
	MeStatus int
	// LogoutStatus forces /auth/logout to fail with this status when non-zero.
	LogoutStatus int
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
	// Now is the clock used for tokens and timestamps.
	Now func() time.Time
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:      []byte("apitest-secret"),
		accounts:    map[string]*account{},
		surveys:     map[int64]*models.Survey{},
		responses:   map[int64][]models.ResponseRecord{},
		revoked:     map[string]bool{},
		resetTokens: map[string]string{},
		TokenTTL:    time.Hour,
		Now:         time.Now,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// BaseURL is the API root, including the /api prefix.
func (s *Server) BaseURL() string { return s.srv.URL + "/api" }

// Requests returns a copy of the calls seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// AddUser registers an account and returns its profile.
func (s *Server) AddUser(name, email, password string, role models.Role) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, role)
}

func (s *Server) addUserLocked(name, email, password string, role models.Role) models.User {
	s.nextUser++
	u := models.User{ID: s.nextUser, Name: name, Email: strings.ToLower(email), Role: role, CreatedAt: s.Now().UTC()}
	s.accounts[u.Email] = &account{user: u, hash: hashPassword(password)}
	return u
}

// IssueToken signs a token for an existing account.
func (s *Server) IssueToken(email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return "", errors.New("unknown account")
	}
	return s.sign(a.user)
}

// AddSurvey stores sv, assigning ids to it and its questions, and returns the id.
func (s *Server) AddSurvey(sv models.Survey) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSurvey++
	sv.ID = s.nextSurvey
	if sv.CreatedAt.IsZero() {
		sv.CreatedAt = s.Now().UTC()
	}
	for i := range sv.Questions {
		s.nextQID++
		sv.Questions[i].ID = s.nextQID
	}
	s.surveys[sv.ID] = &sv
	return sv.ID
}

// AddResponse stores a raw response record for a survey.
func (s *Server) AddResponse(surveyID int64, rec models.ResponseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ResponseID == "" {
		rec.ResponseID = uuid.NewString()
	}
	s.responses[surveyID] = append(s.responses[surveyID], rec)
}

// Survey returns a copy of a stored survey.
func (s *Server) Survey(id int64) (models.Survey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.surveys[id]
	if !ok {
		return models.Survey{}, false
	}
	return *sv, true
}

// Responses returns the responses stored for a survey.
func (s *Server) Responses(id int64) []models.ResponseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ResponseRecord(nil), s.responses[id]...)
}

// ResetToken returns the pending password reset token for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, e := range s.resetTokens {
		if e == strings.ToLower(email) {
			return tok
		}
	}
	return ""
}

func (s *Server) sign(u models.User) (string, error) {
	now := s.Now()
	c := claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.Use(s.record)
	api := r.Group("/api")

	api.POST("/auth/login", s.login)
	api.POST("/users/create", s.register)
	api.POST("/auth/forgot-password", s.forgotPassword)
	api.POST("/auth/reset-password", s.resetPassword)
	api.GET("/auth/reset-password/validate/:token", s.validateReset)
	api.GET("/public/surveys/:id", s.optionalAuth, s.publicSurvey)
	api.POST("/public/surveys/:id/responses", s.optionalAuth, s.submitResponse)

	authed := api.Group("", s.requireAuth)
	authed.GET("/auth/me", s.me)
	authed.POST("/auth/logout", s.logout)

	admin := api.Group("", s.requireAuth, s.requireAdmin)
	admin.GET("/surveys", s.listSurveys)
	admin.GET("/surveys/admin", s.listSurveys)
	admin.POST("/surveys", s.createSurvey)
	admin.GET("/surveys/:id", s.getSurvey)
	admin.PUT("/surveys/:id", s.updateSurvey)
	admin.DELETE("/surveys/:id", s.deleteSurvey)
	admin.GET("/surveys/:id/results", s.results)
	admin.GET("/responses/survey/:id", s.surveyResponses)
	return r
}

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Authorization: c.GetHeader("Authorization"),
		Language:      c.GetHeader("Accept-Language"),
	})
	s.mu.Unlock()
	c.Next()
}

func ok(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   message,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    http.StatusOK,
	})
}

// fail writes the ErrorResponse shape.
func fail(c *gin.Context, status int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(status, gin.H{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      c.Request.URL.Path,
		"fields":    fields,
	})
}

// failEnvelope writes the enveloped {success:false} shape with a 200 status, as some
// endpoints of the real server do.
func failEnvelope(c *gin.Context, status int, message string) {
	c.JSON(http.StatusOK, gin.H{
		"success": false,
		"message": message,
		"errors":  []string{message},
		"status":  status,
		"path":    c.Request.URL.Path,
	})
}

const ctxUser = "apitest.user"

func (s *Server) authenticate(c *gin.Context) (*models.User, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	var cl claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil || !tok.Valid {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked[raw] {
		return nil, false
	}
	a, found := s.accounts[cl.Email]
	if !found {
		return nil, false
	}
	u := a.user
	return &u, true
}

func (s *Server) requireAuth(c *gin.Context) {
	u, authed := s.authenticate(c)
	if !authed {
		fail(c, http.StatusUnauthorized, "Full authentication is required to access this resource", nil)
		return
	}
	c.Set(ctxUser, u)
	c.Next()
}

func (s *Server) optionalAuth(c *gin.Context) {
	if u, authed := s.authenticate(c); authed {
		c.Set(ctxUser, u)
	}
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	u := currentUser(c)
	if u == nil || u.Role != models.RoleAdmin {
		fail(c, http.StatusForbidden, "Access denied", nil)
		return
	}
	c.Next()
}

func currentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(ctxUser); exists {
		u, _ := v.(*models.User)
		return u
	}
	return nil
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	s.mu.Lock()
	a, found := s.accounts[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !found || bcrypt.CompareHashAndPassword(a.hash, []byte(in.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	s.issue(c, a.user, "Login successful")
}

func (s *Server) issue(c *gin.Context, u models.User, message string) {
	tok, err := s.sign(u)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	ok(c, message, models.LoginResponse{Token: tok, Email: u.Email, Name: u.Name, Role: u.Role, UserID: u.ID})
}

func (s *Server) register(c *gin.Context) {
	var in credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		fail(c, http.StatusBadRequest, "Validation failed", map[string]string{"name": "Name is required"})
		return
	}
	s.mu.Lock()
	if _, exists := s.accounts[strings.ToLower(in.Email)]; exists {
		s.mu.Unlock()
		fail(c, http.StatusConflict, "Email is already registered", map[string]string{"email": "Email is already registered"})
		return
	}
	u := s.addUserLocked(in.Name, in.Email, in.Password, models.RoleUser)
	s.mu.Unlock()
	s.issue(c, u, "User created successfully")
}

func (s *Server) me(c *gin.Context) {
	if s.MeStatus != 0 {
		fail(c, s.MeStatus, "profile unavailable", nil)
		return
	}
	u := currentUser(c)
	ok(c, "Profile retrieved", gin.H{
		"userId":    u.ID,
		"email":     u.Email,
		"name":      u.Name,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	})
}

func (s *Server) logout(c *gin.Context) {
	if s.LogoutStatus != 0 {
		fail(c, s.LogoutStatus, "logout failed", nil)
		return
	}
	tok := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	s.mu.Lock()
	s.revoked[tok] = true
	s.mu.Unlock()
	ok(c, "Logged out successfully", nil)
}

func (s *Server) forgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	s.mu.Lock()
	if _, found := s.accounts[strings.ToLower(in.Email)]; found {
		s.resetTokens[uuid.NewString()] = strings.ToLower(in.Email)
	}
	s.mu.Unlock()
	ok(c, "If an account with that email exists, a password reset link has been sent", "")
}

func (s *Server) validateReset(c *gin.Context) {
	s.mu.Lock()
	_, valid := s.resetTokens[c.Param("token")]
	s.mu.Unlock()
	msg := "Token is invalid or expired"
	if valid {
		msg = "Token is valid"
	}
	ok(c, msg, valid)
}

func (s *Server) resetPassword(c *gin.Context) {
	var in struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	s.mu.Lock()
	email, valid := s.resetTokens[in.Token]
	if valid {
		delete(s.resetTokens, in.Token)
		s.accounts[email].hash = hashPassword(in.NewPassword)
	}
	s.mu.Unlock()
	if !valid {
		failEnvelope(c, http.StatusBadRequest, "Password reset failed: Invalid or expired token")
		return
	}
	ok(c, "Password has been reset successfully", "")
}

func (s *Server) withStats(sv models.Survey) models.Survey {
	n := len(s.responses[sv.ID])
	sv.TotalResponses = n
	sv.TotalQuestions = len(sv.Questions)
	sv.HasResponses = n > 0
	if n > 0 {
		complete := 0
		for _, r := range s.responses[sv.ID] {
			if r.IsComplete {
				complete++
			}
		}
		sv.CompletionRate = complete * 100 / n
	}
	return sv
}

func (s *Server) listSurveys(c *gin.Context) {
	s.mu.Lock()
	out := make([]models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, s.withStats(*sv))
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	ok(c, "Surveys retrieved", out)
}

func (s *Server) getSurvey(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	sv, found := s.surveys[id]
	var out models.Survey
	if found {
		out = s.withStats(*sv)
	}
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	ok(c, "Survey retrieved", out)
}

func (s *Server) questionsFrom(in []models.QuestionPayload) []models.Question {
	out := make([]models.Question, 0, len(in))
	for _, q := range in {
		s.nextQID++
		out = append(out, models.Question{
			ID:           s.nextQID,
			Type:         q.Type,
			QuestionText: q.QuestionText,
			OptionsJSON:  q.OptionsJSON,
			OrderNumber:  q.OrderNumber,
			Required:     q.Required,
		})
	}
	return out
}

func (s *Server) createSurvey(c *gin.Context) {
	var in models.CreateSurveyRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		fail(c, http.StatusBadRequest, "Validation failed", map[string]string{"title": "Title is required"})
		return
	}
	s.mu.Lock()
	s.nextSurvey++
	sv := &models.Survey{
		ID:          s.nextSurvey,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		EndDate:     in.EndDate,
		CreatedAt:   s.Now().UTC(),
		Questions:   s.questionsFrom(in.Questions),
	}
	s.surveys[sv.ID] = sv
	out := *sv
	s.mu.Unlock()
	ok(c, "Survey created successfully", out)
}

// sameStructure compares incoming questions with the stored ones ignoring ids.
func sameStructure(stored []models.Question, in []models.QuestionPayload) bool {
	if len(stored) != len(in) {
		return false
	}
	for i := range stored {
		a, b := stored[i], in[i]
		if a.Type != b.Type || a.QuestionText != b.QuestionText || a.OrderNumber != b.OrderNumber || a.Required != b.Required {
			return false
		}
		if (a.OptionsJSON == nil) != (b.OptionsJSON == nil) || (a.OptionsJSON != nil && *a.OptionsJSON != *b.OptionsJSON) {
			return false
		}
	}
	return true
}

func (s *Server) updateSurvey(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var in models.UpdateSurveyRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, found := s.surveys[id]
	if !found {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	if len(s.responses[id]) > 0 && len(in.Questions) > 0 && !sameStructure(sv.Questions, in.Questions) {
		fail(c, http.StatusBadRequest, lockedMessage, nil)
		return
	}
	sv.Title = in.Title
	sv.Description = in.Description
	sv.EndDate = in.EndDate
	sv.UpdatedAt = s.Now().UTC()
	switch {
	case in.Active:
		sv.Status = models.StatusActive
	case sv.Status == models.StatusActive:
		sv.Status = models.StatusInactive
	}
	if len(s.responses[id]) == 0 && len(in.Questions) > 0 {
		sv.Questions = s.questionsFrom(in.Questions)
	}
	ok(c, "Survey updated successfully", s.withStats(*sv))
}

func (s *Server) deleteSurvey(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	_, found := s.surveys[id]
	delete(s.surveys, id)
	delete(s.responses, id)
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	ok(c, "Survey deleted successfully", nil)
}

// closed mirrors the respondent-side rule: inactive, or past its end date.
func (s *Server) closed(sv *models.Survey) bool {
	return sv.Status != models.StatusActive || (sv.EndDate != nil && sv.EndDate.Before(s.Now()))
}

func (s *Server) publicSurvey(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	sv, found := s.surveys[id]
	var out models.Survey
	if found {
		out = *sv
	}
	s.mu.Unlock()
	if !found || out.Status == models.StatusDraft {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	out.Questions = append([]models.Question(nil), out.Questions...)
	ok(c, "Survey retrieved", out)
}

func (s *Server) submitResponse(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var in models.SubmitResponseRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	u := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, found := s.surveys[id]
	if !found || sv.Status == models.StatusDraft {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	if s.closed(sv) {
		fail(c, http.StatusBadRequest, "This survey is no longer accepting responses", nil)
		return
	}
	byID := map[int64]models.Question{}
	for _, q := range sv.Questions {
		byID[q.ID] = q
	}
	rec := models.ResponseRecord{ResponseID: uuid.NewString(), IsAnonymous: u == nil, IsComplete: true}
	now := s.Now().UTC()
	rec.SubmittedAt = &now
	if u != nil {
		rec.RespondentName, rec.RespondentEmail = u.Name, u.Email
	}
	answered := map[int64]bool{}
	for _, a := range in.Answers {
		q, known := byID[a.QuestionID]
		if !known {
			fail(c, http.StatusBadRequest, fmt.Sprintf("Unknown question %d", a.QuestionID), nil)
			return
		}
		ra := models.ResponseAnswer{QuestionID: q.ID, QuestionText: q.QuestionText}
		switch {
		case a.RatingValue != nil:
			ra.AnswerText = models.NumberAnswer(float64(*a.RatingValue))
		case a.AnswerValue != nil:
			ra.AnswerText = models.TextAnswer(*a.AnswerValue)
		}
		answered[q.ID] = true
		rec.Answers = append(rec.Answers, ra)
	}
	for _, q := range sv.Questions {
		if q.Required && !answered[q.ID] {
			fail(c, http.StatusBadRequest, "Please answer all required questions", nil)
			return
		}
		if !answered[q.ID] {
			rec.IsComplete = false
		}
	}
	s.responses[id] = append(s.responses[id], rec)
	ok(c, "Response submitted successfully", gin.H{"responseId": rec.ResponseID})
}

func (s *Server) surveyResponses(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	_, found := s.surveys[id]
	out := models.SurveyResponses{SurveyID: id, Responses: append([]models.ResponseRecord{}, s.responses[id]...)}
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	ok(c, "Responses retrieved", out)
}

func (s *Server) results(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, found := s.surveys[id]
	if !found {
		fail(c, http.StatusNotFound, "Survey not found", nil)
		return
	}
	res := models.SurveyResults{
		SurveyID:          sv.ID,
		SurveyTitle:       sv.Title,
		SurveyDescription: sv.Description,
		SurveyCreatedAt:   sv.CreatedAt,
		TotalResponses:    len(s.responses[id]),
		TotalQuestions:    len(sv.Questions),
	}
	var answerID int64
	for _, q := range sv.Questions {
		qr := models.QuestionResult{
			QuestionID:   q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.Type,
			OrderNumber:  q.OrderNumber,
			Required:     q.Required,
		}
		for _, rec := range s.responses[id] {
			for _, a := range rec.Answers {
				if a.QuestionID != q.ID || a.Value().IsZero() {
					continue
				}
				answerID++
				var at time.Time
				if rec.SubmittedAt != nil {
					at = *rec.SubmittedAt
				}
				qr.Answers = append(qr.Answers, models.AnswerSummary{
					AnswerID:    answerID,
					AnswerText:  a.Value().String(),
					SubmittedAt: at,
					Respondent:  respondentInfo(rec),
				})
			}
		}
		qr.TotalAnswers = len(qr.Answers)
		res.QuestionResults = append(res.QuestionResults, qr)
	}
	for _, rec := range s.responses[id] {
		r := models.Respondent{
			RespondentID:          respondentInfo(rec).RespondentID,
			Name:                  rec.RespondentName,
			Email:                 rec.RespondentEmail,
			IsAnonymous:           rec.IsAnonymous,
			TotalAnswersSubmitted: len(rec.Answers),
		}
		if rec.SubmittedAt != nil {
			r.FirstSubmissionAt = *rec.SubmittedAt
		}
		res.Respondents = append(res.Respondents, r)
	}
	ok(c, "Results retrieved", res)
}

func respondentInfo(rec models.ResponseRecord) models.RespondentInfo {
	return models.RespondentInfo{
		RespondentID: rec.ResponseID,
		Name:         rec.RespondentName,
		Email:        rec.RespondentEmail,
		IsAnonymous:  rec.IsAnonymous,
	}
}
