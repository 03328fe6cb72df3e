package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sessionEmailKey = "email"

// server holds the pieces the handlers dispatch into.
type server struct {
	sync    *Synchronizer
	session *SessionGateway
}

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// requireLogin guards the todo routes behind the session cookie.
func (s *server) requireLogin(c *gin.Context) {
	session := sessions.Default(c)
	if session.Get(sessionEmailKey) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "login required"})
		return
	}
	c.Next()
}

// Healthz godoc
// @Summary Liveness check
// @Schemes
// @Description Show service status and current time
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /healthz [get]
func handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

// ListTodos godoc
// @Summary List todos
// @Schemes
// @Description Current snapshot of the todo list
// @Tags todos
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /todos [get]
func (s *server) handleGetTodos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"todos": s.sync.List()})
}

// AddTodo godoc
// @Summary Add a todo
// @Schemes
// @Description Insert locally and create the remote document. A missing id is filled in.
// @Tags todos
// @Accept json
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Router /todos [post]
func (s *server) handleAddTodo(c *gin.Context) {
	var rec Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		log.Print(err)
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	c.JSON(http.StatusAccepted, gin.H{"todos": s.sync.AddTodo(rec)})
}

func (s *server) handleUpdateTodo(c *gin.Context) {
	var rec Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		log.Print(err)
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	if id := c.Param("id"); rec.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "body id does not match path"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"todos": s.sync.UpdateTodo(rec)})
}

func (s *server) handleDeleteTodo(c *gin.Context) {
	rec := Record{ID: c.Param("id")}
	c.JSON(http.StatusAccepted, gin.H{"todos": s.sync.DeleteTodo(rec)})
}

// ClearTodos godoc
// @Summary Clear all todos
// @Schemes
// @Description Empty the list and delete each remote document independently
// @Tags todos
// @Produce json
// @Success 202 {object} map[string]interface{}
// @Router /todos [delete]
func (s *server) handleClearTodos(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"todos": s.sync.ClearTodo()})
}

func (s *server) handleSortTodos(c *gin.Context) {
	var req struct {
		Criterion string `json:"criterion" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	todos, err := s.sync.SortTodo(req.Criterion)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"todos": todos})
}

// Login godoc
// @Summary Sign in
// @Schemes
// @Description Authenticate, mark the session logged-in and load the todo list
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func (s *server) handleLogin(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	if err := s.session.SignIn(c.Request.Context(), creds.Email, creds.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": authCode(err)})
		return
	}
	s.startSession(c, creds.Email)
	c.JSON(http.StatusOK, gin.H{"logged_in": true})
}

func (s *server) handleJoin(c *gin.Context) {
	var creds credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	if err := s.session.SignUp(c.Request.Context(), creds.Email, creds.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"msg": authCode(err)})
		return
	}
	s.startSession(c, creds.Email)
	c.JSON(http.StatusOK, gin.H{"logged_in": true})
}

func (s *server) handleLogout(c *gin.Context) {
	s.session.SignOut(c.Request.Context())
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Errorf("could not clear session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": false})
}

func (s *server) handleDeleteAccount(c *gin.Context) {
	if err := s.session.DeleteAccount(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"msg": authCode(err)})
		return
	}
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Errorf("could not clear session: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"logged_in": false})
}

func (s *server) handleSessionState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logged_in": s.session.LoggedIn(), "email": s.session.Email()})
}

// startSession pins the identity into the cookie session and kicks off the
// initial fetch. A failed fetch leaves the store as it was; login still
// succeeds and the next reload gets another chance.
func (s *server) startSession(c *gin.Context, email string) {
	session := sessions.Default(c)
	session.Set(sessionEmailKey, email)
	if err := session.Save(); err != nil {
		log.Errorf("could not save session: %v", err)
	}
	if err := s.sync.LoadInitial(c.Request.Context()); err != nil {
		log.Errorf("initial fetch failed: %v", err)
	}
}

func authCode(err error) string {
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr.Code
	}
	return "auth/internal-error"
}
