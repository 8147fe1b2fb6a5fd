package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"todo-backend/internal/domain"
	"todo-backend/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth     service.AuthService
	tokens   service.TokenService
	todos    service.TodoService
	exporter service.ExportService
	logger   *logrus.Logger
}

// NewHandler builds the route handler. exporter may be nil when object
// storage is not configured.
func NewHandler(
	auth service.AuthService,
	tokens service.TokenService,
	todos service.TodoService,
	exporter service.ExportService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		auth:     auth,
		tokens:   tokens,
		todos:    todos,
		exporter: exporter,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestLogger(h.logger))
	router.Use(h.authenticate())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusAccepted, gin.H{"ok": "ok"})
		})
		api.GET("/me", h.currentUser)
		api.POST("/register", h.register)
		api.POST("/login", h.login)

		api.GET("/todos", h.requirePrivilege(domain.PrivilegeViewTodos), h.listTodos)
		api.POST("/todo/create", h.requirePrivilege(domain.PrivilegeCreateTodos), h.createTodo)
		api.PUT("/todo/update", h.requirePrivilege(domain.PrivilegeUpdateTodos), h.updateTodo)
		api.DELETE("/todo/delete", h.requirePrivilege(domain.PrivilegeDeleteTodos), h.deleteTodos)
		api.POST("/todos/export", h.requirePrivilege(domain.PrivilegeViewTodos), h.exportTodos)
		api.GET("/todos/exports", h.requirePrivilege(domain.PrivilegeViewTodos), h.listExports)
	}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	ID         int64    `json:"id"`
	Email      string   `json:"email"`
	UserRole   string   `json:"userRole,omitempty"`
	System     bool     `json:"system"`
	Privileges []string `json:"privileges"`
}

type todoRequest struct {
	ID             int64  `json:"id"`
	Description    string `json:"description"`
	DueDate        string `json:"dueDate"`
	CheckMark      bool   `json:"checkMark"`
	CompletionDate string `json:"completionDate"`
}

type todoResponse struct {
	ID             int64   `json:"id"`
	Description    string  `json:"description"`
	DueDate        *string `json:"dueDate,omitempty"`
	CheckMark      bool    `json:"checkMark"`
	CompletionDate *string `json:"completionDate,omitempty"`
}

type deleteTodosRequest struct {
	IDs []int64 `json:"ids"`
}

type exportResponse struct {
	Location string `json:"location"`
}

type exportInfoResponse struct {
	Location     string  `json:"location"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
}

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	role := domain.UserRole(req.Role)
	if role == "" {
		role = domain.RoleBasicUser
	}

	err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token})
}

// currentUser is a pure projection of the principal resolved by the
// authentication filter; it never touches storage.
func (h *Handler) currentUser(c *gin.Context) {
	principal := principalFrom(c)
	if principal == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, userResponse{
		ID:         principal.UserID,
		Email:      principal.Email,
		UserRole:   string(principal.Role),
		System:     principal.System,
		Privileges: principal.Privileges,
	})
}

func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.todos.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]todoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createTodo(c *gin.Context) {
	input, ok := h.bindTodo(c)
	if !ok {
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), input, principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) updateTodo(c *gin.Context) {
	input, ok := h.bindTodo(c)
	if !ok {
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), input, principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) deleteTodos(c *gin.Context) {
	var req deleteTodosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.todos.Delete(c.Request.Context(), req.IDs, principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]todoResponse, len(deleted))
	for i := range deleted {
		resp[i] = todoToResponse(deleted[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) exportTodos(c *gin.Context) {
	if h.exporter == nil {
		writeError(c, http.StatusServiceUnavailable, "storage service not configured")
		return
	}

	location, err := h.exporter.Export(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, exportResponse{Location: location})
}

func (h *Handler) listExports(c *gin.Context) {
	if h.exporter == nil {
		writeError(c, http.StatusServiceUnavailable, "storage service not configured")
		return
	}

	exports, err := h.exporter.ListExports(c.Request.Context(), principalFrom(c))
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]exportInfoResponse, len(exports))
	for i, export := range exports {
		resp[i] = exportInfoResponse{
			Location: export.Location,
			Size:     export.Size,
		}
		if export.LastModified != nil && !export.LastModified.IsZero() {
			v := export.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) bindTodo(c *gin.Context) (service.TodoInput, bool) {
	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return service.TodoInput{}, false
	}

	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid dueDate")
		return service.TodoInput{}, false
	}
	completionDate, err := parseDate(req.CompletionDate)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid completionDate")
		return service.TodoInput{}, false
	}

	return service.TodoInput{
		ID:             req.ID,
		Description:    req.Description,
		DueDate:        dueDate,
		CheckMark:      req.CheckMark,
		CompletionDate: completionDate,
	}, true
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	writeError(c, status, message)
}

// classifyError maps domain sentinels to HTTP status and a client-safe
// message. Authorization failures stay generic so the response never reveals
// which check failed.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrNotTodoOwner):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, domain.ErrUserAlreadyExists.Error()
	case errors.Is(err, domain.ErrAdminRegistration),
		errors.Is(err, domain.ErrRoleNotFound),
		errors.Is(err, domain.ErrEmptyIDSet),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrTodoNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:  status,
		Error:   http.StatusText(status),
		Message: message,
	})
}

const dateLayout = "2006-01-02"

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}

func todoToResponse(todo domain.Todo) todoResponse {
	return todoResponse{
		ID:             todo.ID,
		Description:    todo.Description,
		DueDate:        formatDate(todo.DueDate),
		CheckMark:      todo.CheckMark,
		CompletionDate: formatDate(todo.CompletionDate),
	}
}
