package portal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController wires the JSON API surface onto the service layer.
type HTTPController struct {
	Auther    Authenticator
	Users     *UserService
	Tasks     *TaskService
	Companies *CompanyService
	Groups    *GroupService
	Events    *EventService
	ResetReq  *RequestPasswordResetHandler
	Redeem    *RedeemPasswordResetHandler
	Logger    Logger
}

// RegisterRoutes mounts public routes first, then the bearer-guarded
// surface.
func (c *HTTPController) RegisterRoutes(app RouteRegistrar, guard *RouteAuthenticator) {
	protected := guard.ProtectedRoute()
	admin := guard.AdminRoute()

	app.Post("/token", c.Token)
	app.Post("/register", c.Register)
	app.Post("/auth/request-password-reset", c.RequestPasswordReset)
	app.Post("/auth/reset-password", c.ResetPassword)

	app.Get("/users/me", c.Me, protected)
	app.Put("/users/me", c.UpdateMe, protected)

	app.Get("/users", c.ListUsers, protected, admin)
	app.Get("/users/:id", c.GetUser, protected, admin)
	app.Put("/users/:id/role", c.SetUserRole, protected, admin)
	app.Put("/users/:id/status", c.SetUserStatus, protected, admin)
	app.Delete("/users/:id", c.DeleteUser, protected, admin)

	app.Post("/tasks", c.CreateTask, protected)
	app.Get("/tasks", c.ListTasks, protected)
	app.Get("/tasks/:id", c.GetTask, protected)
	app.Put("/tasks/:id", c.UpdateTask, protected)
	app.Delete("/tasks/:id", c.DeleteTask, protected)

	app.Post("/companies", c.CreateCompany, protected, admin)
	app.Get("/companies", c.ListCompanies, protected)
	app.Get("/companies/:id", c.GetCompany, protected)
	app.Delete("/companies/:id", c.DeleteCompany, protected, admin)

	app.Post("/groups", c.CreateGroup, protected, admin)
	app.Get("/groups", c.ListGroups, protected)
	app.Get("/groups/:id", c.GetGroup, protected)
	app.Post("/groups/:id/members/:user_id", c.AddGroupMember, protected, admin)
	app.Delete("/groups/:id/members/:user_id", c.RemoveGroupMember, protected, admin)
	app.Delete("/groups/:id", c.DeleteGroup, protected, admin)

	app.Post("/events", c.CreateEvent, protected)
	app.Get("/events", c.ListEvents, protected)
	app.Delete("/events/:id", c.DeleteEvent, protected)
	app.Get("/calendar", c.Calendar, protected)
}

func (c *HTTPController) logger() Logger {
	if c.Logger == nil {
		return defLogger{}
	}
	return c.Logger
}

// TokenRequest is the form-encoded login payload
type TokenRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// Token exchanges credentials for a bearer token.
func (c *HTTPController) Token(ctx router.Context) error {
	payload := new(TokenRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	token, err := c.Auther.Login(ctx.Context(), payload.Username, payload.Password)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// RegisterRequest is the signup payload
type RegisterRequest struct {
	Email     string     `form:"email" json:"email"`
	Password  string     `form:"password" json:"password"`
	FirstName string     `form:"first_name" json:"first_name"`
	Surname   string     `form:"surname" json:"surname"`
	Birthday  *time.Time `form:"birthday" json:"birthday"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.Surname, validation.Length(0, 200)),
	)
}

// Register creates a new user account.
func (c *HTTPController) Register(ctx router.Context) error {
	payload := new(RegisterRequest)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	user, err := c.Auther.Register(ctx.Context(), RegisterUserMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		Surname:   payload.Surname,
		Birthday:  payload.Birthday,
	})
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, user)
}

// ResetRequestPayload carries the account email for a reset request
type ResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

func (r ResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// RequestPasswordReset always answers with the same generic
// confirmation; account existence is never disclosed.
func (c *HTTPController) RequestPasswordReset(ctx router.Context) error {
	payload := new(ResetRequestPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.ResetReq.Execute(ctx.Context(), RequestPasswordResetMessage{
		Email: payload.Email,
	}); err != nil {
		c.logger().Error("password reset request failed", "error", err)
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "If the account exists, a reset link has been sent",
	})
}

// ResetPasswordPayload redeems a reset token
type ResetPasswordPayload struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"password" json:"password"`
}

func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

// ResetPassword consumes a reset token and sets the new password.
func (c *HTTPController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Redeem.Execute(ctx.Context(), RedeemPasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}); err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"message": "Password has been reset",
	})
}

// Me returns the authenticated caller's record.
func (c *HTTPController) Me(ctx router.Context) error {
	return ctx.JSON(router.StatusOK, ActorFromContext(ctx))
}

// UpdateMe merges profile fields into the caller's own record.
func (c *HTTPController) UpdateMe(ctx router.Context) error {
	payload := new(ProfileUpdate)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}

	user, err := c.Users.UpdateProfile(ctx.Context(), ActorFromContext(ctx), *payload)
	if err != nil {
		return c.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, user)
}

func (c *HTTPController) ListUsers(ctx router.Context) error {
	users, err := c.Users.List(ctx.Context(), ActorFromContext(ctx), ctx.Query("search"))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, users)
}

func (c *HTTPController) GetUser(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	user, err := c.Users.Get(ctx.Context(), ActorFromContext(ctx), id)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, user)
}

// RolePayload carries the new role value
type RolePayload struct {
	Role string `form:"role" json:"role"`
}

func (r RolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required),
	)
}

func (c *HTTPController) SetUserRole(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	payload := new(RolePayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	user, err := c.Users.SetRole(ctx.Context(), ActorFromContext(ctx), id, payload.Role)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, user)
}

// StatusPayload carries the new active flag
type StatusPayload struct {
	IsActive bool `form:"is_active" json:"is_active"`
}

func (c *HTTPController) SetUserStatus(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	payload := new(StatusPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}

	user, err := c.Users.SetActive(ctx.Context(), ActorFromContext(ctx), id, payload.IsActive)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, user)
}

func (c *HTTPController) DeleteUser(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Users.Delete(ctx.Context(), ActorFromContext(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"deleted": id})
}

// CreateTaskPayload validates task creation input
type CreateTaskPayload struct {
	CreateTaskInput
}

func (r CreateTaskPayload) Validate() error {
	return validation.ValidateStruct(&r.CreateTaskInput,
		validation.Field(&r.CreateTaskInput.Title, validation.Required, validation.Length(1, 300)),
	)
}

func (c *HTTPController) CreateTask(ctx router.Context) error {
	payload := new(CreateTaskPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	task, err := c.Tasks.Create(ctx.Context(), ActorFromContext(ctx), payload.CreateTaskInput)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusCreated, task)
}

func (c *HTTPController) ListTasks(ctx router.Context) error {
	taskList, err := c.Tasks.List(ctx.Context(), ActorFromContext(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, taskList)
}

func (c *HTTPController) GetTask(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	task, err := c.Tasks.Get(ctx.Context(), ActorFromContext(ctx), id)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, task)
}

func (c *HTTPController) UpdateTask(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	payload := new(TaskUpdate)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}

	task, err := c.Tasks.Update(ctx.Context(), ActorFromContext(ctx), id, *payload)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, task)
}

func (c *HTTPController) DeleteTask(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Tasks.Delete(ctx.Context(), ActorFromContext(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"deleted": id})
}

// CreateCompanyPayload validates company creation input
type CreateCompanyPayload struct {
	CreateCompanyInput
}

func (r CreateCompanyPayload) Validate() error {
	return validation.ValidateStruct(&r.CreateCompanyInput,
		validation.Field(&r.CreateCompanyInput.Name, validation.Required, validation.Length(1, 300)),
	)
}

func (c *HTTPController) CreateCompany(ctx router.Context) error {
	payload := new(CreateCompanyPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	company, err := c.Companies.Create(ctx.Context(), ActorFromContext(ctx), payload.CreateCompanyInput)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusCreated, company)
}

func (c *HTTPController) ListCompanies(ctx router.Context) error {
	companies, err := c.Companies.List(ctx.Context(), ActorFromContext(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, companies)
}

func (c *HTTPController) GetCompany(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	company, err := c.Companies.Get(ctx.Context(), ActorFromContext(ctx), id)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, company)
}

func (c *HTTPController) DeleteCompany(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Companies.Delete(ctx.Context(), ActorFromContext(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"deleted": id})
}

// CreateGroupPayload validates group creation input
type CreateGroupPayload struct {
	Name string `form:"name" json:"name"`
}

func (r CreateGroupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

func (c *HTTPController) CreateGroup(ctx router.Context) error {
	payload := new(CreateGroupPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	group, err := c.Groups.Create(ctx.Context(), ActorFromContext(ctx), payload.Name)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusCreated, group)
}

func (c *HTTPController) ListGroups(ctx router.Context) error {
	groupList, err := c.Groups.List(ctx.Context(), ActorFromContext(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, groupList)
}

func (c *HTTPController) GetGroup(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	group, err := c.Groups.Get(ctx.Context(), ActorFromContext(ctx), id)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, group)
}

func (c *HTTPController) AddGroupMember(ctx router.Context) error {
	groupID, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}
	userID, err := c.idParam(ctx, "user_id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Groups.AddMember(ctx.Context(), ActorFromContext(ctx), groupID, userID); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"group_id": groupID, "user_id": userID})
}

func (c *HTTPController) RemoveGroupMember(ctx router.Context) error {
	groupID, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}
	userID, err := c.idParam(ctx, "user_id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Groups.RemoveMember(ctx.Context(), ActorFromContext(ctx), groupID, userID); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"group_id": groupID, "user_id": userID})
}

func (c *HTTPController) DeleteGroup(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Groups.Delete(ctx.Context(), ActorFromContext(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"deleted": id})
}

// CreateEventPayload validates event creation input
type CreateEventPayload struct {
	CreateEventInput
}

func (r CreateEventPayload) Validate() error {
	return validation.ValidateStruct(&r.CreateEventInput,
		validation.Field(&r.CreateEventInput.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.CreateEventInput.Location, validation.Required),
		validation.Field(&r.CreateEventInput.EventDate, validation.Required),
	)
}

func (c *HTTPController) CreateEvent(ctx router.Context) error {
	payload := new(CreateEventPayload)
	if err := ctx.Bind(payload); err != nil {
		return c.badRequest(ctx, err)
	}
	if err := payload.Validate(); err != nil {
		return c.badRequest(ctx, err)
	}

	event, err := c.Events.Create(ctx.Context(), ActorFromContext(ctx), payload.CreateEventInput)
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusCreated, event)
}

func (c *HTTPController) ListEvents(ctx router.Context) error {
	eventList, err := c.Events.List(ctx.Context(), ActorFromContext(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, eventList)
}

func (c *HTTPController) DeleteEvent(ctx router.Context) error {
	id, err := c.idParam(ctx, "id")
	if err != nil {
		return c.badRequest(ctx, err)
	}

	if err := c.Events.Delete(ctx.Context(), ActorFromContext(ctx), id); err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, map[string]any{"deleted": id})
}

func (c *HTTPController) Calendar(ctx router.Context) error {
	entries, err := c.Events.Calendar(ctx.Context(), ActorFromContext(ctx))
	if err != nil {
		return c.renderError(ctx, err)
	}
	return ctx.JSON(router.StatusOK, entries)
}

func (c *HTTPController) idParam(ctx router.Context, name string) (uuid.UUID, error) {
	raw := ctx.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, goerrors.New("invalid identifier", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"param": name, "value": raw})
	}
	return id, nil
}

func (c *HTTPController) badRequest(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryBadInput, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}
	return c.renderError(ctx, richErr)
}

// renderError records the failure as it reaches the wire, then writes
// the JSON body.
func (c *HTTPController) renderError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	c.logger().Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return RenderError(ctx, richErr)
}
