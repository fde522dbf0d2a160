package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ellarises/ella-rises/internal/repository"
	"github.com/ellarises/ella-rises/internal/session"
)

// UserHandler serves the staff account screens.
type UserHandler struct {
	Users      *repository.UserRepo
	Sessions   session.Store
	BcryptCost int
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users *repository.UserRepo, sessions session.Store, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, Sessions: sessions, BcryptCost: bcryptCost}
}

type userForm struct {
	Username string `form:"username" validate:"required,min=3,max=64"`
	Password string `form:"password"`
	Email    string `form:"email" validate:"omitempty,email"`
	Role     string `form:"role" validate:"required,oneof=standard manager"`
}

func (f *userForm) email() *string {
	if e := strings.TrimSpace(f.Email); e != "" {
		return &e
	}
	return nil
}

// List renders the account search and listing page.
func (h *UserHandler) List(c echo.Context) error {
	term := c.QueryParam("q")
	users, err := h.Users.Search(c.Request().Context(), term)
	if err != nil {
		return failTo(c, h.Sessions, err, "/dashboard")
	}
	return c.Render(http.StatusOK, "users_list", pageData(c, h.Sessions, "Users", echo.Map{
		"Users": users,
		"Query": term,
	}))
}

// Detail renders one account.
func (h *UserHandler) Detail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrUserNotFound, "/users")
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/users")
	}
	return c.Render(http.StatusOK, "user_detail", pageData(c, h.Sessions, u.Username, echo.Map{
		"User": u,
	}))
}

// NewForm renders the blank account form.
func (h *UserHandler) NewForm(c echo.Context) error {
	return c.Render(http.StatusOK, "user_form", pageData(c, h.Sessions, "New user", echo.Map{
		"User": &repository.User{Role: repository.RoleStandard},
	}))
}

// Create adds an account. A password is mandatory here, unlike Update where
// a blank one keeps the current secret.
func (h *UserHandler) Create(c echo.Context) error {
	var form userForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil || form.Password == "" {
		return flashAndRedirect(c, h.Sessions, "error",
			"Username, password and role are required.", "/users/new")
	}
	id, err := h.Users.Create(c.Request().Context(),
		form.Username, form.Password, form.Role, form.email(), h.BcryptCost)
	if err != nil {
		return failTo(c, h.Sessions, err, "/users/new")
	}
	return flashAndRedirect(c, h.Sessions, "success", "User created.",
		"/users/"+strconv.FormatUint(id, 10))
}

// EditForm renders the form pre-filled with the account's fields.
func (h *UserHandler) EditForm(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrUserNotFound, "/users")
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return failTo(c, h.Sessions, err, "/users")
	}
	return c.Render(http.StatusOK, "user_form", pageData(c, h.Sessions, "Edit user", echo.Map{
		"User": u,
	}))
}

// Update rewrites an account. A blank password keeps the stored one.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrUserNotFound, "/users")
	}
	var form userForm
	if err := c.Bind(&form); err != nil || c.Validate(&form) != nil {
		return flashAndRedirect(c, h.Sessions, "error", "Username and role are required.",
			"/users/"+c.Param("id")+"/edit")
	}
	if err := h.Users.Update(c.Request().Context(), id,
		form.Username, form.Role, form.email(), form.Password, h.BcryptCost); err != nil {
		return failTo(c, h.Sessions, err, "/users/"+c.Param("id")+"/edit")
	}
	return flashAndRedirect(c, h.Sessions, "success", "User updated.", "/users/"+c.Param("id"))
}

// Delete removes an account.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return failTo(c, h.Sessions, repository.ErrUserNotFound, "/users")
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		return failTo(c, h.Sessions, err, "/users/"+c.Param("id"))
	}
	return flashAndRedirect(c, h.Sessions, "success", "User deleted.", "/users")
}
