package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/securedoc/account-service/internal/core/ports"
)

const (
	msgAccountCreated  = "Account created. Check your email to enable your account."
	msgAccountVerified = "Account verified."
)

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Email     string `json:"email"     validate:"required,email,max=254"`
	Password  string `json:"password"  validate:"required,max=72"`
}

type verifyRequest struct {
	Key string `query:"key" validate:"required"`
}

// Register creates a disabled account and emails its verification link.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  Response
// @Failure      400   {object}  Response
// @Failure      409   {object}  Response
// @Failure      500   {object}  Response
// @Router       /user/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	_, err := h.accounts.RegisterUser(c.Request().Context(), ports.RegisterUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, NewResponse(c, http.StatusCreated, msgAccountCreated))
}

// Verify enables the account owning the key. A key works once.
//
// @Summary      Verify an account
// @Tags         user
// @Produce      json
// @Param        key  query     string  true  "Confirmation key from the email"
// @Success      200  {object}  Response
// @Failure      400  {object}  Response
// @Failure      404  {object}  Response
// @Failure      410  {object}  Response
// @Router       /user/verify/account [get]
func (h *AccountHandler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.accounts.VerifyAccount(c.Request().Context(), req.Key); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, NewResponse(c, http.StatusOK, msgAccountVerified))
}
