package handler

import (
	"go-ledger-api/common"
	"go-ledger-api/model"
	"go-ledger-api/service"
	"net/http"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new UserHandler with its dependencies.
func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// CreateUser godoc
// @Summary      Create a new user
// @Description  Registers a user with an optional starting balance (minor units).
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user body model.CreateUserRequest true "User details"
// @Success      201  {object}  handler.APIResponse{data=model.User}
// @Failure      400  {object}  common.AppError "Validation error"
// @Failure      409  {object}  common.AppError "Email already in use"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/users [post]
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateUserRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		switch err {
		case service.ErrEmailAlreadyExists:
			return common.NewAppError(http.StatusConflict, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not create user", err)
		}
	}

	respond(w, http.StatusCreated, user, "User created successfully")
	return nil
}

// GetUser godoc
// @Summary      Get a user by id
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {object}  handler.APIResponse{data=model.User}
// @Failure      404  {object}  common.AppError "User not found"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	user, err := h.service.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not retrieve user", err)
		}
	}

	respond(w, http.StatusOK, user, "")
	return nil
}

// ListUsers godoc
// @Summary      List all users
// @Tags         users
// @Produce      json
// @Success      200  {object}  handler.APIResponse{data=[]model.User}
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) *common.AppError {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve users", err)
	}

	respond(w, http.StatusOK, users, "")
	return nil
}

// UpdateUser godoc
// @Summary      Update a user's name and/or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID"
// @Param        user body model.UpdateUserRequest true "Fields to update"
// @Success      200  {object}  handler.APIResponse{data=model.User}
// @Failure      400  {object}  common.AppError "Validation error"
// @Failure      404  {object}  common.AppError "User not found"
// @Failure      409  {object}  common.AppError "Email already in use"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.UpdateUserRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(r.Context(), r.PathValue("id"), req)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		case service.ErrEmailAlreadyExists:
			return common.NewAppError(http.StatusConflict, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not update user", err)
		}
	}

	respond(w, http.StatusOK, user, "User updated successfully")
	return nil
}

// DeleteUser godoc
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {object}  handler.APIResponse
// @Failure      404  {object}  common.AppError "User not found"
// @Failure      500  {object}  common.AppError "Internal server error"
// @Router       /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	if err := h.service.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		switch err {
		case service.ErrUserNotFound:
			return common.NewAppError(http.StatusNotFound, err.Error(), err)
		default:
			return common.NewAppError(http.StatusInternalServerError, "Could not delete user", err)
		}
	}

	respond(w, http.StatusOK, nil, "User deleted successfully")
	return nil
}
