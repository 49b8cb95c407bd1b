package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/middlewares"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/store"
	"github.com/reelpoint/reelpoint-server/internal/utils"
)

type UserHandler struct {
	Users  store.UserStore
	Logger *log.Logger
}

func NewUserHandler(users store.UserStore, logger *log.Logger) *UserHandler {
	return &UserHandler{
		Users:  users,
		Logger: logger,
	}
}

func (uh *UserHandler) HandlerGetUsers(w http.ResponseWriter, r *http.Request) {
	page := utils.QueryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := utils.QueryInt(r, "limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	params := store.ListUsersParams{
		Organization: r.URL.Query().Get("organization"),
		Role:         r.URL.Query().Get("role"),
		Page:         page,
		Limit:        limit,
	}

	if raw := r.URL.Query().Get("isActive"); raw != "" {
		isActive := raw == "true"
		params.IsActive = &isActive
	}

	response, err := uh.Users.List(params)
	if err != nil {
		uh.Logger.Println("Error listing users:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": response})
}

func (uh *UserHandler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "User not found"})
		return nil, false
	}

	user, err := uh.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.Envelope{"message": "User not found"})
			return nil, false
		}
		uh.Logger.Println("Error getting user from store:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return nil, false
	}

	return user, true
}

func (uh *UserHandler) HandlerGetUserByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	user, ok := uh.loadUser(w, r)
	if !ok {
		return
	}

	// Users can only view their own profile unless they're admin.
	if caller.ID != user.ID && caller.Role != models.RoleAdmin {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": "Not authorized to view this user"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": utils.Envelope{"user": user}})
}

type updateUserRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Role         *string `json:"role"`
	Organization *string `json:"organization"`
	IsActive     *bool   `json:"is_active"`
}

func (uh *UserHandler) HandlerUpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	user, ok := uh.loadUser(w, r)
	if !ok {
		return
	}

	isSelf := caller.ID == user.ID
	isAdmin := caller.Role == models.RoleAdmin

	if !isSelf && !isAdmin {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": "Not authorized to update this user"})
		return
	}

	var req updateUserRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		uh.Logger.Println("Error decoding update user request:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Bad Request"})
		return
	}

	// Role, organization and active flag are admin-only fields.
	if isAdmin {
		if req.Role != nil {
			if !models.ValidRole(*req.Role) {
				utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "invalid role"})
				return
			}
			user.Role = *req.Role
		}
		if req.Organization != nil {
			user.Organization = *req.Organization
		}
		if req.IsActive != nil {
			user.Is_Active = *req.IsActive
		}
	}

	if req.Username != nil && *req.Username != "" {
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != "" {
		user.Email = *req.Email
	}

	if err := uh.Users.Save(user); err != nil {
		uh.Logger.Println("Error saving user:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "User updated successfully", "data": utils.Envelope{"user": user}})
}

// HandlerDeactivateUser soft-deletes by flipping the active flag; tokens for
// the user stop verifying immediately.
func (uh *UserHandler) HandlerDeactivateUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	user, ok := uh.loadUser(w, r)
	if !ok {
		return
	}

	if caller.ID == user.ID {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Cannot delete your own account"})
		return
	}

	user.Is_Active = false
	if err := uh.Users.Save(user); err != nil {
		uh.Logger.Println("Error deactivating user:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"message": "User deactivated successfully"})
}

func (uh *UserHandler) HandlerGetUsersByOrganization(w http.ResponseWriter, r *http.Request) {
	caller, ok := middlewares.GetUserFromContext(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Not Authorized"})
		return
	}

	organization := chi.URLParam(r, "org")
	if caller.Organization != organization && caller.Role != models.RoleAdmin {
		utils.WriteJSON(w, http.StatusForbidden, utils.Envelope{"message": "Not authorized to view users from this organization"})
		return
	}

	users, err := uh.Users.ListByOrganization(organization)
	if err != nil {
		uh.Logger.Println("Error listing users by organization:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": utils.Envelope{"users": users}})
}
