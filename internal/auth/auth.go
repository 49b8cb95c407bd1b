package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/reelpoint/reelpoint-server/internal/models"
	"github.com/reelpoint/reelpoint-server/internal/store"
	"github.com/reelpoint/reelpoint-server/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier resolves a bearer token to the current user. The streaming
// endpoint and the middleware both depend on this narrow contract.
type TokenVerifier interface {
	VerifyToken(token string) (*models.User, error)
}

type JWTAuth struct {
	secret []byte
	Users  store.UserStore
	Logger *log.Logger
}

func NewJWTAuth(secret string, users store.UserStore, logger *log.Logger) (*JWTAuth, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	return &JWTAuth{
		secret: []byte(secret),
		Users:  users,
		Logger: logger,
	}, nil
}

func (a *JWTAuth) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken parses the token and resolves the user's current role and
// organization from the store, so role changes take effect immediately.
func (a *JWTAuth) VerifyToken(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := a.Users.GetByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if !user.Is_Active {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the token query parameter for clients that cannot set
// custom headers (video elements, EventSource).
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *JWTAuth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		a.Logger.Println("Error decoding register request:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Bad Request"})
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || req.Organization == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "username, email, password and organization are required"})
		return
	}

	if req.Role == "" {
		req.Role = models.RoleViewer
	}
	if !models.ValidRole(req.Role) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "invalid role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Println("Error hashing password:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Organization: req.Organization,
		Is_Active:    true,
	}

	if err := a.Users.Create(user); err != nil {
		a.Logger.Println("Error creating user:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	token, err := a.IssueToken(user.ID)
	if err != nil {
		a.Logger.Println("Error issuing token:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.Envelope{"data": utils.Envelope{"user": user, "token": token}})
}

func (a *JWTAuth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		a.Logger.Println("Error decoding login request:", err)
		utils.WriteJSON(w, http.StatusBadRequest, utils.Envelope{"message": "Bad Request"})
		return
	}

	user, err := a.Users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Invalid credentials"})
			return
		}
		a.Logger.Println("Error fetching user for login:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	if !user.Is_Active {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.Envelope{"message": "Invalid credentials"})
		return
	}

	token, err := a.IssueToken(user.ID)
	if err != nil {
		a.Logger.Println("Error issuing token:", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.Envelope{"message": "Internal Server Error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.Envelope{"data": utils.Envelope{"user": user, "token": token}})
}
