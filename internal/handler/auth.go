package handler

import (
    "context"  // context with cancellation for repository calls
    "errors"   // sentinel comparisons
    "net/http" // HTTP status codes
    "strings"  // input trimming
    "time"     // repository call timeouts and token TTLs

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/notes-api/internal/apperr"     // tagged application errors
    "github.com/iliyamo/notes-api/internal/config"     // app configuration
    "github.com/iliyamo/notes-api/internal/repository" // repository sentinels
    "github.com/iliyamo/notes-api/internal/session"    // session + cookie management
    "github.com/iliyamo/notes-api/internal/utils"      // hashing and token issuing
)

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Tokens   TokenStore
	Sessions *session.Manager
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore, s *session.Manager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type userPart struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

func (h *AuthHandler) accessTTL() time.Duration {
	return time.Duration(h.Cfg.AccessTTLMin) * time.Minute
}
func (h *AuthHandler) refreshTTL() time.Duration {
	return time.Duration(h.Cfg.RefreshTTLDays) * 24 * time.Hour
}

// Register creates a user.  Unlike login failures, uniqueness violations are
// reported precisely: "username already taken" leaks nothing an attacker
// could not learn by trying to register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindInvariant, "invalid request body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Fullname = strings.TrimSpace(req.Fullname)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return apperr.New(apperr.KindInvariant, "username must be between 3 and 50 characters")
	}
	if len(req.Password) < 6 {
		return apperr.New(apperr.KindInvariant, "password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := utils.NewID()
	if err := h.Users.Create(ctx, id, req.Username, req.Password, req.Fullname, h.Cfg.BcryptCost); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return apperr.New(apperr.KindInvariant, "username already taken")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to create user", err)
	}

	return respond(c, http.StatusCreated, "user created", map[string]string{"userId": id})
}

// Login verifies credentials and establishes both transports at once: a
// token pair in the response body (and mirrored cookies) plus a regenerated
// server-side session bound to the user.  Any credential mismatch yields the
// same generic message; whether the username or the password was wrong is
// deliberately indistinguishable.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return apperr.New(apperr.KindInvariant, "invalid request body")
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return apperr.New(apperr.KindInvariant, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindAuthentication, "invalid credentials")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to query user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return apperr.New(apperr.KindAuthentication, "invalid credentials")
	}

	access, err := utils.NewToken(h.Cfg.AccessTokenKey, u.ID, u.Username, h.accessTTL())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to issue access token", err)
	}
	refresh, err := utils.NewToken(h.Cfg.RefreshTokenKey, u.ID, u.Username, h.refreshTTL())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to issue refresh token", err)
	}
	// The allow-list stores only the hash; presence of the row is what makes
	// the refresh token honored later.
	if err := h.Tokens.Add(ctx, u.ID, utils.HashToken(refresh.Token), refresh.Exp); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to persist refresh token", err)
	}

	// Cookie transport mirrors the pair; header clients can ignore it.
	h.Sessions.SetAuthCookies(c, access.Token, refresh.Token, h.accessTTL(), h.refreshTTL())

	// A fresh session id on every login defeats session fixation.
	if err := h.Sessions.Regenerate(ctx, c, u.ID, u.Username); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "service temporarily unavailable", err)
	}

	return respond(c, http.StatusOK, "login successful", map[string]interface{}{
		"accessToken":  access.Token,
		"refreshToken": refresh.Token,
		"user":         userPart{ID: u.ID, Username: u.Username, Fullname: u.Fullname},
	})
}

// Refresh issues a new access token for a valid refresh token.  The token is
// located in the body, then the signed cookie, then the X-Refresh-Token
// header, in that order.  The allow-list is consulted before the signature:
// a revoked token is rejected as an authentication failure no matter how
// valid its JWT happens to be.  The refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	raw := h.resolveRefreshToken(c, req.RefreshToken)
	if raw == "" {
		return apperr.New(apperr.KindAuthentication, "refresh token not found")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashToken(raw)
	if _, err := h.Tokens.Verify(ctx, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindAuthentication, "refresh token is not registered")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to verify refresh token", err)
	}

	claims, err := utils.VerifyToken(raw, h.Cfg.RefreshTokenKey)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return apperr.New(apperr.KindTokenExpired, "refresh token has expired")
		}
		return apperr.New(apperr.KindInvariant, "refresh token is invalid")
	}

	access, err := utils.NewToken(h.Cfg.AccessTokenKey, claims.UserID, claims.Username, h.accessTTL())
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to issue access token", err)
	}

	// Keep the cookie transport in sync when it is the one being used.
	if h.Sessions.RefreshTokenFromCookie(c) != "" {
		h.Sessions.RefreshAccessCookie(c, access.Token, h.accessTTL())
	}

	return respond(c, http.StatusOK, "access token renewed", map[string]string{
		"accessToken": access.Token,
	})
}

// Logout revokes a refresh token and tears down both transports: the token
// is removed from the allow-list, the auth cookies are cleared and the
// server-side session is destroyed.  Without any locatable refresh token
// there is nothing to revoke, which is reported as a business-rule
// violation rather than silently succeeding.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	raw := h.resolveRefreshToken(c, req.RefreshToken)
	if raw == "" {
		return apperr.New(apperr.KindInvariant, "refresh token not found")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.Delete(ctx, utils.HashToken(raw)); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to revoke refresh token", err)
	}

	h.Sessions.ClearAuthCookies(c)
	if err := h.Sessions.Destroy(ctx, c); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "service temporarily unavailable", err)
	}

	return respond(c, http.StatusOK, "logout successful", nil)
}

// LogoutEverywhere revokes every refresh token the authenticated user holds,
// then tears down this request's transports like a normal logout.  Other
// devices keep their (now useless) cookies until they next try to refresh.
func (h *AuthHandler) LogoutEverywhere(c echo.Context) error {
	uid := owner(c)
	if uid == "" {
		return apperr.New(apperr.KindAuthentication, "missing bearer token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteAllForUser(ctx, uid); err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to revoke refresh tokens", err)
	}

	h.Sessions.ClearAuthCookies(c)
	if err := h.Sessions.Destroy(ctx, c); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "service temporarily unavailable", err)
	}

	return respond(c, http.StatusOK, "logged out everywhere", nil)
}

// Me returns the session-bound identity together with the stored profile;
// gated by RequireSession.
func (h *AuthHandler) Me(c echo.Context) error {
	s := session.FromContext(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, s.UserID)
	if err != nil {
		// A session can outlive its account; treat that as logged out.
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindAuthentication, "account no longer exists")
		}
		return apperr.Wrap(apperr.KindInternal, "failed to load profile", err)
	}

	return respond(c, http.StatusOK, "session active", map[string]interface{}{
		"userId":    u.ID,
		"username":  u.Username,
		"fullname":  u.Fullname,
		"createdAt": s.CreatedAt,
	})
}

// resolveRefreshToken implements the transport fallback order: validated
// body field, then signed cookie, then custom header.
func (h *AuthHandler) resolveRefreshToken(c echo.Context, body string) string {
	if t := strings.TrimSpace(body); t != "" {
		return t
	}
	if t := h.Sessions.RefreshTokenFromCookie(c); t != "" {
		return t
	}
	return strings.TrimSpace(c.Request().Header.Get("X-Refresh-Token"))
}
