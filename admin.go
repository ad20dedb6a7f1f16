package portfolio

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const (
	tokenIssuer = "portfolio"
	tokenTTL    = 12 * time.Hour
)

// requireAdmin guards write routes. With no admin password configured every
// request passes; otherwise the caller needs an admin session cookie or a
// bearer token from /admin/login.
func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.Config.AdminPassword == "" || IsAdmin(c) || a.validBearer(c) {
			return next(c)
		}
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if a.Config.AdminPassword == "" {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Admin login is disabled"})
	}
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many login attempts. Try again later."})
	}

	var in struct {
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return validationError("Invalid request body")
	}
	if subtle.ConstantTimeCompare([]byte(in.Password), []byte(a.Config.AdminPassword)) != 1 {
		a.loginLimiter.Record(ip)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
	}
	a.loginLimiter.Reset(ip)

	if err := setAdminSession(c); err != nil {
		return err
	}
	token, expires, err := a.issueToken(time.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":        true,
		"token":     token,
		"expiresAt": expires,
	})
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// issueToken signs an HS256 admin token with the session secret.
func (a *App) issueToken(now time.Time) (string, time.Time, error) {
	expires := now.Add(tokenTTL).UTC().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Config.SessionSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign admin token: %w", err)
	}
	return signed, expires, nil
}

func (a *App) validBearer(c echo.Context) bool {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		return false
	}
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(a.Config.SessionSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return false
	}
	sub, err := token.Claims.GetSubject()
	return err == nil && sub == "admin"
}

// IsAdmin checks if the current session is authenticated.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values["authenticated"].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values["authenticated"] = true
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}
