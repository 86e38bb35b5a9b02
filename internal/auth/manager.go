// Package auth は認証・認可機能を提供します。
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/chatwire/internal/config"
	"github.com/yourusername/chatwire/internal/store"
	"github.com/yourusername/chatwire/internal/token"
)

const (
	SessionCookieName = "wc_session"
	TokenCookieName   = "token"

	sessionKeyUser      = "auth_user"
	sessionKeySessionID = "session_id"
	sessionKeyCSRF      = "csrf_token"

	csrfHeader = "X-CSRF-Token"
	csrfCookie = "X-CSRF-Token"

	bcryptCost = 10
)

// SessionMaxAgeSeconds はセッションクッキーの MaxAge に利用する秒数を返します。
// 保存のたびに有効期限が引き直される固定 MaxAge 方式です。
func SessionMaxAgeSeconds() int {
	return int(token.TTL.Seconds())
}

// ContextUserKey は、ハンドラー間でログイン済みユーザー名を共有するためのキーです。
const ContextUserKey = "auth.user"

// UserStore はユーザーの作成と検索を提供するストアです。
type UserStore interface {
	Create(ctx context.Context, name, email, hashedPassword string) error
	FindByEmail(ctx context.Context, email string) (*store.User, error)
}

// TokenService はトークンの発行と検証を提供します。
type TokenService interface {
	Issue(name, sessionID string) (string, error)
	Verify(tokenString string) (*token.Claims, error)
}

// Manager は認証処理をまとめた構造体です。
type Manager struct {
	cfg    *config.Config
	users  UserStore
	tokens TokenService
}

// NewManager は認証マネージャーを作成します。
func NewManager(cfg *config.Config, users UserStore, tokens TokenService) *Manager {
	return &Manager{
		cfg:    cfg,
		users:  users,
		tokens: tokens,
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup は /api/signup のハンドラーです。
func (m *Manager) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "name, email, password を JSON で送ってください",
		})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		log.Printf("signup: failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "ユーザーの作成に失敗しました",
		})
		return
	}

	if err := m.users.Create(c.Request.Context(), req.Name, req.Email, string(hashed)); err != nil {
		if errors.Is(err, store.ErrDuplicateIdentity) {
			c.JSON(http.StatusConflict, gin.H{
				"code":    "DUPLICATE_IDENTITY",
				"message": "その name または email は既に使われています",
			})
			return
		}
		log.Printf("signup: failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "ユーザーの作成に失敗しました",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

// Login は /api/login のハンドラーです。認証に成功するとトークンクッキーを発行し、
// サーバーセッションに name と sessionId を保存します。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": "email と password を JSON で送ってください",
		})
		return
	}

	user, err := m.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		log.Printf("login: failed to find user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "ログインに失敗しました",
		})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_CREDENTIALS",
			"message": "email またはパスワードが正しくありません",
		})
		return
	}

	sessionID := uuid.NewString()
	signed, err := m.tokens.Issue(user.Name, sessionID)
	if err != nil {
		log.Printf("login: failed to issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "ログインに失敗しました",
		})
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyUser, user.Name)
	session.Set(sessionKeySessionID, sessionID)
	if err := session.Save(); err != nil {
		log.Printf("login: failed to save session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "セッションの保存に失敗しました",
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookieName, signed, int(token.TTL.Seconds()), "/", "", m.cfg.IsRelease(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully", "name": user.Name})
}

// Logout は /api/logout のハンドラーです。トークンクッキーを消去し、セッションを破棄します。
func (m *Manager) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookieName, "", -1, "/", "", m.cfg.IsRelease(), true)

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.Printf("logout: failed to destroy session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "SESSION_SAVE_FAILED",
			"message": "ログアウトに失敗しました",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// CSRFToken は /api/csrf-token のハンドラーです。
// セッションに保存済みのトークンがあればそれを、なければ新規に発行して返します。
func (m *Manager) CSRFToken(c *gin.Context) {
	session := sessions.Default(c)
	if existing, ok := session.Get(sessionKeyCSRF).(string); ok && existing != "" {
		c.JSON(http.StatusOK, gin.H{"csrfToken": existing})
		return
	}

	csrfToken, err := m.issueCSRF(c, session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL",
			"message": "CSRF トークンの発行に失敗しました",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": csrfToken})
}

// Protected は認証ゲートの動作を示すサンプルハンドラーです。
func (m *Manager) Protected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "This is a protected route",
		"name":    c.GetString(ContextUserKey),
	})
}

// RequireAuth はトークンクッキーを検証するミドルウェアを返します。
// 検証に成功すると name を gin コンテキストとリクエストコンテキストの双方へ載せます。
func (m *Manager) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(TokenCookieName)
		if err != nil || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHORIZED",
				"message": "認証が必要です",
			})
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "TOKEN_INVALID",
				"message": "トークンが無効です",
			})
			return
		}

		c.Set(ContextUserKey, claims.Name)
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), claims.Name))
		c.Next()
	}
}

// VerifyCSRF はダブルサブミット方式の CSRF ミドルウェアです。
// 安全なメソッドではセッションにトークンを用意してクッキーへ写し、
// 状態変更メソッドでは X-CSRF-Token ヘッダーをセッション値と比較します。
func (m *Manager) VerifyCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		if isSafeMethod(c.Request.Method) {
			if existing, ok := session.Get(sessionKeyCSRF).(string); !ok || existing == "" {
				if _, err := m.issueCSRF(c, session); err != nil {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    "INTERNAL",
						"message": "CSRF トークンの発行に失敗しました",
					})
					return
				}
			}
			c.Next()
			return
		}

		expected, ok := session.Get(sessionKeyCSRF).(string)
		if !ok || expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_MISSING",
				"message": "CSRF トークンが設定されていません",
			})
			return
		}

		received := c.GetHeader(csrfHeader)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "CSRF_INVALID",
				"message": "CSRF トークンが一致しません",
			})
			return
		}

		c.Next()
	}
}

// issueCSRF は新しい CSRF トークンをセッションへ保存し、
// クライアントスクリプトが読めるクッキーへ写します。
// ダブルサブミット検証ではスクリプトがクッキー値をヘッダーへ
// 書き戻す必要があるため、HttpOnly にはしません。
func (m *Manager) issueCSRF(c *gin.Context, session sessions.Session) (string, error) {
	csrfToken, err := generateToken()
	if err != nil {
		log.Printf("csrf: failed to generate token: %v", err)
		return "", err
	}
	session.Set(sessionKeyCSRF, csrfToken)
	if err := session.Save(); err != nil {
		log.Printf("csrf: failed to save session: %v", err)
		return "", err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(csrfCookie, csrfToken, 0, "/", "", m.cfg.IsRelease(), false)
	return csrfToken, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
