// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/mongo/mongodriver"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yourusername/chatwire/internal/auth"
	"github.com/yourusername/chatwire/internal/config"
	"github.com/yourusername/chatwire/internal/graph"
	"github.com/yourusername/chatwire/internal/store"
	"github.com/yourusername/chatwire/internal/token"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// MongoDBへ接続（アプリケーションデータとセッションで共用）
	db, err := store.Connect(context.Background(), cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to document store: %v", err)
	}
	if err := store.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションストアの設定（アプリケーションと同じMongoDBに永続化）
	sessionStore := mongodriver.NewStore(
		db.Collection(store.SessionsCollection),
		auth.SessionMaxAgeSeconds(),
		true,
		[]byte(cfg.SessionSecret),
	)
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   auth.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.IsRelease(),
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowOrigins = origins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		"Authorization",
		"X-CSRF-Token", // CSRF保護用ヘッダー
	}
	// フロントエンドがレスポンスヘッダーから CSRF トークンを読み取れるように公開
	corsConfig.ExposeHeaders = []string{"X-CSRF-Token"}
	router.Use(cors.New(corsConfig))

	// ルーティングの設定
	if err := setupRoutes(router, cfg, db); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "chatwire-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database) error {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	users := store.NewUsers(db)
	tokens := token.NewService(cfg.JWTSecret)
	authManager := auth.NewManager(cfg, users, tokens)

	resolver := graph.NewResolver(users)
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return fmt.Errorf("failed to build graphql schema: %w", err)
	}

	// GraphQLエンドポイント（認証必須、ミューテーションは CSRF 検証あり）
	gqlHandler := graph.Handler(&schema, !cfg.IsRelease())
	router.POST("/graphql", authManager.RequireAuth(), authManager.VerifyCSRF(), gqlHandler)
	if !cfg.IsRelease() {
		// 開発時のみ GraphiQL UI を同じパスで提供
		router.GET("/graphql", authManager.RequireAuth(), authManager.VerifyCSRF(), gqlHandler)
	}

	api := router.Group("/api")
	{
		// サインアップ・ログイン時点ではセッションに CSRF トークンが無いため検証は不要
		api.POST("/signup", authManager.Signup)
		api.POST("/login", authManager.Login)
		api.POST("/logout", authManager.VerifyCSRF(), authManager.Logout)
		api.GET("/csrf-token", authManager.CSRFToken)
		api.GET("/protected", authManager.RequireAuth(), authManager.VerifyCSRF(), authManager.Protected)
	}

	return nil
}
