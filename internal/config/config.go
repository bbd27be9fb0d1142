// Package config はサービス全体の設定を提供する。
//
// 環境変数は起動時に一度だけ読み込まれ、Config構造体として
// 各コンポーネントに参照で渡される。処理の途中で環境変数を
// 直接参照してはならない。
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// defaultJWTSecret はJWT_SECRET未設定時のフォールバック値。
// 署名検証を無効化しないため、空文字列には決してならない。
// 本番環境では必ずJWT_SECRETを設定すること。
const defaultJWTSecret = "dev-secret-key"

// Config はサービスの全設定を保持する。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースの接続文字列。
	DatabasePath string
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string
	// AdminUsername はログインを許可する唯一のユーザー名。
	AdminUsername string
	// AdminPassword はログインを許可する唯一のパスワード。
	AdminPassword string
	// AllowedOrigins はCORSで許可するオリジンの一覧。
	AllowedOrigins []string
	// Environment は実行環境名（development / production）。
	Environment string
}

// Load は.envファイルと環境変数から設定を構築する。
// .envファイルが存在しない場合は環境変数のみを使用する。
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnvOr("PORT", "8080"),
		DatabasePath:   getEnvOr("DATABASE_PATH", "coursetrack.db?_journal_mode=WAL&_busy_timeout=5000"),
		JWTSecret:      getEnvOr("JWT_SECRET", defaultJWTSecret),
		AdminUsername:  getEnvOr("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnvOr("ADMIN_PASSWORD", "admin123"),
		AllowedOrigins: splitOrigins(getEnvOr("ALLOWED_ORIGINS", "http://localhost:3000")),
		Environment:    getEnvOr("ENVIRONMENT", "development"),
	}
}

// IsProduction は本番環境かどうかを返す。
// 本番環境ではエラーレスポンスに内部エラーの詳細を含めない。
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// splitOrigins はカンマ区切りのオリジン一覧を分解する。
func splitOrigins(s string) []string {
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
