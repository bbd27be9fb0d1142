package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultIdentity は進捗を記録するデフォルトのユーザー識別子。
// トークンのidentityクレームとして常に埋め込まれ、
// パスパラメータ省略時のフォールバックとしても使用する。
const DefaultIdentity = "default_user"

// TokenExpiry はトークンの有効期間。発行時刻から24時間で失効する。
const TokenExpiry = 24 * time.Hour

// tokenIssuer はトークンのiss（発行者）クレーム値。
const tokenIssuer = "coursetrack-api"

// JWTClaims はトークンのクレーム（ペイロード）を表す。
type JWTClaims struct {
	jwt.RegisteredClaims
	// Username はログインに使用されたユーザー名。
	Username string `json:"username"`
	// Identity は進捗記録のユーザー識別子。
	Identity string `json:"identity"`
}

// GenerateToken はユーザー名から署名済みトークンを生成する。
// ログイン成功時にサーバーが呼び出す。有効期間はTokenExpiry。
func GenerateToken(secret, username string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		Username: username,
		Identity: DefaultIdentity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// VerifyToken はトークン文字列を検証し、クレームを返す。
// 署名不正・期限切れの場合はエラーを返す。永続状態には触れない。
func VerifyToken(secret, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("トークンが無効")
	}
	return claims, nil
}

// JWTAuth はBearerトークンを検証するGinミドルウェアを返す。
//
// ヘッダーが欠落・形式不正の場合は401、トークンが提示されたが
// 署名不正・期限切れの場合は403を返す。この401/403の区別は
// APIの契約であり、クライアントはこれを前提にエラー処理を行う。
// 検証に成功した場合、コンテキストに "identity" と "username" と
// "issued_at" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "認証トークンが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Bearer トークン形式が不正です",
			})
			return
		}

		claims, err := VerifyToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "トークンが無効または期限切れです",
			})
			return
		}

		c.Set("identity", claims.Identity)
		c.Set("username", claims.Username)
		c.Set("issued_at", claims.IssuedAt.Time)
		c.Next()
	}
}

// GetIdentity はGinコンテキストからユーザー識別子を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) string {
	identity, _ := c.Get("identity")
	if id, ok := identity.(string); ok {
		return id
	}
	return ""
}

// GetUsername はGinコンテキストからユーザー名を取得する。
func GetUsername(c *gin.Context) string {
	username, _ := c.Get("username")
	if name, ok := username.(string); ok {
		return name
	}
	return ""
}
