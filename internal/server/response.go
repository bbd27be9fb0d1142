package server

import (
	"log"

	"github.com/gin-gonic/gin"
)

// envelope はすべてのHTTPレスポンスで使用する統一ラッパー。
type envelope struct {
	// Success はリクエストが成功したかどうか。
	Success bool `json:"success"`
	// Message は人間可読なメッセージ。
	Message string `json:"message,omitempty"`
	// Data はレスポンス本体。
	Data any `json:"data,omitempty"`
	// Error は内部エラーの詳細。非本番環境でのみ設定される。
	Error string `json:"error,omitempty"`
}

// respondOK は成功レスポンスをエンベロープで返す。
func (s *Server) respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError は失敗レスポンスをエンベロープで返す。
// 内部エラーの詳細は非本番環境でのみレスポンスに含め、
// 本番環境ではログにのみ出力する。
func (s *Server) respondError(c *gin.Context, status int, message string, err error) {
	resp := envelope{
		Success: false,
		Message: message,
	}
	if err != nil {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		if !s.cfg.IsProduction() {
			resp.Error = err.Error()
		}
	}
	c.JSON(status, resp)
}
