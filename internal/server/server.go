package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/coursetrack/internal/config"
	"github.com/nao1215/coursetrack/internal/progress"
	"github.com/nao1215/coursetrack/internal/syllabus"
	"github.com/nao1215/coursetrack/pkg/middleware"
)

// Server はコース進捗トラッカーのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に構築された設定。
	cfg *config.Config
	// db はSQLiteデータベース接続。
	db *sql.DB
	// progress は進捗レコードのストア。
	progress *progress.Store
	// syllabi はシラバスカタログのストア。
	syllabi *syllabus.Store
}

// NewServer は新しいサーバーを生成する。
// データベース接続の確立とスキーマ適用に失敗した場合はエラーを返し、
// 呼び出し側はサービスを開始してはならない。
func NewServer(cfg *config.Config) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	progressStore, err := progress.NewStore(sqlDB)
	if err != nil {
		return nil, err
	}
	syllabusStore, err := syllabus.NewStore(sqlDB)
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:   router,
		cfg:      cfg,
		db:       sqlDB,
		progress: progressStore,
		syllabi:  syllabusStore,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.cfg.Port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ステータスプローブ（認証不要）
	s.router.GET("/", s.handleRoot())

	api := s.router.Group("/api")
	{
		// ヘルスチェック（認証不要）
		api.GET("/health", s.handleHealth())

		auth := api.Group("/auth")
		{
			// 認証情報とトークンの交換（認証不要）
			auth.POST("/login", s.handleLogin())
			// トークンの検証
			auth.POST("/verify", middleware.JWTAuth(s.cfg.JWTSecret), s.handleVerify())
		}

		protected := api.Group("")
		protected.Use(middleware.JWTAuth(s.cfg.JWTSecret))
		{
			// シラバスカタログの一覧取得
			protected.GET("/syllabi", s.handleListSyllabi())

			// 進捗の取得（存在しなければ生成）。userId省略時はデフォルト識別子
			protected.GET("/progress", s.handleGetProgress())
			protected.GET("/progress/:userId", s.handleGetProgress())
			// 進捗パッチの適用
			protected.POST("/progress", s.handleUpdateProgress())
			protected.POST("/progress/:userId", s.handleUpdateProgress())
			// 進捗の削除
			protected.DELETE("/progress", s.handleDeleteProgress())
			protected.DELETE("/progress/:userId", s.handleDeleteProgress())

			// 集計レポート
			protected.GET("/stats", s.handleStats())
		}
	}

	// 未定義パスもエンベロープで404を返す
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{
			Success: false,
			Message: "リクエストされたパスが見つかりません",
		})
	})
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Username はユーザー名。
	Username string `json:"username"`
	// Password はパスワード。
	Password string `json:"password"`
}

// updateProgressRequest は進捗パッチのJSON構造。
// 各フィールドはjson.RawMessageとして受け取り、フィールドの省略と
// 明示的なnullを区別する。nilは「フィールドなし（変更しない）」を表す。
type updateProgressRequest struct {
	// CompletedObjectives は完了済み学習目標マッピングの置換値。
	CompletedObjectives json.RawMessage `json:"completedObjectives"`
	// ActiveSyllabus は受講中シラバスの置換値。明示的なnullでクリアする。
	ActiveSyllabus json.RawMessage `json:"activeSyllabus"`
}

// progressResponse は進捗レコードのJSONレスポンス構造。
type progressResponse struct {
	// UserID は進捗を記録するユーザーの識別子。
	UserID string `json:"userId"`
	// CompletedObjectives は完了済み学習目標のマッピング。
	CompletedObjectives map[string]any `json:"completedObjectives"`
	// ActiveSyllabus は受講中のシラバスID。未選択の場合はnull。
	ActiveSyllabus *string `json:"activeSyllabus"`
	// LastUpdated は最終更新日時。
	LastUpdated string `json:"lastUpdated"`
}

// syllabusResponse はシラバスのJSONレスポンス構造。
// 内部の行識別子は含めない。
type syllabusResponse struct {
	// CourseTitle はコース名。
	CourseTitle string `json:"courseTitle"`
	// CourseCode はコースコード。
	CourseCode string `json:"courseCode"`
	// CreditHours は単位数（自由形式）。
	CreditHours any `json:"creditHours"`
	// Units はユニットの順序付きリスト（自由形式）。
	Units []any `json:"units"`
	// CreatedAt は作成日時。
	CreatedAt string `json:"createdAt"`
	// UpdatedAt は更新日時。
	UpdatedAt string `json:"updatedAt"`
}

// timeFormat はレスポンスの日時フォーマット。
const timeFormat = "2006-01-02T15:04:05Z"

// toProgressResponse はストアのレコードをJSONレスポンスに変換する。
func toProgressResponse(rec *progress.Record) progressResponse {
	return progressResponse{
		UserID:              rec.UserID,
		CompletedObjectives: rec.CompletedObjectives,
		ActiveSyllabus:      rec.ActiveSyllabus,
		LastUpdated:         rec.LastUpdated.UTC().Format(timeFormat),
	}
}

// toSyllabusResponse はストアのレコードをJSONレスポンスに変換する。
func toSyllabusResponse(rec syllabus.Record) syllabusResponse {
	return syllabusResponse{
		CourseTitle: rec.CourseTitle,
		CourseCode:  rec.CourseCode,
		CreditHours: rec.CreditHours,
		Units:       rec.Units,
		CreatedAt:   rec.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:   rec.UpdatedAt.UTC().Format(timeFormat),
	}
}

// userIDParam はパスパラメータからユーザーIDを取得する。
// 省略されている場合はデフォルト識別子を返す。
func userIDParam(c *gin.Context) string {
	if userID := c.Param("userId"); userID != "" {
		return userID
	}
	return middleware.DefaultIdentity
}

// handleRoot はステータスプローブを処理するハンドラを返す。
func (s *Server) handleRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.respondOK(c, http.StatusOK, "Course Progress Tracker API は稼働中です", nil)
	}
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
// データベースへの疎通結果をフラグとして含める。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		dbOK := s.db.PingContext(c.Request.Context()) == nil
		s.respondOK(c, http.StatusOK, "ok", gin.H{
			"database":    dbOK,
			"environment": s.cfg.Environment,
		})
	}
}

// handleLogin は認証情報とトークンの交換を処理するハンドラを返す。
// 設定された唯一の認証ペアと完全一致した場合のみトークンを発行する。
// 不一致の理由（ユーザー名・パスワードのどちらが誤りか）は
// レスポンスで区別しない。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, "リクエストが不正です", err)
			return
		}

		if req.Username != s.cfg.AdminUsername || req.Password != s.cfg.AdminPassword {
			s.respondError(c, http.StatusUnauthorized, "ユーザー名またはパスワードが正しくありません", nil)
			return
		}

		token, err := middleware.GenerateToken(s.cfg.JWTSecret, req.Username)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "トークンの生成に失敗しました", err)
			return
		}

		s.respondOK(c, http.StatusOK, "ログインに成功しました", gin.H{
			"token":     token,
			"expiresIn": "24h",
			"username":  req.Username,
		})
	}
}

// handleVerify は提示されたトークンのクレームを返すハンドラを返す。
// 検証自体はJWTAuthミドルウェアが行う。
func (s *Server) handleVerify() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{
			"identity": middleware.GetIdentity(c),
			"username": middleware.GetUsername(c),
		}
		if v, ok := c.Get("issued_at"); ok {
			if issuedAt, ok := v.(time.Time); ok {
				data["issuedAt"] = issuedAt.UTC().Format(timeFormat)
			}
		}
		s.respondOK(c, http.StatusOK, "トークンは有効です", data)
	}
}

// handleListSyllabi はシラバスカタログの一覧取得を処理するハンドラを返す。
func (s *Server) handleListSyllabi() gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := s.syllabi.ListAll(c.Request.Context())
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "シラバス一覧の取得に失敗しました", err)
			return
		}

		responses := make([]syllabusResponse, 0, len(records))
		for _, rec := range records {
			responses = append(responses, toSyllabusResponse(rec))
		}
		s.respondOK(c, http.StatusOK, "", responses)
	}
}

// handleGetProgress は進捗の取得を処理するハンドラを返す。
// レコードが存在しない場合は空のレコードを生成してから返すため、
// 初回アクセスでも404にはならない。
func (s *Server) handleGetProgress() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDParam(c)

		rec, err := s.progress.GetOrCreate(c.Request.Context(), userID)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "進捗の取得に失敗しました", err)
			return
		}

		s.respondOK(c, http.StatusOK, "", toProgressResponse(rec))
	}
}

// handleUpdateProgress は進捗パッチの適用を処理するハンドラを返す。
// パッチに含まれるフィールドのみを置換し、省略されたフィールドは
// 変更しない。completedObjectivesは空オブジェクトでも全置換となる。
func (s *Server) handleUpdateProgress() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDParam(c)

		var req updateProgressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, http.StatusBadRequest, "リクエストが不正です", err)
			return
		}

		var patch progress.Patch
		if req.CompletedObjectives != nil {
			patch.SetObjectives = true
			if err := json.Unmarshal(req.CompletedObjectives, &patch.Objectives); err != nil {
				s.respondError(c, http.StatusBadRequest, "completedObjectivesはオブジェクトである必要があります", err)
				return
			}
		}
		if req.ActiveSyllabus != nil {
			patch.SetSyllabus = true
			if err := json.Unmarshal(req.ActiveSyllabus, &patch.Syllabus); err != nil {
				s.respondError(c, http.StatusBadRequest, "activeSyllabusは文字列またはnullである必要があります", err)
				return
			}
		}

		rec, err := s.progress.Update(c.Request.Context(), userID, patch)
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "進捗の更新に失敗しました", err)
			return
		}

		s.respondOK(c, http.StatusOK, "進捗を更新しました", toProgressResponse(rec))
	}
}

// handleDeleteProgress は進捗の削除を処理するハンドラを返す。
// レコードが存在しない場合は404を返す。
func (s *Server) handleDeleteProgress() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := userIDParam(c)

		if err := s.progress.Delete(c.Request.Context(), userID); err != nil {
			if err == progress.ErrNotFound {
				s.respondError(c, http.StatusNotFound, "進捗レコードが見つかりません", nil)
				return
			}
			s.respondError(c, http.StatusInternalServerError, "進捗の削除に失敗しました", err)
			return
		}

		s.respondOK(c, http.StatusOK, "進捗を削除しました", nil)
	}
}

// handleStats は集計レポートを処理するハンドラを返す。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		totalUsers, err := s.progress.Count(c.Request.Context())
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "集計の取得に失敗しました", err)
			return
		}
		totalSyllabi, err := s.syllabi.Count(c.Request.Context())
		if err != nil {
			s.respondError(c, http.StatusInternalServerError, "集計の取得に失敗しました", err)
			return
		}

		s.respondOK(c, http.StatusOK, "", gin.H{
			"totalUsers":   totalUsers,
			"totalSyllabi": totalSyllabi,
		})
	}
}
