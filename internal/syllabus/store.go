package syllabus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Record はシラバスドキュメント1件を表す。
type Record struct {
	// ID は内部の行識別子。レスポンスには含めない。
	ID string
	// CourseTitle はコース名。
	CourseTitle string
	// CourseCode はコースコード（例: CS101）。
	CourseCode string
	// CreditHours は単位数。自由形式の構造化値。
	CreditHours any
	// Units はユニットの順序付きリスト。要素は自由形式の構造化値。
	Units []any
	// CreatedAt は作成日時。
	CreatedAt time.Time
	// UpdatedAt は更新日時。
	UpdatedAt time.Time
}

// Store はシラバスカタログへのアクセスを担当する。
// サービス本体からは読み取り専用で使用され、書き込みは
// シードツールのみが行う。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成し、スキーマを適用する。
func NewStore(db *sql.DB) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("シラバススキーマの初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// ListAll は全シラバスを投入順で返す。
// フィルタリングもページネーションも行わない。
func (s *Store) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_title, course_code, credit_hours, units, created_at, updated_at
		 FROM syllabi ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("シラバス一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec         Record
			creditHours string
			units       string
		)
		if err := rows.Scan(&rec.ID, &rec.CourseTitle, &rec.CourseCode, &creditHours, &units, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("シラバス行の読み取りに失敗: %w", err)
		}
		if err := json.Unmarshal([]byte(creditHours), &rec.CreditHours); err != nil {
			return nil, fmt.Errorf("単位数のパースに失敗: %w", err)
		}
		if err := json.Unmarshal([]byte(units), &rec.Units); err != nil {
			return nil, fmt.Errorf("ユニット一覧のパースに失敗: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count はシラバスの総数を返す。集計レポート用。
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM syllabi").Scan(&count); err != nil {
		return 0, fmt.Errorf("シラバス数の取得に失敗: %w", err)
	}
	return count, nil
}

// ExistsByCourseCode は指定コースコードのシラバスが存在するかを返す。
// シードツールが重複投入を避けるために使用する。
func (s *Store) ExistsByCourseCode(ctx context.Context, courseCode string) (bool, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM syllabi WHERE course_code = ?", courseCode,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("シラバスの存在確認に失敗: %w", err)
	}
	return count > 0, nil
}

// Insert はシラバスを1件追加する。シードツール専用の書き込み経路。
func (s *Store) Insert(ctx context.Context, rec Record) error {
	creditHours, err := json.Marshal(rec.CreditHours)
	if err != nil {
		return fmt.Errorf("単位数のシリアライズに失敗: %w", err)
	}
	units := rec.Units
	if units == nil {
		units = []any{}
	}
	encodedUnits, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("ユニット一覧のシリアライズに失敗: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO syllabi (id, course_title, course_code, credit_hours, units, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CourseTitle, rec.CourseCode, string(creditHours), string(encodedUnits), rec.CreatedAt, rec.UpdatedAt,
	); err != nil {
		return fmt.Errorf("シラバスの挿入に失敗: %w", err)
	}
	return nil
}
