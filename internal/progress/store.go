package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound は削除対象のレコードが存在しないことを表す。
// 汎用的な永続化エラーと区別され、呼び出し側で404に対応付けられる。
var ErrNotFound = errors.New("進捗レコードが見つかりません")

// Record はユーザー1人分の学習進捗レコード。
type Record struct {
	// UserID は進捗を記録するユーザーの識別子。
	UserID string
	// CompletedObjectives は完了済み学習目標のマッピング。
	// キーは学習目標ID、値は任意の完了マーカー（スキーマレス）。
	CompletedObjectives map[string]any
	// ActiveSyllabus は現在受講中のシラバスID。未選択の場合はnil。
	ActiveSyllabus *string
	// LastUpdated はレコードの最終更新日時。生成・更新のたびに設定される。
	LastUpdated time.Time
}

// Patch は進捗レコードの部分更新内容。
// 各Setフラグはリクエストにフィールドが存在したかどうかを表し、
// falseのフィールドは更新されない。値の有無だけでなく
// フィールドの存在自体が意味を持つ。
type Patch struct {
	// Objectives は置換後の完了済み学習目標マッピング。
	// SetObjectivesがtrueの場合、空マップでも既存の内容を全置換する
	// （キー単位のマージは行わない）。
	Objectives map[string]any
	// SetObjectives はcompletedObjectivesフィールドがパッチに
	// 含まれていたかどうか。
	SetObjectives bool
	// Syllabus は置換後のシラバスID。明示的なnullによるクリアはnil。
	Syllabus *string
	// SetSyllabus はactiveSyllabusフィールドがパッチに含まれていたかどうか。
	SetSyllabus bool
}

// Store は進捗レコードの永続化を担当する。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewStore は新しいStoreを生成し、スキーマを適用する。
func NewStore(db *sql.DB) (*Store, error) {
	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("進捗スキーマの初期化に失敗: %w", err)
	}
	return &Store{db: db}, nil
}

// GetOrCreate は指定ユーザーの進捗レコードを取得する。
// 存在しない場合は空のレコードを生成して永続化してから返す。
// 読み取り操作だが書き込み副作用を持つ点に注意。初回アクセスと
// INSERTの競合を避けるため、存在確認と挿入はひとつの
// INSERT OR IGNOREで行う。
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*Record, error) {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, completed_objectives, last_updated)
		 VALUES (?, '{}', ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, now,
	); err != nil {
		return nil, fmt.Errorf("進捗レコードの生成に失敗: %w", err)
	}

	return s.get(ctx, userID)
}

// Update は進捗レコードにパッチを適用し、更新後のレコードを返す。
// レコードが存在しない場合はデフォルト値で生成してから適用するため、
// 「見つからない」で失敗することはない。last_updatedは変更の有無に
// かかわらず常に現在時刻に設定される。
//
// 同一ユーザーへの同時更新は調停しない（last-write-wins）。
func (s *Store) Update(ctx context.Context, userID string, patch Patch) (*Record, error) {
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, completed_objectives, last_updated)
		 VALUES (?, '{}', ?)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, now,
	); err != nil {
		return nil, fmt.Errorf("進捗レコードの生成に失敗: %w", err)
	}

	sets := []string{"last_updated = ?"}
	args := []any{now}

	if patch.SetObjectives {
		objectives := patch.Objectives
		if objectives == nil {
			objectives = map[string]any{}
		}
		encoded, err := json.Marshal(objectives)
		if err != nil {
			return nil, fmt.Errorf("学習目標マッピングのシリアライズに失敗: %w", err)
		}
		sets = append(sets, "completed_objectives = ?")
		args = append(args, string(encoded))
	}

	if patch.SetSyllabus {
		sets = append(sets, "active_syllabus = ?")
		if patch.Syllabus != nil {
			args = append(args, *patch.Syllabus)
		} else {
			args = append(args, nil)
		}
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE user_progress SET %s WHERE user_id = ?", strings.Join(sets, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("進捗レコードの更新に失敗: %w", err)
	}

	return s.get(ctx, userID)
}

// Delete は指定ユーザーの進捗レコードを削除する。
// レコードが存在しない場合はErrNotFoundを返す。
// 削除後にGetOrCreateを呼べば空のレコードが再生成される。
func (s *Store) Delete(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM user_progress WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("進捗レコードの削除に失敗: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count は進捗レコードの総数を返す。集計レポート用。
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_progress").Scan(&count); err != nil {
		return 0, fmt.Errorf("進捗レコード数の取得に失敗: %w", err)
	}
	return count, nil
}

// get は指定ユーザーのレコードを読み出す。
func (s *Store) get(ctx context.Context, userID string) (*Record, error) {
	var (
		rec        Record
		objectives string
		syllabus   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, completed_objectives, active_syllabus, last_updated
		 FROM user_progress WHERE user_id = ?`,
		userID,
	).Scan(&rec.UserID, &objectives, &syllabus, &rec.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("進捗レコードの取得に失敗: %w", err)
	}

	if err := json.Unmarshal([]byte(objectives), &rec.CompletedObjectives); err != nil {
		return nil, fmt.Errorf("学習目標マッピングのパースに失敗: %w", err)
	}
	if rec.CompletedObjectives == nil {
		rec.CompletedObjectives = map[string]any{}
	}
	if syllabus.Valid {
		rec.ActiveSyllabus = &syllabus.String
	}

	return &rec, nil
}
