package progress

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。user_idの主キー制約が「ユーザーごとに高々1レコード」の
// 不変条件を保証する。
const schema = `
CREATE TABLE IF NOT EXISTS user_progress (
    user_id TEXT PRIMARY KEY,
    completed_objectives TEXT NOT NULL DEFAULT '{}',
    active_syllabus TEXT,
    last_updated DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
