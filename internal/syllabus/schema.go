package syllabus

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。credit_hoursとunitsはJSONテキストとして保持する。
const schema = `
CREATE TABLE IF NOT EXISTS syllabi (
    id TEXT PRIMARY KEY,
    course_title TEXT NOT NULL,
    course_code TEXT NOT NULL,
    credit_hours TEXT NOT NULL DEFAULT 'null',
    units TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_syllabi_course_code
    ON syllabi(course_code);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
