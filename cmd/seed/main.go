// シラバスカタログのシードツール。
// JSONファイルからシラバスドキュメントを読み込み、データベースに投入する。
// サービス本体はシラバスへの書き込み経路を持たないため、
// カタログの投入はこのツールで帯域外に行う。
//
// 使い方:
//
//	go run ./cmd/seed -db coursetrack.db -file syllabi.json
//
// 同じコースコードのシラバスが既に存在する場合はスキップするため、
// 繰り返し実行しても重複は発生しない。
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/coursetrack/internal/syllabus"
)

// syllabusDocument はシードファイル内のシラバス1件のJSON構造。
type syllabusDocument struct {
	// CourseTitle はコース名。
	CourseTitle string `json:"courseTitle"`
	// CourseCode はコースコード。
	CourseCode string `json:"courseCode"`
	// CreditHours は単位数（自由形式）。
	CreditHours any `json:"creditHours"`
	// Units はユニットの順序付きリスト（自由形式）。
	Units []any `json:"units"`
}

func main() {
	dbPath := flag.String("db", "coursetrack.db", "SQLiteデータベースのパス")
	filePath := flag.String("file", "syllabi.json", "シラバスJSONファイルのパス")
	flag.Parse()

	if err := run(*dbPath, *filePath); err != nil {
		log.Fatalf("シードに失敗: %v", err)
	}
}

// run はシードファイルを読み込み、未投入のシラバスを追加する。
func run(dbPath, filePath string) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("シードファイルの読み込みに失敗: %w", err)
	}

	var docs []syllabusDocument
	if err := json.Unmarshal(content, &docs); err != nil {
		return fmt.Errorf("シードファイルのパースに失敗: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("データベース接続に失敗: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	store, err := syllabus.NewStore(sqlDB)
	if err != nil {
		return err
	}

	ctx := context.Background()
	inserted := 0
	for _, doc := range docs {
		exists, err := store.ExistsByCourseCode(ctx, doc.CourseCode)
		if err != nil {
			return err
		}
		if exists {
			log.Printf("スキップ: %s は投入済みです", doc.CourseCode)
			continue
		}

		now := time.Now().UTC()
		if err := store.Insert(ctx, syllabus.Record{
			ID:          uuid.New().String(),
			CourseTitle: doc.CourseTitle,
			CourseCode:  doc.CourseCode,
			CreditHours: doc.CreditHours,
			Units:       doc.Units,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); err != nil {
			return err
		}
		inserted++
		log.Printf("投入: %s (%s)", doc.CourseTitle, doc.CourseCode)
	}

	log.Printf("シード完了: %d件投入、%d件スキップ", inserted, len(docs)-inserted)
	return nil
}
