// Package progress はユーザーごとの学習進捗レコードを管理する。
//
// レコードは最初のアクセス（読み取りまたは書き込み）時に遅延生成され、
// 削除操作以外では消滅しない。完了済み学習目標はスキーマレスな
// マッピングとして保持し、内部構造の検証は行わない。
//
// 主な操作:
//   - GetOrCreate: 取得（存在しなければ空レコードを生成して永続化）
//   - Update: フィールド単位の部分更新（マッピングは全置換）
//   - Delete: レコードの削除（唯一の消滅経路）
//   - Count: レコード総数の取得
package progress
