// Package server はコース進捗トラッカーのHTTPサーバーを提供する。
//
// ルート・ヘルスチェック・ログイン以外のすべてのルートはBearerトークン
// 認証で保護され、認証に失敗したリクエストはストアに到達する前に
// 遮断される。すべてのレスポンスは統一エンベロープ
// {success, message, data, error} で返される。
package server
