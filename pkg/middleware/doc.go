// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// Bearerトークンの発行・検証、オリジン許可リストによるCORS設定、
// パニックリカバリなど、サーバー全体で共通して使用するミドルウェアを含む。
package middleware
