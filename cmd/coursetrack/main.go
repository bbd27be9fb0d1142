// コース進捗トラッカーAPIのエントリポイント。
// 設定の読み込み、データベースの初期化、HTTPサーバーの起動を行う。
// データベースに接続できない場合はサービスを開始せずに終了する。
package main

import (
	"log"

	"github.com/nao1215/coursetrack/internal/config"
	"github.com/nao1215/coursetrack/internal/server"
)

func main() {
	cfg := config.Load()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("サーバーの初期化に失敗: %v", err)
	}

	log.Printf("コース進捗トラッカーAPIを起動します: :%s (environment=%s)", cfg.Port, cfg.Environment)
	if err := srv.Run(); err != nil {
		log.Fatalf("サーバーの起動に失敗: %v", err)
	}
}
