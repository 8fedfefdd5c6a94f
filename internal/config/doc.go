// Package config は環境変数からゲートウェイの設定を読み込む。
package config
