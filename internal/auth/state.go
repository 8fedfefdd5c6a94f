package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// stateBytes はstateパラメータの乱数バイト数。base64urlで43文字になる。
const stateBytes = 32

// generateState は推測不能なstateパラメータを生成する。
func generateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("stateの生成に失敗: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// statesMatch はコールバックのstateが開始時に発行したものと一致するかを定数時間で比較する。
// どちらかが空なら一致とみなさない。
func statesMatch(got, want string) bool {
	if got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
