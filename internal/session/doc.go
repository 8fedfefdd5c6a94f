// Package session はCookieによるセッションの受け渡しを扱う。
//
// セッションの実体はバックエンドが発行したトークンのみで、サーバー側には何も保存しない。
// name, id, emailのCookieはフロントエンドが読むため平文でHttpOnlyも付けない。
// 改ざんを検知できないので、認可の判断には使わないこと。
package session
