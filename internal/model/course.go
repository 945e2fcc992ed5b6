// Package model はドメインモデルを定義する。
package model

// Course は集約対象のコースを表す。
// Canvasのダッシュボードカード一覧から解決され、イミュータブルとして扱う。
// 並び順はダッシュボードの表示順をそのまま保持する。
type Course struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
