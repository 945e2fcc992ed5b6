// Package window は時間窓の値型とタイムスタンプ解析を提供する。
// 日付でフィルタする全てのフェッチがこのパッケージの窓を使用する。
package window

import "time"

// Unit は窓のオフセット単位を表す。
type Unit string

const (
	// UnitDay は日単位のオフセットを示す。
	UnitDay Unit = "day"
	// UnitHour は時間単位のオフセットを示す。
	UnitHour Unit = "hour"
)

// Window はUTCの閉区間 [Start, End] を表す値型。
// 不変条件: Start <= End。
type Window struct {
	Start time.Time
	End   time.Time
}

// FromOffsets は now を基準に前後のオフセットから窓を構築する。
// End = now + ahead、Start = now - back。どちらのオフセットも0でよい。
// 境界は常にUTCに正規化される。
func FromOffsets(now time.Time, ahead, back int, unit Unit) Window {
	var d time.Duration
	switch unit {
	case UnitHour:
		d = time.Hour
	default:
		d = 24 * time.Hour
	}

	return Window{
		Start: now.Add(-time.Duration(back) * d).UTC(),
		End:   now.Add(time.Duration(ahead) * d).UTC(),
	}
}

// Contains は t が窓に含まれるかを判定する。
// 区間は両端とも閉じている（境界ちょうどの項目も含まれる）。
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WireStart はリモートAPIのクエリパラメータ形式（UTC、Zサフィックス）で
// 窓の開始時刻を返す。
func (w Window) WireStart() string {
	return toWire(w.Start)
}

// WireEnd はリモートAPIのクエリパラメータ形式で窓の終了時刻を返す。
func (w Window) WireEnd() string {
	return toWire(w.End)
}

// toWire はリモートAPIが期待するワイヤ形式に変換する。
// 呼び出し側へ返すISO-8601表現とは別物であり、混同してはならない。
func toWire(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// FormatLocal は呼び出し側へ返すISO-8601 UTC文字列を返す。
func FormatLocal(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseInstant はリモートAPIのタイムスタンプ文字列を解析する。
// 解析できない場合は ok=false を返し、呼び出し側は該当レコードを
// 破棄する（呼び出し全体の失敗にはしない）。
func ParseInstant(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
