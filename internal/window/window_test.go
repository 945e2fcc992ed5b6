package window

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestFromOffsets_DayUnit(t *testing.T) {
	w := FromOffsets(testNow, 7, 0, UnitDay)

	if !w.Start.Equal(testNow) {
		t.Errorf("Start = %v, want %v", w.Start, testNow)
	}
	wantEnd := testNow.Add(7 * 24 * time.Hour)
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}
}

func TestFromOffsets_HourUnit(t *testing.T) {
	w := FromOffsets(testNow, 48, 24, UnitHour)

	wantStart := testNow.Add(-24 * time.Hour)
	wantEnd := testNow.Add(48 * time.Hour)
	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", w.End, wantEnd)
	}
}

func TestFromOffsets_ZeroOffsets_DegeneratePoint(t *testing.T) {
	w := FromOffsets(testNow, 0, 0, UnitDay)

	if !w.Start.Equal(w.End) {
		t.Errorf("expected degenerate window, got [%v, %v]", w.Start, w.End)
	}
	if !w.Contains(testNow) {
		t.Error("degenerate window should contain its own boundary")
	}
}

func TestFromOffsets_NormalizesToUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	localNow := time.Date(2026, 3, 10, 21, 0, 0, 0, jst)

	w := FromOffsets(localNow, 1, 1, UnitDay)

	if w.Start.Location() != time.UTC {
		t.Errorf("Start location = %v, want UTC", w.Start.Location())
	}
	if w.End.Location() != time.UTC {
		t.Errorf("End location = %v, want UTC", w.End.Location())
	}
	// 21:00 JST = 12:00 UTC
	if w.Start.Hour() != 12 {
		t.Errorf("Start hour = %d, want 12", w.Start.Hour())
	}
}

// TestContains_ClosedBoundaries は窓が両端とも閉区間であることを検証する。
func TestContains_ClosedBoundaries(t *testing.T) {
	w := FromOffsets(testNow, 2, 1, UnitDay)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"開始境界ちょうど", w.Start, true},
		{"終了境界ちょうど", w.End, true},
		{"窓内", testNow, true},
		{"開始の1秒前", w.Start.Add(-time.Second), false},
		{"終了の1秒後", w.End.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

// TestWireFormat はリモートAPI向けのワイヤ形式がZサフィックス付きUTCであることを検証する。
func TestWireFormat(t *testing.T) {
	w := Window{
		Start: time.Date(2026, 3, 10, 9, 30, 15, 0, time.UTC),
		End:   time.Date(2026, 3, 17, 9, 30, 15, 0, time.UTC),
	}

	if got := w.WireStart(); got != "2026-03-10T09:30:15Z" {
		t.Errorf("WireStart = %q, want %q", got, "2026-03-10T09:30:15Z")
	}
	if got := w.WireEnd(); got != "2026-03-17T09:30:15Z" {
		t.Errorf("WireEnd = %q, want %q", got, "2026-03-17T09:30:15Z")
	}
}

func TestWireFormat_ConvertsNonUTC(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	w := Window{
		Start: time.Date(2026, 3, 10, 9, 0, 0, 0, jst),
		End:   time.Date(2026, 3, 10, 9, 0, 0, 0, jst),
	}

	if got := w.WireStart(); got != "2026-03-10T00:00:00Z" {
		t.Errorf("WireStart = %q, want %q", got, "2026-03-10T00:00:00Z")
	}
}

func TestFormatLocal_RFC3339UTC(t *testing.T) {
	ts := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	if got := FormatLocal(ts); got != "2026-03-10T09:30:00Z" {
		t.Errorf("FormatLocal = %q, want %q", got, "2026-03-10T09:30:00Z")
	}
}

func TestParseInstant_ValidTimestamps(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-03-10T09:30:00Z", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
		{"2026-03-10T18:30:00+09:00", time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseInstant(tt.input)
			if !ok {
				t.Fatalf("ParseInstant(%q) failed", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseInstant(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %v, want UTC", got.Location())
			}
		})
	}
}

// TestParseInstant_InvalidInputs は解析できない入力がok=falseで返ることを検証する。
// 呼び出し側はこの結果を受けてレコードを破棄する。
func TestParseInstant_InvalidInputs(t *testing.T) {
	inputs := []string{
		"",
		"not-a-timestamp",
		"2026-13-45T99:99:99Z",
		"2026-03-10", // 日付のみはワイヤ形式として不正
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, ok := ParseInstant(input); ok {
				t.Errorf("ParseInstant(%q) should have failed", input)
			}
		})
	}
}
