package model

import (
	"fmt"
	"slices"
	"time"
)

// Weekday は週間スケジュールの曜日キーを表す。
// クライアントとのワイヤフォーマットに合わせてすべて小文字の英語名を使う。
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays は月曜始まりの正規順序の曜日一覧。
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday は曜日キー文字列をWeekdayに変換する。
// 認識できないキーの場合はエラーを返す。
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range Weekdays {
		if s == string(d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday: %q", s)
}

// WeekdayOf はtime.WeekdayをWeekdayに変換する。
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// ClockTime は日付を持たない時刻（時:分）を表す。
// デバイスのローカル時刻として解釈され、タイムゾーン情報は持たない。
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime は"HH:MM"形式の文字列をClockTimeに変換する。
// ゼロ詰め5文字のみ受け付け、00:00〜23:59の範囲外はエラーを返す。
func ParseClockTime(s string) (ClockTime, error) {
	if len(s) != 5 || s[2] != ':' {
		return ClockTime{}, fmt.Errorf("invalid time format: %q", s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return ClockTime{}, fmt.Errorf("invalid time format: %q", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return ClockTime{}, fmt.Errorf("time out of range: %q", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// String は"HH:MM"形式の文字列を返す。
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Compare は2つのClockTimeを比較する。tがuより前なら負、同じなら0、後なら正を返す。
func (t ClockTime) Compare(u ClockTime) int {
	if t.Hour != u.Hour {
		return t.Hour - u.Hour
	}
	return t.Minute - u.Minute
}

// At は指定した日のこの時刻を表すtime.Timeを返す。
// 秒以下は0になり、ロケーションはdayのものを引き継ぐ。
func (t ClockTime) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// WeeklySchedule は曜日から鳴動時刻の集合への週間テンプレート。
// 週をまたいで繰り返し評価される。エントリのない曜日はキー自体を省略してよい。
type WeeklySchedule map[Weekday][]ClockTime

// Normalize は各曜日の時刻を昇順にソートし、重複を取り除いた新しいスケジュールを返す。
// 空の曜日エントリは落とす。レシーバは変更しない。
func (ws WeeklySchedule) Normalize() WeeklySchedule {
	out := make(WeeklySchedule, len(ws))
	for day, times := range ws {
		if len(times) == 0 {
			continue
		}
		sorted := slices.Clone(times)
		slices.SortFunc(sorted, ClockTime.Compare)
		sorted = slices.CompactFunc(sorted, func(a, b ClockTime) bool {
			return a.Compare(b) == 0
		})
		out[day] = sorted
	}
	return out
}

// Clone はスケジュールの深いコピーを返す。
func (ws WeeklySchedule) Clone() WeeklySchedule {
	out := make(WeeklySchedule, len(ws))
	for day, times := range ws {
		out[day] = slices.Clone(times)
	}
	return out
}

// IsEmpty は鳴動時刻が1つも登録されていない場合にtrueを返す。
func (ws WeeklySchedule) IsEmpty() bool {
	for _, times := range ws {
		if len(times) > 0 {
			return false
		}
	}
	return true
}
