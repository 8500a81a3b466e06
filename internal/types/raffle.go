package types

import "time"

// Participant は抽選参加者の情報
type Participant struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Tickets   int       `json:"tickets" db:"tickets"`
	Animal    string    `json:"animal" db:"animal"`       // 表示用の動物絵文字（重複可）
	PhotoPath string    `json:"photo_path" db:"photo_path"`
	Prizes    []string  `json:"prizes"`                   // 獲得した賞品名（獲得順）
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AwardedCount returns how many prizes this participant has won.
func (p Participant) AwardedCount() int {
	return len(p.Prizes)
}

// RemainingTickets returns how many more prizes this participant may win.
func (p Participant) RemainingTickets() int {
	return p.Tickets - len(p.Prizes)
}

// Prize は賞品プールの1エントリ
type Prize struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	PhotoPath   string    `json:"photo_path" db:"photo_path"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Remaining   int       `json:"remaining"` // quantity - 割り当て済み数
	Winners     []string  `json:"winners"`   // 当選者名（割り当て順）
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Settings は抽選の動作設定
type Settings struct {
	AutoPrizeSelection bool `json:"auto_prize_selection"`
	AllowMultipleWins  bool `json:"allow_multiple_wins"`
}

// DefaultSettings is used until the store has persisted values.
var DefaultSettings = Settings{
	AutoPrizeSelection: true,
	AllowMultipleWins:  true,
}

// SettingsPatch carries only the keys the caller wants to change.
type SettingsPatch struct {
	AutoPrizeSelection *bool `json:"auto_prize_selection"`
	AllowMultipleWins  *bool `json:"allow_multiple_wins"`
}

// DrawResult は1回の抽選の結果
type DrawResult struct {
	WinnerID   int64  `json:"winner_id"`
	Winner     string `json:"winner"`
	Tickets    int    `json:"tickets"`
	Animal     string `json:"animal"`
	Photo      string `json:"photo,omitempty"`
	Prize      string `json:"prize"`
	PrizePhoto string `json:"prize_photo,omitempty"`
}
