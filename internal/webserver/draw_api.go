package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/raffle"
	"github.com/nantokaworks/safari-raffle/internal/uploads"
)

// handlePickWinner 抽選を実行して当選者を確定する
func handlePickWinner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		PrizeID    int64 `json:"prize_id"`
		AutoSelect bool  `json:"auto_select"`
	}
	if r.Body != nil {
		// 本文なしの実行も許す(自動選択設定に従う)
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := raffle.PickWinner(req.PrizeID, req.AutoSelect)
	if err != nil {
		writeError(w, err)
		return
	}

	BroadcastWSMessage("winner_drawn", result)
	BroadcastWSMessage("participants_updated", nil)
	BroadcastWSMessage("prizes_updated", nil)

	writeSuccess(w, map[string]interface{}{
		"winner_id":   result.WinnerID,
		"winner":      result.Winner,
		"tickets":     result.Tickets,
		"animal":      result.Animal,
		"photo":       result.Photo,
		"prize":       result.Prize,
		"prize_photo": result.PrizePhoto,
	})
}

// handleRemoveAward 参加者から当選1件を取り消す
func handleRemoveAward(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ParticipantID int64 `json:"participant_id"`
		PrizeIndex    int   `json:"prize_index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := localdb.RemoveAward(req.ParticipantID, req.PrizeIndex); err != nil {
		writeError(w, err)
		return
	}

	BroadcastWSMessage("participants_updated", nil)
	BroadcastWSMessage("prizes_updated", nil)

	writeSuccess(w, map[string]interface{}{
		"message": "Prize removed from participant",
	})
}

// handleClearPrizes 全当選履歴をリセット(参加者と賞品は残す)
func handleClearPrizes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := localdb.ClearAllAwards(); err != nil {
		writeError(w, err)
		return
	}

	BroadcastWSMessage("participants_updated", nil)
	BroadcastWSMessage("prizes_updated", nil)

	writeSuccess(w, map[string]interface{}{
		"message": "All prize assignments cleared",
	})
}

// handleClearAllData 参加者・賞品・当選履歴・写真を全消去
func handleClearAllData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	photoPaths, err := localdb.ClearEverything()
	if err != nil {
		writeError(w, err)
		return
	}

	uploads.DeleteAll(photoPaths)

	BroadcastWSMessage("data_cleared", nil)

	writeSuccess(w, map[string]interface{}{
		"message": "All data cleared",
	})
}
