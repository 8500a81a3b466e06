package webserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/raffle"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/uploads"
	"go.uber.org/zap"
)

// handleAddParticipant 参加者を新規登録
func handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid form data")
			return
		}
	}

	name := r.FormValue("name")
	tickets := 1
	if v := r.FormValue("tickets"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "tickets must be a number")
			return
		}
		tickets = n
	}

	photoPath := ""
	if photo := r.FormValue("photo"); photo != "" {
		ref, err := uploads.SaveBase64(uploads.KindParticipant, photo)
		if err != nil {
			// 写真の失敗では登録を止めない
			logger.Warn("Failed to save participant photo", zap.Error(err))
		} else {
			photoPath = ref
		}
	}

	participant, err := localdb.AddParticipant(name, tickets, raffle.RandomAnimal(), photoPath)
	if err != nil {
		if photoPath != "" {
			uploads.Delete(photoPath)
		}
		writeError(w, err)
		return
	}

	BroadcastWSMessage("participants_updated", map[string]interface{}{
		"participant": participant,
	})

	writeSuccess(w, map[string]interface{}{
		"message":     "Participant added",
		"participant": participant,
	})
}

// handleEditParticipant 参加者の名前・チケット枚数・写真を更新
func handleEditParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid form data")
			return
		}
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "participant id is required")
		return
	}

	var update localdb.ParticipantUpdate
	if v := r.FormValue("name"); v != "" {
		update.Name = &v
	}
	if v := r.FormValue("tickets"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "tickets must be a number")
			return
		}
		update.Tickets = &n
	}

	oldPhoto := ""
	if photo := r.FormValue("photo"); photo != "" {
		existing, err := localdb.GetParticipant(id)
		if err != nil {
			writeError(w, err)
			return
		}
		oldPhoto = existing.PhotoPath

		ref, err := uploads.SaveBase64(uploads.KindParticipant, photo)
		if err != nil {
			writeError(w, err)
			return
		}
		update.PhotoPath = &ref
	}

	participant, err := localdb.UpdateParticipant(id, update)
	if err != nil {
		if update.PhotoPath != nil {
			uploads.Delete(*update.PhotoPath)
		}
		writeError(w, err)
		return
	}

	if update.PhotoPath != nil && oldPhoto != "" {
		uploads.Delete(oldPhoto)
	}

	BroadcastWSMessage("participants_updated", map[string]interface{}{
		"participant": participant,
	})

	writeSuccess(w, map[string]interface{}{
		"message":     "Participant updated",
		"participant": participant,
	})
}

// handleDeleteParticipant 参加者と当選履歴を削除
func handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	photoPath, err := localdb.DeleteParticipant(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if photoPath != "" {
		uploads.Delete(photoPath)
	}

	BroadcastWSMessage("participants_updated", map[string]interface{}{
		"deleted_id": req.ID,
	})
	BroadcastWSMessage("prizes_updated", nil)

	writeSuccess(w, map[string]interface{}{
		"message": "Participant deleted",
	})
}

// handleGetParticipants 参加者一覧を抽選可能な順に返す
func handleGetParticipants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	participants, err := localdb.GetParticipants()
	if err != nil {
		writeError(w, err)
		return
	}

	settings, err := localdb.GetSettings()
	if err != nil {
		writeError(w, err)
		return
	}

	// まだ当選余地のある参加者を先頭に並べる
	eligible := make(map[int64]bool, len(participants))
	for _, p := range raffle.EligibleParticipants(participants, settings.AllowMultipleWins) {
		eligible[p.ID] = true
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return eligible[participants[i].ID] && !eligible[participants[j].ID]
	})

	writeSuccess(w, map[string]interface{}{
		"participants": participants,
	})
}
