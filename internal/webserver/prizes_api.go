package webserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/types"
	"github.com/nantokaworks/safari-raffle/internal/uploads"
)

// handlePrizes /api/prizes のCRUDをメソッドで振り分け
func handlePrizes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		handleGetPrizes(w, r)
	case http.MethodPost:
		handleAddPrize(w, r)
	case http.MethodPut:
		handleUpdatePrize(w, r)
	case http.MethodDelete:
		handleDeletePrize(w, r)
	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func handleGetPrizes(w http.ResponseWriter, r *http.Request) {
	prizes, err := localdb.GetPrizes()
	if err != nil {
		writeError(w, err)
		return
	}
	if prizes == nil {
		prizes = []types.Prize{}
	}
	writeSuccess(w, map[string]interface{}{
		"prizes": prizes,
	})
}

func handleAddPrize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid form data")
			return
		}
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	quantity := 1
	if v := r.FormValue("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "quantity must be a number")
			return
		}
		quantity = n
	}

	photoPath := ""
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		ref, err := uploads.SaveFile(uploads.KindPrize, header.Filename, file)
		if err != nil {
			writeError(w, err)
			return
		}
		photoPath = ref
	}

	prize, err := localdb.AddPrize(name, description, photoPath, quantity)
	if err != nil {
		if photoPath != "" {
			uploads.Delete(photoPath)
		}
		writeError(w, err)
		return
	}

	BroadcastWSMessage("prizes_updated", map[string]interface{}{
		"prize": prize,
	})

	writeSuccess(w, map[string]interface{}{
		"message": "Prize added",
		"prize":   prize,
	})
}

func handleUpdatePrize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		if err := r.ParseForm(); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid form data")
			return
		}
	}

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "prize id is required")
		return
	}

	var update localdb.PrizeUpdate
	if v := r.FormValue("name"); v != "" {
		update.Name = &v
	}
	if v, ok := r.Form["description"]; ok && len(v) > 0 {
		update.Description = &v[0]
	}
	if v := r.FormValue("quantity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "quantity must be a number")
			return
		}
		update.Quantity = &n
	}

	oldPhoto := ""
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()

		existing, err := localdb.GetPrize(id)
		if err != nil {
			writeError(w, err)
			return
		}
		oldPhoto = existing.PhotoPath

		ref, err := uploads.SaveFile(uploads.KindPrize, header.Filename, file)
		if err != nil {
			writeError(w, err)
			return
		}
		update.PhotoPath = &ref
	}

	prize, err := localdb.UpdatePrize(id, update)
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

	BroadcastWSMessage("prizes_updated", map[string]interface{}{
		"prize": prize,
	})

	writeSuccess(w, map[string]interface{}{
		"message": "Prize updated",
		"prize":   prize,
	})
}

func handleDeletePrize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PrizeID int64 `json:"prize_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	photoPath, err := localdb.RemovePrize(req.PrizeID)
	if err != nil {
		writeError(w, err)
		return
	}

	if photoPath != "" {
		uploads.Delete(photoPath)
	}

	BroadcastWSMessage("prizes_updated", map[string]interface{}{
		"deleted_id": req.PrizeID,
	})

	writeSuccess(w, map[string]interface{}{
		"message": "Prize deleted",
	})
}
