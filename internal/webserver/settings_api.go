package webserver

import (
	"encoding/json"
	"net/http"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/types"
)

// handleSettings 抽選設定の取得と更新
func handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := localdb.GetSettings()
		if err != nil {
			writeError(w, err)
			return
		}
		writeSuccess(w, map[string]interface{}{
			"settings": settings,
		})

	case http.MethodPost:
		var patch types.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}

		settings, err := localdb.UpdateSettings(patch)
		if err != nil {
			writeError(w, err)
			return
		}

		BroadcastWSMessage("settings_updated", settings)

		writeSuccess(w, map[string]interface{}{
			"message":  "Settings updated",
			"settings": settings,
		})

	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
