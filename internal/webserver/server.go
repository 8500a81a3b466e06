package webserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"github.com/nantokaworks/safari-raffle/internal/uploads"
	"go.uber.org/zap"
)

var httpServer *http.Server

// corsMiddleware ローカル開発フロントエンドからのアクセスを許可
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RegisterRaffleRoutes 抽選管理APIのルートを登録
func RegisterRaffleRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/settings", handleSettings)
	mux.HandleFunc("/api/add_participant", handleAddParticipant)
	mux.HandleFunc("/api/edit_participant", handleEditParticipant)
	mux.HandleFunc("/api/delete_participant", handleDeleteParticipant)
	mux.HandleFunc("/api/get_participants", handleGetParticipants)
	mux.HandleFunc("/api/prizes", handlePrizes)
	mux.HandleFunc("/api/pick_winner", handlePickWinner)
	mux.HandleFunc("/api/remove_prize", handleRemoveAward)
	mux.HandleFunc("/api/clear_prizes", handleClearPrizes)
	mux.HandleFunc("/api/clear_all_data", handleClearAllData)
	mux.HandleFunc("/api/uploads/", handleUploadedPhoto)
}

// handleUploadedPhoto 保存済みの参加者・賞品写真を配信
func handleUploadedPhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	path, ok := uploads.FilePath(r.URL.Path)
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "photo not found")
		return
	}
	if _, err := os.Stat(path); err != nil {
		writeErrorMessage(w, http.StatusNotFound, "photo not found")
		return
	}

	http.ServeFile(w, r, path)
}

// registerStaticRoutes ビルド済みフロントエンドをSPAフォールバック付きで配信
func registerStaticRoutes(mux *http.ServeMux) {
	distDir := ""
	for _, candidate := range []string{"./frontend/dist", "./dist"} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			distDir = candidate
			break
		}
	}

	if distDir == "" {
		logger.Warn("Frontend build not found, serving API only")
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprintln(w, "safari-raffle server")
		})
		return
	}

	logger.Info("Serving frontend", zap.String("dir", distDir))
	fileServer := http.FileServer(http.Dir(distDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || r.URL.Path == "/ws" {
			http.NotFound(w, r)
			return
		}

		requested := filepath.Join(distDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		// SPAルーティングはindex.htmlに委ねる
		http.ServeFile(w, r, filepath.Join(distDir, "index.html"))
	})
}

// StartWebServer HTTPサーバーを起動(ブロックしない)
func StartWebServer(port int) error {
	mux := http.NewServeMux()

	RegisterRaffleRoutes(mux)
	RegisterWebSocketRoute(mux)
	registerStaticRoutes(mux)

	StartWSHub()

	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           corsMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Web server starting", zap.Int("port", port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start web server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Shutdown HTTPサーバーを停止
func Shutdown(ctx context.Context) error {
	if httpServer == nil {
		return nil
	}
	logger.Info("Shutting down web server")
	return httpServer.Shutdown(ctx)
}
