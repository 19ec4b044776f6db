package main

import (
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"github.com/user/calibrai/config"
	"github.com/user/calibrai/internal/content"
	"github.com/user/calibrai/internal/engine"
	"github.com/user/calibrai/internal/game"
	"github.com/user/calibrai/internal/store"
	"github.com/user/calibrai/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Set up logger
	logger := setupLogger()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Open the save store
	saveStore, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open save store", zap.Error(err))
	}
	defer saveStore.Close()

	// Initialize game manager
	loader := content.NewDataLoader(cfg.Game.DataDir)
	gameManager := game.NewGameManager(cfg, saveStore, loader)
	gameManager.SetLogger(logger)

	// Set up HTTP server
	server := setupHTTPServer(cfg, gameManager, logger)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(logger)
}

func setupLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

func setupHTTPServer(cfg config.Config, gameManager *game.GameManager, logger *zap.Logger) *http.Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/saves", func(r chi.Router) {
			r.Post("/", handleNewGame(gameManager, logger))
			r.Get("/", handleListSaves(gameManager, logger))
			r.Route("/{saveID}", func(r chi.Router) {
				r.Get("/", handleGetSave(gameManager, logger))
				r.Delete("/", handleDeleteSave(gameManager, logger))
				r.Post("/encounters", handleStartEncounter(gameManager, logger))
				r.Get("/next-level", handleNextLevel(gameManager, logger))
				r.Get("/skills", handleListSkills(gameManager, logger))
				r.Post("/skills/{skillID}/buy", handleBuySkill(gameManager, logger))
				r.Post("/gameover", handleConfirmGameOver(gameManager, logger))
			})
		})

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Post("/choice", handleSubmitChoice(gameManager, logger))
			r.Post("/skill", handleUseSkill(gameManager, logger))
			r.Post("/complete", handleCompleteIteration(gameManager, logger))
			r.Get("/audit", handleAudit(gameManager, logger))
			r.Get("/feed", handleFeed(gameManager, cfg.Game.FeedPostCount, logger))
		})

		r.Get("/endings", handleListEndings(gameManager, logger))
	})

	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps the manager's business errors to HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrSaveNotFound),
		errors.Is(err, game.ErrSessionNotFound),
		errors.Is(err, game.ErrChoiceNotFound),
		errors.Is(err, game.ErrUnknownEnding):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSaveTerminal),
		errors.Is(err, game.ErrNoLevelsAvailable),
		errors.Is(err, game.ErrEncounterFinished),
		errors.Is(err, game.ErrEncounterActive),
		errors.Is(err, game.ErrAlreadySaved),
		errors.Is(err, game.ErrSkillNotOwned):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func saveIDFromRequest(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "saveID"), 10, 64)
}

func handleNewGame(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		save, err := gm.NewGame()
		if err != nil {
			logger.Error("Failed to create save", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create save")
			return
		}
		respondJSON(w, http.StatusCreated, save)
	}
}

func handleListSaves(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saves, err := gm.ListSaves()
		if err != nil {
			logger.Error("Failed to list saves", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to list saves")
			return
		}
		respondJSON(w, http.StatusOK, saves)
	}
}

func handleGetSave(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		save, err := gm.GetSave(saveID)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, save)
	}
}

func handleDeleteSave(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		if err := gm.DeleteSave(saveID); err != nil {
			logger.Error("Failed to delete save", zap.Error(err))
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleStartEncounter(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		LevelType types.LevelType `json:"level_type"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		info, err := gm.StartEncounter(saveID, req.LevelType)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, info)
	}
}

func handleNextLevel(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		save, err := gm.GetSave(saveID)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		levelType := types.LevelType(r.URL.Query().Get("type"))
		next := content.NextAvailableLevel(levelType, save.PlayedLevels)
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"level_id":  next,
			"exhausted": next == "",
		})
	}
}

func handleSubmitChoice(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		ChoiceID string `json:"choice_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := gm.SubmitChoice(chi.URLParam(r, "sessionID"), req.ChoiceID)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleUseSkill(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Action string `json:"action"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		var action engine.SpecialAction
		switch req.Action {
		case "crash":
			action = engine.ActionCrash
		case "lie":
			action = engine.ActionLie
		default:
			respondError(w, http.StatusBadRequest, "unknown skill action")
			return
		}
		result, err := gm.UseSkillAction(chi.URLParam(r, "sessionID"), action)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleCompleteIteration(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := gm.CompleteIteration(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

func handleAudit(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feedback, err := gm.GetAuditFeedback(chi.URLParam(r, "sessionID"))
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, feedback)
	}
}

func handleFeed(gm *game.GameManager, count int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := gm.GetFeed(chi.URLParam(r, "sessionID"), count)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, posts)
	}
}

func handleListSkills(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		skills, err := gm.ListSkills(saveID)
		if err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, skills)
	}
}

func handleBuySkill(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		bought, err := gm.BuySkill(saveID, chi.URLParam(r, "skillID"))
		if err != nil {
			logger.Error("Failed to buy skill", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to buy skill")
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"purchased": bought})
	}
}

func handleConfirmGameOver(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		EndingID string `json:"ending_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		saveID, err := saveIDFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid save id")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := gm.ConfirmGameOver(saveID, req.EndingID); err != nil {
			respondError(w, errorStatus(err), err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
	}
}

func handleListEndings(gm *game.GameManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endings, err := gm.ListEndings()
		if err != nil {
			logger.Error("Failed to list endings", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to list endings")
			return
		}
		respondJSON(w, http.StatusOK, endings)
	}
}

func waitForShutdown(logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")
}
