package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"waystone/internal/config"
	"waystone/internal/economy"
)

// Server is the operator-facing admin API: guild status, stipend inspection,
// schedule changes, and the manual reset trigger. Player-facing traffic goes
// through Discord, not here.
type Server struct {
	cfg      config.BotConfig
	log      *slog.Logger
	engine   *economy.Engine
	guilds   economy.GuildStore
	stipends economy.StipendStore
	ledger   economy.LedgerBrowser
	mux      *chi.Mux
}

func New(cfg config.BotConfig, logger *slog.Logger, engine *economy.Engine,
	guilds economy.GuildStore, stipends economy.StipendStore, ledger economy.LedgerBrowser) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		engine:   engine,
		guilds:   guilds,
		stipends: stipends,
		ledger:   ledger,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/guilds/{id}", s.handleGuildStatus)
		r.Post("/guilds/{id}/reset", s.handleGuildReset)
		r.Put("/guilds/{id}/schedule", s.handleGuildSchedule)
		r.Put("/guilds/{id}/settings", s.handleGuildSettings)
		r.Get("/guilds/{id}/stipends", s.handleStipendList)
		r.Get("/characters/{id}/ledger", s.handleCharacterLedger)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" || token != s.cfg.AdminToken {
			writeError(w, http.StatusUnauthorized, "missing or invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGuildStatus(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	g, err := s.guilds.GetOrCreate(r.Context(), guildID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := map[string]any{"guild": g}
	if next := g.NextReset(time.Now()); !next.IsZero() {
		out["next_reset"] = next
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGuildReset(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := s.engine.RunWeeklyReset(r.Context(), guildID)
	if errors.Is(err, economy.ErrResetInFlight) {
		writeError(w, http.StatusConflict, "a reset is already running for this guild")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGuildSchedule(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in struct {
		Day  *int `json:"day"`
		Hour *int `json:"hour"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (in.Day == nil) != (in.Hour == nil) {
		writeError(w, http.StatusBadRequest, "day and hour must be set together, or both null to disable")
		return
	}
	if in.Day != nil && (*in.Day < 0 || *in.Day > 6) {
		writeError(w, http.StatusBadRequest, "day must be 0 (Monday) through 6 (Sunday)")
		return
	}
	if in.Hour != nil && (*in.Hour < 0 || *in.Hour > 23) {
		writeError(w, http.StatusBadRequest, "hour must be 0 through 23")
		return
	}

	g, err := s.guilds.GetOrCreate(r.Context(), guildID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	g.ResetDay = in.Day
	g.ResetHour = in.Hour
	if err := s.guilds.Update(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guild": g})
}

func (s *Server) handleGuildSettings(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in struct {
		MaxLevel   *int   `json:"max_level"`
		ServerXP   *int64 `json:"server_xp"`
		XPAdjust   *int64 `json:"xp_adjust"`
		MaxRerolls *int   `json:"max_rerolls"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := s.guilds.GetOrCreate(r.Context(), guildID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if in.MaxLevel != nil {
		if *in.MaxLevel < 1 || *in.MaxLevel > economy.MaxCharacterLevel {
			writeError(w, http.StatusBadRequest, "max_level out of range")
			return
		}
		g.MaxLevel = *in.MaxLevel
		g.WeekXP = 0
		g.ServerXP = 0
	}
	if in.ServerXP != nil {
		g.ServerXP = *in.ServerXP
	}
	if in.XPAdjust != nil {
		if *in.XPAdjust < 1 {
			writeError(w, http.StatusBadRequest, "xp_adjust must be at least 1")
			return
		}
		g.XPAdjust = *in.XPAdjust
	}
	if in.MaxRerolls != nil {
		g.MaxRerolls = *in.MaxRerolls
	}
	if err := s.guilds.Update(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"guild": g})
}

func (s *Server) handleStipendList(w http.ResponseWriter, r *http.Request) {
	guildID, err := guildIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rules, err := s.stipends.List(r.Context(), guildID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stipends": rules})
}

func (s *Server) handleCharacterLedger(w http.ResponseWriter, r *http.Request) {
	characterID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "character id must be an integer")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	entries, err := s.ledger.ListForCharacter(r.Context(), characterID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func guildIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("guild id must be a snowflake integer")
	}
	return id, nil
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
