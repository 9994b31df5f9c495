package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"travel-assistant/internal/api"
	"travel-assistant/internal/cache"
	"travel-assistant/internal/config"
	"travel-assistant/internal/detect"
	"travel-assistant/internal/logging"
	"travel-assistant/internal/store"
	"travel-assistant/internal/types"
)

const (
	lookupTimeout = 30 * time.Second
	chatTimeout   = 120 * time.Second
	cacheTimeout  = 2 * time.Second
)

type Server struct {
	router   *chi.Mux
	store    *store.MemoryStore
	backend  *api.Client
	detector detect.Detector
	cache    cache.Cache
	redis    *cache.Redis
	cfg      config.Config
	logger   *zap.Logger
}

func NewServer(cfg config.Config, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)
	backend := newBackendClient(cfg, logger)

	var detector detect.Detector = backend
	if cfg.Detector == config.DetectorLLM {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		llm, err := detect.LoadLLMDetector(cfg.DestinationPrompt, client, cfg.Model, logger.Named("detect"))
		if err != nil {
			return nil, fmt.Errorf("failed to load destination detector: %w", err)
		}
		detector = llm
	}

	s := &Server{
		router:   chi.NewRouter(),
		store:    newSessionStore(cfg),
		backend:  backend,
		detector: detector,
		cfg:      cfg,
		logger:   logger,
	}
	s.cache = s.newCache()

	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.routes()
	return s, nil
}

func newSessionStore(cfg config.Config) *store.MemoryStore {
	st := store.NewMemoryStore(cfg.SessionHistory)
	if cfg.SessionDestinationTTL > 0 {
		st.SetDestinationTTL(cfg.SessionDestinationTTL)
	}
	return st
}

func newBackendClient(cfg config.Config, logger *zap.Logger) *api.Client {
	paths := api.ProxyPaths()
	if cfg.BackendDirect {
		paths = api.BackendPaths()
	}
	return api.NewClient(cfg.BackendURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.BackendTimeout}),
		api.WithPaths(paths),
		api.WithBearerToken(cfg.BackendToken),
		api.WithLogger(logger.Named("api")),
	)
}

// newCache picks Redis when configured and reachable, else an in-process cache.
func (s *Server) newCache() cache.Cache {
	if s.cfg.RedisAddr == "" {
		return cache.NewMemory(s.cfg.CacheTTL)
	}
	rc := cache.NewRedis(s.cfg.RedisAddr, s.cfg.CacheTTL)
	ctx, cancel := context.WithTimeout(context.Background(), cacheTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		s.logger.Warn("redis unavailable, using in-process cache", zap.String("addr", s.cfg.RedisAddr), zap.Error(err))
		_ = rc.Close()
		return cache.NewMemory(s.cfg.CacheTTL)
	}
	s.redis = rc
	return rc
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/destination", s.handleDestination)
	s.router.Post("/api/attractions", s.handleAttractions)
	s.router.Post("/api/weather", s.handleWeather)
	s.router.Post("/api/hotspot", s.handleHotSpots)
	s.router.Post("/api/forecast", s.handleForecast)
	s.router.Post("/api/chat", s.handleChat)
	s.router.Get("/api/session", s.handleSession)
	s.router.Delete("/api/session", s.handleEndSession)
	s.router.Post("/api/admin/login", s.handleAdminLogin)
	s.router.Post("/api/admin/upload", s.handleAdminUpload)
	s.router.Post("/api/admin/rag", s.handleAdminRAG)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the Redis connection, if any.
func (s *Server) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDestination(w http.ResponseWriter, r *http.Request) {
	var req types.DestinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.getOrCreateSessionID(r, w)

	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	var resp types.DestinationResponse
	if region, ok := s.detector.DetectDestination(ctx, req.Message); ok {
		s.store.SetDestination(sid, region)
		resp.Region = region
		s.logger.Info("destination detected", zap.String("session", sid), zap.String("region", region))
	}
	w.Header().Set("X-Session-Id", sid)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttractions(w http.ResponseWriter, r *http.Request) {
	city, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	out, err := cached(ctx, s, cache.Key("attractions", city), func() ([]api.Attraction, error) {
		return s.backend.CityAttractions(ctx, city)
	})
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	city, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	out, err := cached(ctx, s, cache.Key("weather", city), func() (api.CurrentConditions, error) {
		return s.backend.WeatherByCity(ctx, city)
	})
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHotSpots(w http.ResponseWriter, r *http.Request) {
	location, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, s.backend.HotSpots(ctx, location))
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	location, ok := s.decodeLocation(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), lookupTimeout)
	defer cancel()
	writeJSON(w, http.StatusOK, s.backend.WeatherForecast(ctx, location))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sid := s.getOrCreateSessionID(r, w)

	ctx, cancel := context.WithTimeout(r.Context(), chatTimeout)
	defer cancel()
	resp, err := s.backend.SendChatMessage(ctx, req.Message, sid, req.Language)
	if err != nil {
		s.logger.Error("chat request failed", zap.String("session", sid), zap.Error(err))
		s.writeAPIError(w, err)
		return
	}
	defer resp.Body.Close()
	// Only turns the backend accepted go into the transcript.
	s.store.Append(sid, store.Message{Role: "user", Content: req.Message})

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.Header().Set("X-Session-Id", sid)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	stream := api.NewChatStream(resp.Body)
	var builder strings.Builder
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("chat stream interrupted", zap.String("session", sid), zap.Error(err))
			_ = enc.Encode(api.ChatChunk{Error: "chat stream interrupted"})
			flusher.Flush()
			break
		}
		if chunk.Error != "" {
			s.logger.Warn("backend reported a chat error", zap.String("session", sid),
				zap.String("error", chunk.Error), zap.String("detail", chunk.Detail))
		}
		builder.WriteString(chunk.Answer)
		if err := enc.Encode(chunk); err != nil {
			s.logger.Debug("client went away", zap.String("session", sid), zap.Error(err))
			break
		}
		flusher.Flush()
	}
	if final := builder.String(); strings.TrimSpace(final) != "" {
		s.store.Append(sid, store.Message{Role: "assistant", Content: final})
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sid := s.getOrCreateSessionID(r, w)
	resp := types.SessionResponse{SessionID: sid, Messages: s.store.Get(sid)}
	if region, ok := s.store.GetDestination(sid); ok {
		resp.Destination = region
	}
	w.Header().Set("X-Session-Id", sid)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if sid := getSessionID(r); sid != "" {
		s.store.Clear(sid)
	}
	ClearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeLocation(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req types.LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return "", false
	}
	loc := strings.TrimSpace(req.Location)
	if loc == "" {
		s.writeError(w, http.StatusBadRequest, "location is required")
		return "", false
	}
	return loc, true
}

// cached serves key from the cache or stores the result of load. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *Server, key string, load func() (T, error)) (T, error) {
	var out T
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	found, err := s.cache.Get(cctx, key, &out)
	cancel()
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		return out, nil
	}
	out, err = load()
	if err != nil {
		return out, err
	}
	cctx, cancel = context.WithTimeout(ctx, cacheTimeout)
	defer cancel()
	if err := s.cache.Set(cctx, key, out); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// writeAPIError maps backend failures onto gateway status codes.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	var (
		reqErr *api.RequestError
		fmtErr *api.FormatError
		trErr  *api.TransportError
	)
	switch {
	case errors.As(err, &reqErr):
		s.writeError(w, http.StatusBadGateway, fmt.Sprintf("backend returned %d %s", reqErr.StatusCode, reqErr.Status))
	case errors.As(err, &fmtErr):
		s.writeError(w, http.StatusBadGateway, "backend returned an invalid response")
	case errors.As(err, &trErr):
		if isTimeout(err) {
			s.writeError(w, http.StatusGatewayTimeout, "backend timed out")
			return
		}
		s.writeError(w, http.StatusBadGateway, "backend unreachable")
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func newSessionID() string {
	return "s_" + uuid.NewString()
}

// getSessionID retrieves the session ID from cookie, header or query parameter
func getSessionID(r *http.Request) string {
	if cookie, err := GetSessionCookie(r); err == nil && cookie != "" {
		return cookie
	}
	if sid := r.Header.Get("X-Session-Id"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("sessionId"); sid != "" {
		return sid
	}
	return ""
}

// getOrCreateSessionID gets the existing session ID or creates one. The
// cookie is refreshed either way.
func (s *Server) getOrCreateSessionID(r *http.Request, w http.ResponseWriter) string {
	sid := getSessionID(r)
	if sid == "" {
		sid = newSessionID()
		s.logger.Debug("creating new session", zap.String("session", sid), zap.String("path", r.URL.Path))
	} else {
		s.logger.Debug("reusing session", zap.String("session", sid), zap.String("path", r.URL.Path))
	}
	SetSessionCookie(w, r, sid)
	return sid
}
