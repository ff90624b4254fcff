package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// DBPinger is satisfied by *sqlx.DB and *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is satisfied by *redis.Client.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthHandler serves the health route with a database check and, when
// configured, a Redis check.
type HealthHandler struct {
	db    DBPinger
	redis RedisPinger
	stats func() any
}

// NewHealthHandler builds a health handler. redisClient and stats may be nil.
func NewHealthHandler(db DBPinger, redisClient RedisPinger, stats func() any) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, stats: stats}
}

type healthResponse struct {
	Status        string            `json:"status"`
	Checks        map[string]string `json:"checks,omitempty"`
	Notifications any               `json:"notifications,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ok := true
	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "down: " + err.Error()
		ok = false
	} else {
		checks["database"] = "ok"
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down: " + err.Error()
			ok = false
		} else {
			checks["redis"] = "ok"
		}
	}

	resp := healthResponse{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !ok {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	if h.stats != nil {
		resp.Notifications = h.stats()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
