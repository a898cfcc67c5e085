package handler

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/thirtyapp/thirty/internal/api"
)

type healthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *healthHandler {
	return &healthHandler{db: db}
}

func (h *healthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	err := h.db.PingContext(r.Context())
	if err != nil {
		api.Error(w, http.StatusServiceUnavailable, api.CodeInternal, "database unreachable")
		return
	}
	api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
