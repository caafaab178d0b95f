package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/izposoja/internal/engine"
	"github.com/erazemk/izposoja/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, eng *engine.Engine, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{Engine: eng}
	reservationsHandler := &ReservationsHandler{Engine: eng}
	historyHandler := &HistoryHandler{Engine: eng}
	maintenanceHandler := &MaintenanceHandler{Engine: eng}

	authMW := AuthMiddleware(jwtSecret)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: login and health.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("PUT /api/users/{id}/role", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetRole))))

	// Items: read (all roles), write (admin).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Update))))

	// Reservations (all roles; per-reservation ownership checks inside).
	mux.Handle("GET /api/reservations", authMW(http.HandlerFunc(reservationsHandler.List)))
	mux.Handle("POST /api/reservations", authMW(http.HandlerFunc(reservationsHandler.Create)))
	mux.Handle("GET /api/reservations/{id}", authMW(http.HandlerFunc(reservationsHandler.Get)))
	mux.Handle("POST /api/reservations/{id}/items", authMW(http.HandlerFunc(reservationsHandler.AddItems)))
	mux.Handle("POST /api/reservations/{id}/return", authMW(http.HandlerFunc(reservationsHandler.ReturnItems)))
	mux.Handle("POST /api/reservations/return", authMW(requireAdmin(http.HandlerFunc(reservationsHandler.BulkReturn))))
	mux.Handle("POST /api/reservations/{id}/maintenance", authMW(http.HandlerFunc(reservationsHandler.SendToMaintenance)))

	// Past reservations (all roles).
	mux.Handle("GET /api/history", authMW(http.HandlerFunc(historyHandler.List)))
	mux.Handle("GET /api/history/{id}", authMW(http.HandlerFunc(historyHandler.Get)))

	// Maintenance pool (admin only).
	mux.Handle("GET /api/maintenance", authMW(requireAdmin(http.HandlerFunc(maintenanceHandler.List))))
	mux.Handle("POST /api/maintenance/{itemId}/restore", authMW(requireAdmin(http.HandlerFunc(maintenanceHandler.Restore))))

	return mux
}
