package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/sparetrack/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	partsHandler := &PartsHandler{DB: db}
	usageHandler := &UsageHandler{DB: db}
	dashboardHandler := &DashboardHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public.
	mux.HandleFunc("GET /api/health", Health(db))
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/dashboard", authMW(http.HandlerFunc(dashboardHandler.Get)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Spare parts: read (all roles), write (admin).
	mux.Handle("GET /api/parts", authMW(http.HandlerFunc(partsHandler.List)))
	mux.Handle("GET /api/parts/categories", authMW(http.HandlerFunc(partsHandler.Categories)))
	mux.Handle("GET /api/parts/low-stock", authMW(http.HandlerFunc(partsHandler.LowStock)))
	mux.Handle("GET /api/parts/options", authMW(http.HandlerFunc(partsHandler.Options)))
	mux.Handle("POST /api/parts", authMW(requireAdmin(http.HandlerFunc(partsHandler.Create))))
	mux.Handle("GET /api/parts/{id}", authMW(http.HandlerFunc(partsHandler.Get)))
	mux.Handle("PUT /api/parts/{id}", authMW(requireAdmin(http.HandlerFunc(partsHandler.Update))))
	mux.Handle("DELETE /api/parts/{id}", authMW(requireAdmin(http.HandlerFunc(partsHandler.Delete))))
	mux.Handle("POST /api/parts/{id}/restock", authMW(requireAdmin(http.HandlerFunc(partsHandler.Restock))))
	mux.Handle("PUT /api/parts/{id}/image", authMW(requireAdmin(http.HandlerFunc(partsHandler.UploadImage))))
	mux.Handle("GET /api/parts/{id}/image", authMW(http.HandlerFunc(partsHandler.GetImage)))

	// Usage ledger (all roles).
	mux.Handle("GET /api/usage", authMW(http.HandlerFunc(usageHandler.List)))
	mux.Handle("POST /api/usage", authMW(http.HandlerFunc(usageHandler.Create)))
	mux.Handle("GET /api/usage/{id}", authMW(http.HandlerFunc(usageHandler.Get)))

	return LoggingMiddleware(mux)
}
