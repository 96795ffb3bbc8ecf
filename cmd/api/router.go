package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/leadtrack/internal/infra/http/handlers"
	"github.com/xavierca1/leadtrack/internal/infra/http/middleware"
	"github.com/xavierca1/leadtrack/internal/usecase"
)

type routes struct {
	auth        *handlers.AuthHandler
	emails      *handlers.ValidationHandler
	leads       *handlers.LeadHandler
	dashboards  *handlers.DashboardHandler
	health      *handlers.HealthHandler
	sessions    *middleware.SessionRegistry
	corsOrigins []string
}

func newRouter(rt routes) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", rt.health.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post(usecase.PathRegister+"/check", rt.emails.Handle)

	r.Group(func(r chi.Router) {
		r.Use(rt.sessions.Middleware)

		r.Post(usecase.PathLogin, rt.auth.Login)
		r.Post(usecase.PathRegister, rt.auth.Register)
		r.Post("/logout", rt.auth.Logout)
		r.Get("/session", rt.auth.Session)

		// Sales view
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireView(usecase.PathDashboard))
			r.Get(usecase.PathDashboard, rt.dashboards.Sales)
			r.Get(usecase.PathDashboard+"/stream", rt.dashboards.SalesStream)
			r.Post("/leads/quick", rt.leads.CreateQuick)
			r.Post("/leads", rt.leads.CreateFull)
			r.Get("/leads/{id}", rt.leads.Get)
			r.Put("/leads/{id}", rt.leads.Update)
		})

		// Admin view
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireView(usecase.PathAdmin))
			r.Get(usecase.PathAdmin, rt.dashboards.Admin)
			r.Get(usecase.PathAdmin+"/stream", rt.dashboards.AdminStream)
			r.Get(usecase.PathAdmin+"/sales-people", rt.dashboards.SalesPeople)
			r.Patch("/leads/{id}/status", rt.leads.ChangeStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, usecase.PathLogin, http.StatusSeeOther)
	})
	return r
}
