package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/Nenorae/PIFACE/internal/web/handlers"
)

func (s *Server) setupRoutes(deps Deps) {
	// Create handlers
	sessionHandler := handlers.NewSessionHandler(deps.Coordinator, deps.Roster)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Coordinator, deps.Extractor, deps.Matcher)
	rosterHandler := handlers.NewRosterHandler(deps.Roster)
	systemHandler := handlers.NewSystemHandler(deps.Coordinator, deps.Roster, deps.Matcher, deps.Model)

	// Health check
	s.router.Get("/health", handlers.HealthCheck)

	// API routes. The endpoint names are the contract the camera agents and
	// the lecturer's control page were built against.
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status_sesi", sessionHandler.Status)
		r.Post("/mulai_sesi", sessionHandler.Start)
		r.Post("/selesai_sesi", sessionHandler.Stop)

		r.Post("/recognize_and_attend", attendanceHandler.RecognizeAndAttend)
		r.Get("/log_absen_terkini", attendanceHandler.RecentLog)

		r.Post("/reload_embeddings", rosterHandler.Reload)
		r.Get("/system_info", systemHandler.Info)
	})
}
