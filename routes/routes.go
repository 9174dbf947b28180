package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/Dosada05/pingpong-league/handlers"
)

const requestTimeout = 30 * time.Second

type Options struct {
	Logger      zerolog.Logger
	CORSOrigins []string
	// Gatherer exposes /metrics when set.
	Gatherer prometheus.Gatherer
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	roomHandler *handlers.RoomHandler,
	tournamentHandler *handlers.TournamentHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(hlog.NewHandler(opts.Logger))
	router.Use(requestIDLogger)
	router.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(requestTimeout))

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if opts.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", roomHandler.ListHandler)
			r.Post("/", roomHandler.CreateHandler)

			r.Route("/{roomID}", func(r chi.Router) {
				r.Get("/", roomHandler.GetByIDHandler)
				r.Patch("/", roomHandler.UpdateHandler)
				r.Delete("/", roomHandler.DeleteHandler)

				r.Get("/participants", roomHandler.ListParticipantsHandler)
				r.Post("/participants", roomHandler.AddParticipantHandler)
				r.Post("/participants/bulk", roomHandler.BulkAddParticipantsHandler)
				r.Delete("/participants", roomHandler.ClearParticipantsHandler)
				r.Delete("/participants/{participantID}", roomHandler.RemoveParticipantHandler)

				r.Get("/teams", roomHandler.ListTeamsHandler)
				r.Put("/teams", roomHandler.SaveTeamsHandler)
				r.Post("/teams/auto", roomHandler.AutoAssignTeamsHandler)

				r.Post("/group-stage", tournamentHandler.GenerateGroupStageHandler)
				r.Get("/group-stage", tournamentHandler.GetGroupStageHandler)
				r.Get("/matches", tournamentHandler.ListMatchesHandler)
				r.Post("/results", tournamentHandler.BulkResultsHandler)
				r.Post("/results/grid", tournamentHandler.GridResultsHandler)

				r.Post("/finals", tournamentHandler.AdvanceToFinalsHandler)
				r.Post("/bracket/advance", tournamentHandler.AdvanceRoundHandler)
				r.Get("/bracket", tournamentHandler.GetBracketHandler)
				r.Get("/final-result", tournamentHandler.GetFinalResultHandler)
				r.Post("/reset", tournamentHandler.ResetHandler)

				r.Post("/simulate/group-stage", tournamentHandler.SimulateGroupStageHandler)
				r.Post("/simulate/bracket-round", tournamentHandler.SimulateBracketRoundHandler)
			})
		})

		r.Put("/matches/{matchID}/result", tournamentHandler.RecordResultHandler)

		r.Route("/groups/{groupID}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetGroupHandler)
			r.Get("/standings", tournamentHandler.GetStandingsHandler)
		})
	})
}

// requestIDLogger tags the request logger with the ID chi.RequestID settled
// on, client supplied or generated, and echoes it back.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chiMiddleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
			w.Header().Set(chiMiddleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}
