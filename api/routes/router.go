package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-cartfee/api/controllers"
	"github.com/angelmondragon/packfinderz-cartfee/api/middleware"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/logger"
)

// Deps collects what the HTTP surface needs.
type Deps struct {
	Env          string
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	Gatherer     prometheus.Gatherer
	CORSOrigins  []string
	PublicConfig controllers.PublicConfig
	Triggers     controllers.TriggerService
	Inspector    controllers.Inspector
	Fragments    controllers.FragmentRefresher
	Generations  controllers.GenerationReader
	Adjustments  controllers.AdjustmentLister
	Removal      controllers.RemovalService
}

func NewRouter(d Deps) http.Handler {
	logg := d.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(d.CORSOrigins),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(d.Env))
		r.Get("/ready", controllers.HealthReady(d.Env, logg, d.DB, d.Redis))
	})

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", controllers.Config(d.PublicConfig))

		r.Route("/sessions/{"+middleware.SessionParam+"}", func(r chi.Router) {
			r.Use(middleware.Session(logg))

			r.Post("/init", controllers.SessionInit(d.Triggers, d.Generations, logg))
			r.Post("/events", controllers.SessionEvent(d.Triggers, logg))
			r.Post("/fragment/refresh", controllers.SessionFragmentRefresh(d.Fragments))
			r.Get("/adjustments", controllers.SessionAdjustments(d.Adjustments, logg))

			r.Route("/fee", func(r chi.Router) {
				r.Get("/", controllers.SessionFee(d.Inspector, logg))
				r.Post("/toggle", controllers.SessionToggle(d.Triggers, logg))
				r.Post("/removal/open", controllers.RemovalOpen(d.Removal, logg))
				r.Post("/removal/cancel", controllers.RemovalCancel(d.Removal, logg))
				r.Post("/removal/confirm", controllers.RemovalConfirm(d.Removal, logg))
			})
		})
	})

	return r
}
