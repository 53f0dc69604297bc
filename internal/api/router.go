package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the HTTP surface: catalog and order endpoints plus
// the per-visitor checkout wizard.
func NewRouter(h *Handlers, baseLogger *zerolog.Logger) *chi.Mux {
	log := baseLogger.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/bin-lookup", h.binLookup)

		r.Route("/checkout/{visitorID}", func(r chi.Router) {
			r.Get("/", h.checkoutState)
			r.Delete("/", h.closeSession)

			r.Post("/cart", h.addToCart)
			r.Patch("/cart/{productID}", h.updateCartItem)
			r.Delete("/cart/{productID}", h.removeFromCart)

			r.Post("/shipping", h.submitShipping)
			r.Post("/payment", h.submitPayment)
			r.Post("/card-otp", h.submitCardOtp)
			r.Post("/card-pin", h.submitCardPin)
			r.Post("/phone", h.submitPhoneVerification)
			r.Post("/phone-otp", h.submitPhoneOtp)
			r.Post("/nafath", h.submitNafath)
			r.Post("/resend", h.resendOtp)
			r.Post("/back", h.back)
			r.Post("/step", h.goToStep)
			r.Post("/order", h.placeOrder)
		})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
