package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewHandler(
	pollHandler *PollHandler,
	voteHandler *VoteHandler,
	tokenHandler *TokenHandler,
	liveHandler http.Handler,
	jwtSecret []byte,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(IdentityMiddleware(jwtSecret))

	r.Route("/api", func(r chi.Router) {
		r.Route("/polls/{id}", func(r chi.Router) {
			r.Get("/", pollHandler.GetPoll)
			r.Get("/tally", voteHandler.GetTally)
			r.Get("/results", pollHandler.GetResult)
			r.Post("/votes", voteHandler.CastVote)
			r.Post("/tokens", tokenHandler.GenerateTokens)
			r.Post("/finalize", pollHandler.Finalize)
		})
	})

	r.Get("/ws/polls/{id}", liveHandler.ServeHTTP)

	return r
}
