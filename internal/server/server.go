package server

import (
	"context"
	"net/http"

	"jokes-web/internal/metrics"
	"jokes-web/internal/models"
	"jokes-web/internal/queue"
)

// JokeStore is the persistence side of the handlers.
type JokeStore interface {
	Create(ctx context.Context, joke *models.Joke) error
	List(ctx context.Context) ([]models.Joke, error)
	GetByID(ctx context.Context, id int64) (*models.Joke, error)
	Update(ctx context.Context, id int64, joke models.Joke) error
	Delete(ctx context.Context, id int64) error
}

// JokeSource is the upstream joke API.
type JokeSource interface {
	FetchProgrammingJokes(ctx context.Context) ([]models.Joke, error)
	FetchRandomProgrammingJoke(ctx context.Context) (*models.Joke, error)
}

type EventPublisher interface {
	PublishFavorite(ctx context.Context, event *queue.FavoriteEvent) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	store          JokeStore
	source         JokeSource
	events         EventPublisher
	health         Pinger
	healthEndpoint string
}

type Option func(*Server)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Server) {
		s.events = p
	}
}

func WithHealthCheck(endpoint string, p Pinger) Option {
	return func(s *Server) {
		s.healthEndpoint = endpoint
		s.health = p
	}
}

func New(store JokeStore, source JokeSource, opts ...Option) *Server {
	s := &Server{
		store:          store,
		source:         source,
		healthEndpoint: "/healthz",
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /favorites", s.handleFavorites)
	mux.HandleFunc("POST /save", s.handleSave)
	mux.HandleFunc("GET /details/{id}", s.handleDetails)
	mux.HandleFunc("PUT /update/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /delete/{id}", s.handleDelete)
	mux.HandleFunc("GET /random", s.handleRandom)
	mux.HandleFunc("GET "+s.healthEndpoint, s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return chain(mux,
		requestID,
		instrument,
		methodOverride,
	)
}

// chain applies middlewares so that the first one listed runs first.
func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
