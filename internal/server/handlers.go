package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"jokes-web/internal/database"
	"jokes-web/internal/models"
	"jokes-web/internal/queue"
	"jokes-web/internal/web"
	"jokes-web/pkg/logger"

	"github.com/a-h/templ"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	data := web.ListPage{}
	jokes, err := s.source.FetchProgrammingJokes(r.Context())
	if err != nil {
		logger.WarnContext(r.Context(), "Rendering home without jokes", logger.Err(err))
		data.Unavailable = true
	}
	data.Jokes = jokes

	render(w, r, http.StatusOK, web.Index(data))
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	jokes, err := s.store.List(r.Context())
	if err != nil {
		s.storeFailure(w, r, "list favorites", err)
		return
	}

	render(w, r, http.StatusOK, web.Favorites(web.ListPage{Jokes: jokes}))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	joke, err := readJoke(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Malformed save request", logger.Err(err))
		render(w, r, http.StatusBadRequest, web.ErrorPage(http.StatusBadRequest, "Could not read the joke from the request."))
		return
	}

	if err := s.store.Create(r.Context(), &joke); err != nil {
		s.storeFailure(w, r, "save joke", err)
		return
	}
	logger.InfoContext(r.Context(), "Joke saved", logger.Int64("joke_id", joke.ID))
	s.publish(r.Context(), models.ActionSaved, joke)

	http.Redirect(w, r, "/favorites", http.StatusSeeOther)
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	joke, err := s.store.GetByID(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrJokeNotFound):
		render(w, r, http.StatusNotFound, web.Details(web.JokePage{State: web.JokeNotFound}))
	case err != nil:
		s.storeFailure(w, r, "get joke", err)
	default:
		render(w, r, http.StatusOK, web.Details(web.AvailableJoke(*joke)))
	}
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	joke, err := readJoke(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Malformed update request", logger.Err(err))
		render(w, r, http.StatusBadRequest, web.ErrorPage(http.StatusBadRequest, "Could not read the joke from the request."))
		return
	}

	err = s.store.Update(r.Context(), id, joke)
	switch {
	case errors.Is(err, database.ErrJokeNotFound):
		logger.WarnContext(r.Context(), "Update of missing joke ignored", logger.Int64("joke_id", id))
	case err != nil:
		s.storeFailure(w, r, "update joke", err)
		return
	default:
		joke.ID = id
		s.publish(r.Context(), models.ActionUpdated, joke)
	}

	http.Redirect(w, r, fmt.Sprintf("/details/%d", id), http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	err := s.store.Delete(r.Context(), id)
	switch {
	case errors.Is(err, database.ErrJokeNotFound):
		logger.WarnContext(r.Context(), "Delete of missing joke ignored", logger.Int64("joke_id", id))
	case err != nil:
		s.storeFailure(w, r, "delete joke", err)
		return
	default:
		s.publish(r.Context(), models.ActionDeleted, models.Joke{ID: id})
	}

	http.Redirect(w, r, "/favorites", http.StatusSeeOther)
}

func (s *Server) handleRandom(w http.ResponseWriter, r *http.Request) {
	data := web.JokePage{State: web.JokeUnavailable}
	joke, err := s.source.FetchRandomProgrammingJoke(r.Context())
	if err != nil {
		logger.WarnContext(r.Context(), "Rendering random page without a joke", logger.Err(err))
	} else {
		data = web.AvailableJoke(*joke)
	}

	render(w, r, http.StatusOK, web.Random(data))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Ping(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "Health check failed", logger.Err(err))
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.ErrorContext(r.Context(), "Joke store failure",
		logger.String("operation", op),
		logger.Err(err),
	)
	render(w, r, http.StatusInternalServerError,
		web.ErrorPage(http.StatusInternalServerError, "The favorites database is unavailable. Please try again."))
}

// publish is best effort: a lost event never fails the request.
func (s *Server) publish(ctx context.Context, action models.FavoriteAction, joke models.Joke) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishFavorite(ctx, queue.NewFavoriteEvent(action, joke)); err != nil {
		logger.ErrorContext(ctx, "Failed to publish favorite event",
			logger.String("action", string(action)),
			logger.Err(err),
		)
	}
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

// pathID parses the {id} wildcard. A non-numeric id cannot name a stored
// joke, so it answers 404.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		render(w, r, http.StatusNotFound, web.ErrorPage(http.StatusNotFound, "No joke with that id."))
		return 0, false
	}
	return id, true
}

// readJoke takes type, setup and punchline from a form body, or from a JSON
// body when the request says so. Any client-sent id is ignored.
func readJoke(r *http.Request) (models.Joke, error) {
	var joke models.Joke

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&joke); err != nil {
			return models.Joke{}, fmt.Errorf("failed to decode joke: %w", err)
		}
		joke.ID = 0
		return joke, nil
	}

	if err := r.ParseForm(); err != nil {
		return models.Joke{}, fmt.Errorf("failed to parse form: %w", err)
	}
	joke.Type = r.PostForm.Get("type")
	joke.Setup = r.PostForm.Get("setup")
	joke.Punchline = r.PostForm.Get("punchline")
	return joke, nil
}
