package server

import (
	"context"
	"errors"
	"sort"
	"sync"

	"jokes-web/internal/database"
	"jokes-web/internal/models"
	"jokes-web/internal/queue"
)

type memoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]models.Joke
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, rows: make(map[int64]models.Joke)}
}

func (m *memoryStore) Create(ctx context.Context, joke *models.Joke) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	joke.ID = m.nextID
	m.nextID++
	m.rows[joke.ID] = *joke
	return nil
}

func (m *memoryStore) List(ctx context.Context) ([]models.Joke, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	jokes := make([]models.Joke, 0, len(m.rows))
	for _, j := range m.rows {
		jokes = append(jokes, j)
	}
	sort.Slice(jokes, func(i, k int) bool { return jokes[i].ID < jokes[k].ID })
	return jokes, nil
}

func (m *memoryStore) GetByID(ctx context.Context, id int64) (*models.Joke, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	j, ok := m.rows[id]
	if !ok {
		return nil, database.ErrJokeNotFound
	}
	return &j, nil
}

func (m *memoryStore) Update(ctx context.Context, id int64, joke models.Joke) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return database.ErrJokeNotFound
	}
	joke.ID = id
	m.rows[id] = joke
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return database.ErrJokeNotFound
	}
	delete(m.rows, id)
	return nil
}

type stubSource struct {
	jokes []models.Joke
	err   error
}

func (s *stubSource) FetchProgrammingJokes(ctx context.Context) ([]models.Joke, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.jokes, nil
}

func (s *stubSource) FetchRandomProgrammingJoke(ctx context.Context) (*models.Joke, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.jokes) == 0 {
		return nil, errors.New("no jokes")
	}
	j := s.jokes[0]
	return &j, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*queue.FavoriteEvent
	err    error
}

func (p *recordingPublisher) PublishFavorite(ctx context.Context, event *queue.FavoriteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) actions() []models.FavoriteAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.FavoriteAction, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
