package web

import "jokes-web/internal/models"

// JokeState tells a single-joke page which variant to render.
type JokeState int

const (
	JokeAvailable JokeState = iota
	// JokeNotFound: no stored joke has the requested id.
	JokeNotFound
	// JokeUnavailable: the upstream API could not supply a joke.
	JokeUnavailable
)

type JokePage struct {
	Joke  models.Joke
	State JokeState
}

func AvailableJoke(j models.Joke) JokePage {
	return JokePage{Joke: j, State: JokeAvailable}
}

type ListPage struct {
	Jokes []models.Joke
	// Unavailable is set when the jokes could not be fetched at all, as
	// opposed to a source that legitimately has none.
	Unavailable bool
}
