package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"jokes-web/internal/models"

	"github.com/a-h/templ"
)

var esc = templ.EscapeString[string]

func Index(data ListPage) templ.Component {
	return page("Programming jokes", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Programming jokes</h1>\n"); err != nil {
			return err
		}
		if data.Unavailable {
			return notice(w, "The joke service is not answering right now. Try again in a moment.")
		}
		if len(data.Jokes) == 0 {
			return notice(w, "No jokes this time.")
		}
		for _, j := range data.Jokes {
			if err := jokeCard(w, j, saveForm); err != nil {
				return err
			}
		}
		return nil
	}))
}

func Favorites(data ListPage) templ.Component {
	return page("Favorites", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Favorites</h1>\n"); err != nil {
			return err
		}
		if len(data.Jokes) == 0 {
			return notice(w, "You have not saved any jokes yet.")
		}
		for _, j := range data.Jokes {
			if err := jokeCard(w, j, detailsLink); err != nil {
				return err
			}
		}
		return nil
	}))
}

func Details(data JokePage) templ.Component {
	return page("Joke details", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Joke details</h1>\n"); err != nil {
			return err
		}
		if data.State != JokeAvailable {
			return notice(w, "That joke is not in your favorites.")
		}
		j := data.Joke
		if err := jokeCard(w, j, nil); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<section class="card">
  <h2>Edit</h2>
  <form method="post" action="/update/%d">
    <input type="hidden" name="_method" value="PUT"/>
    <label>Type <input type="text" name="type" value="%s"/></label>
    <label>Setup <textarea name="setup" rows="2">%s</textarea></label>
    <label>Punchline <textarea name="punchline" rows="2">%s</textarea></label>
    <button type="submit">Update</button>
  </form>
  <form method="post" action="/delete/%d" class="inline">
    <input type="hidden" name="_method" value="DELETE"/>
    <button type="submit">Delete</button>
  </form>
</section>
`, j.ID, esc(j.Type), esc(j.Setup), esc(j.Punchline), j.ID)
		return err
	}))
}

func Random(data JokePage) templ.Component {
	return page("Random joke", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<h1>Random joke</h1>\n"); err != nil {
			return err
		}
		if data.State != JokeAvailable {
			return notice(w, "No joke available right now. Refresh to try again.")
		}
		return jokeCard(w, data.Joke, saveForm)
	}))
}

func ErrorPage(status int, message string) templ.Component {
	title := http.StatusText(status)
	return page(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>%d %s</h1>\n<p class=\"notice\">%s</p>\n", status, esc(title), esc(message))
		return err
	}))
}

func notice(w io.Writer, msg string) error {
	_, err := fmt.Fprintf(w, "<p class=\"notice\">%s</p>\n", esc(msg))
	return err
}

type cardFooter func(w io.Writer, j models.Joke) error

func jokeCard(w io.Writer, j models.Joke, footer cardFooter) error {
	_, err := fmt.Fprintf(w, `<article class="card">
  <div class="type">%s</div>
  <p class="setup">%s</p>
  <p class="punchline">%s</p>
`, esc(j.Type), esc(j.Setup), esc(j.Punchline))
	if err != nil {
		return err
	}
	if footer != nil {
		if err := footer(w, j); err != nil {
			return err
		}
	}
	_, err = io.WriteString(w, "</article>\n")
	return err
}

func saveForm(w io.Writer, j models.Joke) error {
	_, err := fmt.Fprintf(w, `  <form method="post" action="/save">
    <input type="hidden" name="type" value="%s"/>
    <input type="hidden" name="setup" value="%s"/>
    <input type="hidden" name="punchline" value="%s"/>
    <button type="submit">Save to favorites</button>
  </form>
`, esc(j.Type), esc(j.Setup), esc(j.Punchline))
	return err
}

func detailsLink(w io.Writer, j models.Joke) error {
	_, err := fmt.Fprintf(w, "  <a href=\"/details/%d\">Details</a>\n", j.ID)
	return err
}
