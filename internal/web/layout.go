package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

const styles = `
      body { font-family: system-ui, sans-serif; margin: 0; background: #f6f4ef; color: #222; }
      header.nav { display: flex; gap: 1.5rem; padding: 1rem 2rem; background: #2d3142; }
      header.nav a { color: #fff; text-decoration: none; font-weight: 600; }
      main { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
      .card { background: #fff; border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
      .card .type { font-size: .8rem; text-transform: uppercase; color: #888; }
      .card .punchline { font-style: italic; }
      .notice { background: #fff3cd; border-radius: 8px; padding: 1rem; }
      form.inline { display: inline; }
      label { display: block; margin-top: .5rem; }
      input[type=text], textarea { width: 100%; box-sizing: border-box; }
`

// page wraps body in the shared document shell.
func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>%s · Jokes</title>
    <style>%s</style>
  </head>
  <body>
    <header class="nav">
      <a href="/">Home</a>
      <a href="/random">Random</a>
      <a href="/favorites">Favorites</a>
    </header>
    <main>
`, templ.EscapeString(title), styles)
		if err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err = io.WriteString(w, `
    </main>
  </body>
</html>
`)
		return err
	})
}
