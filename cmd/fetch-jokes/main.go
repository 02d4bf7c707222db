package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"jokes-web/internal/config"
	"jokes-web/internal/jokeapi"
	"jokes-web/pkg/logger"
)

func main() {
	baseURL := flag.String("base-url", "https://official-joke-api.appspot.com", "joke API base URL")
	category := flag.String("category", "programming", "joke category")
	random := flag.Bool("random", false, "fetch a single random joke instead of ten")
	flag.Parse()

	logger.Init("debug", os.Stderr)

	client := jokeapi.New(config.JokeAPIConfig{
		BaseURL:  *baseURL,
		Category: *category,
		Timeout:  15 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("=== Fetching jokes ===")
	fmt.Println()

	if *random {
		joke, err := client.FetchRandomProgrammingJoke(ctx)
		if err != nil {
			logger.Error("Fetch error", logger.Err(err))
			os.Exit(1)
		}
		fmt.Printf("  #%d [%s] %s\n      %s\n", joke.ID, joke.Type, joke.Setup, joke.Punchline)
		return
	}

	jokes, err := client.FetchProgrammingJokes(ctx)
	if err != nil {
		logger.Error("Fetch error", logger.Err(err))
		os.Exit(1)
	}
	fmt.Printf("✓ Fetched %d jokes\n", len(jokes))
	for i, joke := range jokes {
		fmt.Printf("  %d: #%d [%s] %s\n      %s\n", i+1, joke.ID, joke.Type, joke.Setup, joke.Punchline)
	}
}
