package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"jokes-web/internal/config"
	"jokes-web/internal/database"
	"jokes-web/internal/models"
	"jokes-web/internal/queue"
	"jokes-web/pkg/logger"

	"gopkg.in/telebot.v4"
)

const maxListedFavorites = 20

var (
	ErrRateLimited   = errors.New("telegram rate limited")
	ErrInvalidJokeID = errors.New("joke id must be a positive number")
)

type JokeStore interface {
	List(ctx context.Context) ([]models.Joke, error)
	GetByID(ctx context.Context, id int64) (*models.Joke, error)
	Count(ctx context.Context) (int, error)
}

type JokeSource interface {
	FetchRandomProgrammingJoke(ctx context.Context) (*models.Joke, error)
}

// FavoriteFeed delivers favorite events to announce in the configured channel.
type FavoriteFeed interface {
	ConsumeFavorites(ctx context.Context, handler func(*queue.FavoriteEvent) error) error
}

type Bot struct {
	settings telebot.Settings
	store    JokeStore
	source   JokeSource
	feed     FavoriteFeed
	tbot     *telebot.Bot
	cfg      config.BotConfig
}

func New(cfg config.BotConfig, store JokeStore, source JokeSource, feed FavoriteFeed) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	return &Bot{
		cfg:    cfg,
		store:  store,
		source: source,
		feed:   feed,
		settings: telebot.Settings{
			Token:  cfg.Token,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		},
	}, nil
}

func (b *Bot) Start(ctx context.Context) (*telebot.Bot, error) {
	tbot, err := telebot.NewBot(b.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.tbot = tbot
	b.setupHandlers(tbot)

	if b.feed != nil && b.cfg.ChannelID != 0 {
		go b.announceFavorites(ctx)
	}

	go tbot.Start()

	return tbot, nil
}

func (b *Bot) setupHandlers(bot *telebot.Bot) {
	bot.Handle(telebot.OnText, func(c telebot.Context) error {
		logger.Debug("Incoming text message",
			logger.Int64("user_id", c.Sender().ID),
			logger.String("username", c.Sender().Username),
		)
		return c.Send("Use /random for a fresh joke or /favorites for the saved ones.")
	})

	bot.Handle("/start", b.handleHelp)
	bot.Handle("/help", b.handleHelp)
	bot.Handle("/random", b.handleRandom)
	bot.Handle("/favorites", b.handleFavorites)
	bot.Handle("/joke", b.handleJoke)
	bot.Handle("/stats", b.handleStats)
}

func (b *Bot) announceFavorites(ctx context.Context) {
	logger.Info("Starting favorites announcer", logger.Int64("channel_id", b.cfg.ChannelID))
	err := b.feed.ConsumeFavorites(ctx, func(event *queue.FavoriteEvent) error {
		return b.sendMessageWithRetry(b.cfg.ChannelID, formatEvent(event))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Favorites announcer error", logger.Err(err))
	}
}

func (b *Bot) sendMessageWithRetry(chatID int64, text string) error {
	maxRetries := 3
	retryDelay := time.Second

	for i := 0; i < maxRetries; i++ {
		_, err := b.tbot.Send(&telebot.Chat{ID: chatID}, text)
		if err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "retry after") {
				logger.Warn("Rate limited, retrying...",
					logger.Int("retry", i+1),
					logger.Int("max_retries", maxRetries),
				)
				time.Sleep(retryDelay)
				retryDelay *= 2
				continue
			}
			return fmt.Errorf("failed to send message: %w", err)
		}
		return nil
	}

	return ErrRateLimited
}

func (b *Bot) handleHelp(c telebot.Context) error {
	return c.Send(helpText)
}

func (b *Bot) handleRandom(c telebot.Context) error {
	joke, err := b.source.FetchRandomProgrammingJoke(context.Background())
	if err != nil {
		logger.Error("Failed to get random joke", logger.Err(err))
		return c.Send("Sorry, no jokes available right now. Try again later!")
	}
	return c.Send(formatJoke(*joke))
}

func (b *Bot) handleFavorites(c telebot.Context) error {
	jokes, err := b.store.List(context.Background())
	if err != nil {
		return c.Send("Failed to load favorites")
	}
	return c.Send(formatFavorites(jokes))
}

func (b *Bot) handleJoke(c telebot.Context) error {
	id, err := parseJokeID(c.Args())
	if err != nil {
		return c.Send("Usage: /joke <id>")
	}

	joke, err := b.store.GetByID(context.Background(), id)
	if errors.Is(err, database.ErrJokeNotFound) {
		return c.Send(fmt.Sprintf("No favorite with id %d.", id))
	}
	if err != nil {
		logger.Error("Failed to get joke", logger.Int64("joke_id", id), logger.Err(err))
		return c.Send("Failed to load that joke")
	}
	return c.Send(formatJoke(*joke))
}

func (b *Bot) handleStats(c telebot.Context) error {
	total, err := b.store.Count(context.Background())
	if err != nil {
		return c.Send("Failed to get statistics")
	}
	return c.Send(fmt.Sprintf("Saved jokes: %d", total))
}

const helpText = "Commands:\n" +
	"- /random - Get a random programming joke\n" +
	"- /favorites - List saved jokes\n" +
	"- /joke <id> - Show a saved joke\n" +
	"- /stats - Number of saved jokes\n" +
	"- /help - Show this help message"

func parseJokeID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, ErrInvalidJokeID
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidJokeID
	}
	return id, nil
}

func formatJoke(j models.Joke) string {
	return fmt.Sprintf("%s\n\n%s\n\n[%s]", j.Setup, j.Punchline, j.Type)
}

func formatFavorites(jokes []models.Joke) string {
	if len(jokes) == 0 {
		return "No favorites saved yet."
	}

	var sb strings.Builder
	sb.WriteString("Favorites:\n")
	for i, j := range jokes {
		if i == maxListedFavorites {
			fmt.Fprintf(&sb, "...and %d more", len(jokes)-maxListedFavorites)
			break
		}
		fmt.Fprintf(&sb, "%d. %s\n", j.ID, j.Setup)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEvent(e *queue.FavoriteEvent) string {
	switch e.Action {
	case models.ActionSaved:
		return "New favorite!\n\n" + formatJoke(e.Joke)
	case models.ActionUpdated:
		return fmt.Sprintf("Favorite #%d was edited:\n\n%s", e.Joke.ID, formatJoke(e.Joke))
	case models.ActionDeleted:
		return fmt.Sprintf("Favorite #%d was removed.", e.Joke.ID)
	default:
		return fmt.Sprintf("Favorite #%d: %s", e.Joke.ID, e.Action)
	}
}
