package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/pascs/chatui/internal/chat"
	"github.com/pascs/chatui/internal/client"
	"github.com/pascs/chatui/internal/config"
	"github.com/pascs/chatui/internal/history"
	"github.com/pascs/chatui/internal/session"
	"github.com/pascs/chatui/internal/submit"
	"github.com/pascs/chatui/storage"

	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	godotenv.Load(".env")
	clientID := os.Getenv("PASCS_CLIENT_ID")
	clientSecret := os.Getenv("PASCS_CLIENT_SECRET")
	userID := os.Getenv("PASCS_USER_ID")

	cfg := config.NewConfig(clientID, clientSecret, userID)
	if baseURL := os.Getenv("PASCS_BASE_URL"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if dbPath := os.Getenv("PASCS_DB_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	chatClient, err := client.NewClient(ctx, *cfg)
	if err != nil {
		log.Fatalf("Failed to create API Client: %s", err)
	}

	if chatClient.AuthHandler != nil {
		wg := chatClient.AuthHandler.Run(ctx)
		go func() {
			defer close(chatClient.AuthHandler.ErrorChan)
			wg.Wait()
		}()
	}

	db, err := storage.NewSqliteDB(cfg.DatabasePath)
	if err != nil {
		slog.Error("Failed to open chat database, history disabled", "error", err)
	}
	index := history.NewIndex(db)
	store := session.NewStore(chatClient, index)
	store.HydrateFromSavedPointer(ctx)

	coordinator := submit.NewCoordinator(store, index, chatClient, func(err error) {
		fmt.Printf("! %s\n", err)
	})

	unsubscribe := index.Subscribe(func(s chat.Summary) {
		slog.Debug("conversation saved", "title", s.Title)
	})
	defer unsubscribe()

	printTranscript(store.CurrentMessages())
	runLoop(ctx, cfg, store, index, coordinator)
	coordinator.Wait()
}

func runLoop(ctx context.Context, cfg *config.Config, store *session.Store, index *history.Index, coordinator *submit.Coordinator) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/new":
			store.CreateSession()
			printTranscript(store.CurrentMessages())
		case line == "/history":
			for i, s := range index.Summaries() {
				fmt.Printf("%d. %s\n", i+1, s.Title)
			}
		case strings.HasPrefix(line, "/open "):
			openConversation(ctx, store, index, strings.TrimPrefix(line, "/open "))
		case strings.HasPrefix(line, "/forget "):
			summaries := index.Summaries()
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/forget "))); err == nil && n >= 1 && n <= len(summaries) {
				index.RemoveSummary(summaries[n-1].ConversationID)
			}
		case line == "/clear":
			index.Clear()
		default:
			send(ctx, cfg, store, coordinator, line)
		}
	}
}

func openConversation(ctx context.Context, store *session.Store, index *history.Index, arg string) {
	summaries := index.Summaries()
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 || n > len(summaries) {
		fmt.Println("usage: /open <number from /history>")
		return
	}
	if err := store.LoadMessagesFromConversation(ctx, summaries[n-1].ConversationID); err != nil {
		fmt.Printf("! %s\n", err)
		return
	}
	printTranscript(store.CurrentMessages())
}

// send submits one prompt; Ctrl+C cancels the in-flight request only.
func send(ctx context.Context, cfg *config.Config, store *session.Store, coordinator *submit.Coordinator, prompt string) {
	sendCtx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if _, err := coordinator.Submit(sendCtx, prompt, cfg.UserID); err != nil {
		return
	}
	messages := store.CurrentMessages()
	if len(messages) > 0 {
		fmt.Println(messages[len(messages)-1].Content)
	}
}

func printTranscript(messages []chat.Message) {
	for _, m := range messages {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
}
