package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fitpulse/companion/internal/auth"
	"github.com/fitpulse/companion/internal/cache"
	"github.com/fitpulse/companion/internal/chat"
	"github.com/fitpulse/companion/internal/config"
	"github.com/fitpulse/companion/internal/devserver"
	"github.com/fitpulse/companion/internal/domain"
	"github.com/fitpulse/companion/internal/policy"
	"github.com/fitpulse/companion/internal/session"
	"github.com/fitpulse/companion/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config.yaml")
	dev := flag.Bool("dev", false, "run the local platform stub instead of the client")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if *dev {
		runDevServer(cfg)
		return
	}
	runClient(cfg)
}

func runDevServer(cfg *config.Config) {
	srv := devserver.New(cfg.Dev)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Dev.Port)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("failed to start dev server: %v", err)
		}
	}()
	logger.Infof("dev platform stub listening on :%d", cfg.Dev.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("failed to shut down dev server: %v", err)
	}
}

func runClient(cfg *config.Config) {
	ctx := context.Background()

	store := session.NewDefault(cfg.Session.DataDir, cfg.Session.CookieFile)
	api := auth.NewClient(cfg.Platform.BaseURL, cfg.Platform.Timeout)
	mgr := auth.NewManager(store, api)

	sess, err := mgr.Ensure(ctx)
	if err != nil {
		logger.Debugf("no stored session: %v", err)
		sess = loginPrompt(ctx, mgr)
	}

	profile, err := api.Profile(ctx, sess.AccessToken)
	if err != nil {
		logger.Fatalf("failed to load profile: %v", err)
	}
	if !profile.ChatEnabled {
		fmt.Println("Coach chat is not enabled on this account.")
		return
	}

	gate, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Fatalf("failed to load chat policy: %v", err)
	}

	var transcriptCache chat.Cache
	if c, err := cache.NewStore(filepath.Join(cfg.Session.DataDir, "history.db")); err != nil {
		logger.Warnf("history cache unavailable: %v", err)
	} else {
		transcriptCache = c
		defer c.Close()
	}

	chatClient := chat.NewClient(cfg.Platform.BaseURL, cfg.Platform.Timeout, func() string {
		if s := store.Get(); s != nil {
			return s.AccessToken
		}
		return ""
	})

	reducer := chat.NewReducer(chat.Config{
		Client:   chatClient,
		Sessions: mgr,
		Profile:  profile,
		Gate:     gate,
		Cache:    transcriptCache,
		PerPage:  cfg.Chat.PerPage,
	})

	if err := reducer.LoadHistory(ctx); err != nil {
		logger.Warnf("failed to load history: %v", err)
	}
	printMessages(reducer.Messages())
	printQuickReplies(reducer.QuickReplies())

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "/quit":
			return
		case "/logout":
			mgr.Logout()
			fmt.Println("Logged out.")
			return
		case "/older":
			if err := reducer.LoadOlder(ctx); err != nil {
				logger.Warnf("failed to load older messages: %v", err)
			}
			printMessages(reducer.Messages())
		default:
			before := len(reducer.Messages())
			reducer.SendMessage(ctx, line)
			printMessages(reducer.Messages()[before:])
			printQuickReplies(reducer.QuickReplies())
		}
		fmt.Print("> ")
	}
}

func loginPrompt(ctx context.Context, mgr *auth.Manager) *domain.Session {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("email: ")
	email, _ := reader.ReadString('\n')
	fmt.Print("password: ")
	password, _ := reader.ReadString('\n')

	sess, err := mgr.Login(ctx, strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		logger.Fatalf("login failed: %v", err)
	}
	return sess
}

func printMessages(msgs []domain.Message) {
	for _, msg := range msgs {
		body := msg.Content
		if msg.Role == domain.MessageRoleBot {
			body = chat.StripOptions(body)
		}
		fmt.Printf("%s: %s\n", speaker(msg.Role), body)
	}
}

func printQuickReplies(opts []string) {
	for _, opt := range opts {
		fmt.Printf("  [%s]\n", opt)
	}
}

func speaker(role string) string {
	if role == domain.MessageRoleBot {
		return "coach"
	}
	return "you"
}
