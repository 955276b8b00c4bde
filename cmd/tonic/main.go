package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/tonicfm/tonic/internal/config"
	"github.com/tonicfm/tonic/internal/log"
	"github.com/tonicfm/tonic/internal/player"
	"github.com/tonicfm/tonic/internal/subsonic"
	"github.com/tonicfm/tonic/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("tonic %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to a null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting tonic", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	client := subsonic.NewClient(cfg.Server.URL, cfg.Server.Username, cfg.Server.Password, logger)

	engine, err := player.StartMPV(cfg.Player.Command, cfg.Player.Socket, logger)
	if err != nil {
		return fmt.Errorf("failed to start audio engine: %w", err)
	}
	defer engine.Close()

	ctrl := player.NewController(engine, cfg.Player.Volume, logger)
	model := tui.NewModel(cfg, client, ctrl, engine.Events(), logger)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow prompts for server credentials on first run, verifies them
// against the server, and saves the config.
func runSetupFlow(cfg *config.Config, logger *slog.Logger) error {
	fmt.Println()
	fmt.Println("Welcome to tonic!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		serverURL, err := prompt(reader, "Enter your Subsonic server URL (e.g., https://music.example.com): ")
		if err != nil {
			return err
		}
		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		username, err := prompt(reader, "Username: ")
		if err != nil {
			return err
		}
		if username == "" {
			fmt.Println("Username cannot be empty. Please try again.")
			continue
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Println()
		fmt.Println("Checking connection...")

		client := subsonic.NewClient(serverURL, username, string(password), logger)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = client.Ping(ctx)
		cancel()
		if err != nil {
			fmt.Printf("✗ Connection failed: %v\n", err)
			fmt.Println("Please check the details and try again.")
			fmt.Println()
			continue
		}

		cfg.Server.URL = serverURL
		cfg.Server.Username = username
		cfg.Server.Password = string(password)
		break
	}

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run tonic again to start the application.")

	return nil
}

func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}
