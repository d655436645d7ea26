package main

import (
	"log"
	"os"
	"time"

	"pricecast/internal/client"
	"pricecast/internal/config"
	"pricecast/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	api := client.New(cfg.APIBaseURL, time.Duration(cfg.ClientTimeoutSecs)*time.Second, cfg.ProductDescription)
	model := tui.NewAppModel(tui.Services{
		Forecasts:     api,
		Subscriptions: api,
		Product:       cfg.Product(),
		Username:      os.Getenv("USER"),
	})

	if err := runProgramFunc(model); err != nil {
		log.Fatalf("client exited with error: %v", err)
	}
}
