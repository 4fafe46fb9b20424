package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/opencouncil/councilsearch/internal/client"
	"github.com/opencouncil/councilsearch/internal/tui"
)

var (
	serverURL = flag.String("server", "http://localhost:8080", "CouncilSearch server base URL")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()
	if env := os.Getenv("COUNCILSEARCH_SERVER"); env != "" && *serverURL == "http://localhost:8080" {
		*serverURL = env
	}

	model := tui.New(client.New(*serverURL))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "councilchat: %v\n", err)
		os.Exit(1)
	}
}
