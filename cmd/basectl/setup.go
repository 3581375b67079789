package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhishengyifeng/community-robot-demos/pkg/base"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("basectl Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━"))
	fmt.Println()

	// Re-running setup starts from the saved values.
	cfg := base.DefaultConfig()
	if existing, err := base.LoadConfig(); err == nil {
		cfg = existing
	}

	baseURL := cfg.URL
	linear := strconv.FormatFloat(float64(cfg.LinearSpeed), 'g', -1, 32)
	angular := strconv.FormatFloat(float64(cfg.AngularSpeed), 'g', -1, 32)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base websocket URL").
				Placeholder("ws://192.168.1.10:8439").
				Value(&baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Linear speed (m/s)").
				Description("Commanded per forward/backward/strafe key").
				Value(&linear).
				Validate(validateSpeed),
			huh.NewInput().
				Title("Angular speed (rad/s)").
				Description("Commanded per rotate key").
				Value(&angular).
				Validate(validateSpeed),
		),
	)

	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	lin, _ := strconv.ParseFloat(linear, 32)
	ang, _ := strconv.ParseFloat(angular, 32)
	cfg.URL = baseURL
	cfg.LinearSpeed = float32(lin)
	cfg.AngularSpeed = float32(ang)

	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", base.DefaultConfigFile)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("basectl teleoperate"))

	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("not a valid URL")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validateSpeed(s string) error {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fmt.Errorf("not a number")
	}
	if v <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}
