package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type config struct {
	Port       string `yaml:"port"`
	BackendURL string `yaml:"backendURL"`

	Greeting       string   `yaml:"greeting"`
	QuickQuestions []string `yaml:"quickQuestions"`
}

const defaultGreeting = "Hi! I'm your crypto trading assistant. Ask me about prices, trends, or market news."

var defaultQuickQuestions = []string{
	"What's the current BTC price?",
	"Analyze the BTC trend over the last 7 days",
	"Summarize today's crypto news",
}

func loadConfig(r io.Reader) (config, error) {
	cfg := config{}
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return config{}, fmt.Errorf("error decoding config file: %w", err)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = os.Getenv("CRYPTOAI_BACKEND_URL")
	}
	if cfg.BackendURL == "" {
		return config{}, fmt.Errorf("backendURL is required")
	}
	if cfg.Greeting == "" {
		cfg.Greeting = defaultGreeting
	}
	if len(cfg.QuickQuestions) == 0 {
		cfg.QuickQuestions = defaultQuickQuestions
	}

	return cfg, nil
}
