package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-sendmoney/pkg/engine"
	"github.com/goliatone/go-sendmoney/pkg/session"
	"github.com/goliatone/go-sendmoney/pkg/store"
)

// Demo credentials for the login stub; there is no real authentication.
const (
	demoUsername = "testuser"
	demoPassword = "password123"
)

func main() {
	// .env is optional; flags override env, env overrides defaults.
	_ = godotenv.Load(".env")

	dbPath := flag.String("db", envOr("SENDMONEY_DB", "transfers.db"), "path to the SQLite transfer store")
	schemaPath := flag.String("schema", envOr("SENDMONEY_SCHEMA", "testdata/send_money.json"), "path to the form document")
	language := flag.String("lang", envOr("SENDMONEY_LANG", "en"), "display language (e.g. en, ar)")
	verbose := flag.Bool("verbose", false, "log engine activity to stderr")
	flag.Parse()

	log := zerolog.Nop()
	if *verbose {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	if err := run(*dbPath, *schemaPath, *language, log); err != nil {
		fmt.Fprintf(os.Stderr, "sendmoney: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func run(dbPath, schemaPath, language string, log zerolog.Logger) error {
	st, err := store.Open(dbPath, store.WithLogger(log))
	if err != nil {
		return err
	}
	defer st.Close()

	gate := session.NewGate()
	eng := engine.New(st, engine.WithLogger(log), engine.WithSessionGate(gate))

	// One-shot schema load; a malformed document degrades to the empty
	// schema and the menu reports that no services are available.
	if err := eng.LoadSchemaFile(schemaPath); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := login(gate); err != nil {
		return err
	}
	defer gate.Clear()

	ctx := context.Background()
	for {
		var choice string
		prompt := &survey.Select{
			Message: "What would you like to do?",
			Options: []string{"Send money", "Transfer history", "Switch language", "Quit"},
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}

		switch choice {
		case "Send money":
			if err := sendMoney(ctx, eng, language); err != nil {
				fmt.Fprintf(os.Stderr, "send: %v\n", err)
			}
		case "Transfer history":
			if err := browseHistory(ctx, eng); err != nil {
				fmt.Fprintf(os.Stderr, "history: %v\n", err)
			}
		case "Switch language":
			language = toggleLanguage(language)
			fmt.Printf("Language set to %s\n", language)
		case "Quit":
			return nil
		}
	}
}

func login(gate *session.Gate) error {
	for attempt := 0; attempt < 3; attempt++ {
		var username, password string
		if err := survey.AskOne(&survey.Input{Message: "Username:"}, &username); err != nil {
			return err
		}
		if err := survey.AskOne(&survey.Password{Message: "Password:"}, &password); err != nil {
			return err
		}

		if username == demoUsername && password == demoPassword {
			gate.SetActive(true)
			fmt.Println("Login successful.")
			return nil
		}
		fmt.Println("Invalid credentials.")
	}
	return errors.New("too many failed login attempts")
}

func toggleLanguage(current string) string {
	if current == "en" {
		return "ar"
	}
	return "en"
}
