package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/brightpath-labs/intake-backend/internal/app"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Log.Info("Listening", "port", a.Cfg.Port)
	if err := a.Run(); err != nil {
		a.Log.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
}
