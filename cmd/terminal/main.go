package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/dmaia-dev/medishop/internal/terminal"
)

func main() {
	posServiceURL := os.Getenv("POS_SERVICE_URL")
	if posServiceURL == "" {
		posServiceURL = "http://localhost:8080"
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	client := terminal.NewClient(posServiceURL, httpClient)
	session := terminal.NewSession(client, os.Stdin, os.Stdout)
	session.Run(context.Background())
}
