package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"revtrack/internal/cli"
)

const defaultBaseURL = "http://127.0.0.1:8080"

func main() {
	baseURL := flag.String("base", defaultBaseURL, "Review service base URL")
	userID := flag.String("user", "", "User to operate on")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP timeout (e.g. 10s)")
	flag.Parse()

	client := cli.NewClient(*baseURL, *timeout)
	session := cli.NewSession(client, *userID)
	if err := session.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
