package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/finboard/internal/logging"
	"github.com/theirongolddev/finboard/internal/mockapi"
)

var (
	flagMockAddr    string
	flagMockLatency time.Duration
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a seeded demo backend for local use",
	Long: `Serve an in-memory finance backend with a year of sample data.

Point finboard at it with --api-url http://<addr> and sign in with the
printed demo credentials. State is lost when the server stops.`,
	RunE: runMockAPI,
}

func init() {
	mockAPICmd.Flags().StringVar(&flagMockAddr, "addr", mockapi.DefaultAddr, "HTTP listen address")
	mockAPICmd.Flags().DurationVar(&flagMockLatency, "latency", 0, "Artificial delay added to every response")
	rootCmd.AddCommand(mockAPICmd)
}

func runMockAPI(_ *cobra.Command, _ []string) error {
	gin.SetMode(gin.ReleaseMode)

	level := "info"
	if flagVerbose {
		level = "debug"
	}
	log := logging.New(logging.Config{Level: level, Pretty: true, Out: os.Stderr})

	srv := mockapi.New(mockapi.Options{Latency: flagMockLatency, Log: log})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("  Mock API listening on http://%s\n", flagMockAddr)
	fmt.Printf("  Demo login: %s / %s\n", mockapi.DemoUser, mockapi.DemoPassword)
	fmt.Printf("  Try: finboard --api-url http://%s login -u %s\n", flagMockAddr, mockapi.DemoUser)

	if err := srv.Run(ctx, flagMockAddr); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
