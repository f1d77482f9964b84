package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"angels_reviews/internal/adapters/observability"
	"angels_reviews/internal/app"
	"angels_reviews/internal/bootstrap"
	"angels_reviews/internal/domain"
	"angels_reviews/internal/shared"
)

const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:          "reviewsctl",
	Short:        "Inspect and refresh the Google reviews cache",
	SilenceUsage: true,
}

// deps are what a command needs; tests swap newDeps for fakes.
type deps struct {
	reviews *app.ReviewService
	finder  domain.PlaceFinder
	close   func()
}

var newDeps = func(ctx context.Context) (*deps, error) {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	store, closeStore, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cl := bootstrap.Places(cfg)
	d := &deps{reviews: bootstrap.Reviews(cfg, cl, store), close: closeStore}
	if cl != nil {
		d.finder = cl
	}
	return d, nil
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// Run executes the root command and returns an exit code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		if exitCode == ExitSuccess {
			exitCode = ExitUsageError
		}
	}
	return exitCode
}

func init() {
	rootCmd.AddCommand(reviewsCmd, ratingCmd, findPlaceCmd, verifyCmd, cacheCmd)
}

// withDeps opens dependencies for one command and waits for background work
// before releasing them.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, d *deps) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d, err := newDeps(ctx)
	if err != nil {
		exitCode = ExitRuntimeError
		return err
	}
	defer func() {
		d.reviews.Wait()
		if d.close != nil {
			d.close()
		}
	}()
	return fn(ctx, d)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
