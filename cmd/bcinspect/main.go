// Command bcinspect reports on and dumps batchcache entries held in a bbolt
// file written through store.KV and provider/bolt.
//
//	bcinspect stats --db cache.db
//	bcinspect ls --db cache.db --ns embed-v1
//	bcinspect get --db cache.db --ns embed-v1 <key>
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(realMain(context.Background(), os.Args))
}

func realMain(ctx context.Context, args []string) int {
	// BATCHCACHE_* may come from a local .env; a missing file is fine
	_ = godotenv.Load()
	initLogger()

	if err := newApp(os.Stdout).Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// initLogger sets the level from BATCHCACHE_LOG (default ERROR).
func initLogger() {
	level := strings.ToUpper(os.Getenv("BATCHCACHE_LOG"))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(&handler{})
	log.SetLevelFromString(level)
}

type handler struct{}

func (h *handler) HandleLog(e *log.Entry) error {
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(os.Stderr, "%s %.1s %s\n", ts, strings.ToUpper(e.Level.String()), e.Message)
	return nil
}
