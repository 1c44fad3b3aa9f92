package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reviewbadge/reviewbadge/pkg/api"
	"github.com/reviewbadge/reviewbadge/pkg/badge"
	"github.com/reviewbadge/reviewbadge/pkg/engine"
	"github.com/reviewbadge/reviewbadge/pkg/provider"
	"github.com/reviewbadge/reviewbadge/pkg/provider/bugzilla"
	"github.com/reviewbadge/reviewbadge/pkg/provider/phabricator"
	"github.com/reviewbadge/reviewbadge/pkg/store"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"reviewbadge-d"}`)

	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"invalid_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	settings, err := store.NewSettings(config.DBPath)
	if err != nil {
		fmt.Printf(`{"level":"fatal","msg":"failed_to_init_settings","error":"%v"}`+"\n", err)
		os.Exit(1)
	}
	fmt.Printf(`{"level":"info","msg":"settings_initialized","path":"%s"}`+"\n", config.DBPath)

	// Badge sinks: log always, redis mirror when configured.
	sinks := badge.Multi{badge.NewLogBadge()}
	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr})
		sinks = append(sinks, badge.NewRedisBadge(rdb))
		fmt.Printf(`{"level":"info","msg":"redis_badge_enabled","addr":"%s"}`+"\n", config.RedisAddr)
	}

	agg := engine.NewAggregate(provider.Phabricator, provider.Bugzilla)
	orch := engine.NewOrchestrator(agg, sinks)

	phab, err := phabricator.NewProvider(config.PhabricatorURL, func() string {
		return settings.Credential(string(provider.Phabricator))
	})
	if err != nil {
		fmt.Printf(`{"level":"fatal","msg":"failed_to_init_phabricator","error":"%v"}`+"\n", err)
		os.Exit(1)
	}
	orch.Register(phab)
	orch.Register(bugzilla.NewProvider(config.BugzillaURL, func() string {
		return settings.Credential(string(provider.Bugzilla))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := engine.NewScheduler()
	reactor := engine.NewReactor(settings, sched, orch)

	go orch.Start(ctx)
	reactor.Start(ctx)

	server := api.NewServer(agg, orch, settings, config.Addr)
	go func() {
		if err := server.Start(); err != nil {
			fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
			os.Exit(1)
		}
	}()

	// First cycle right away; the timer only covers steady state.
	orch.Trigger()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigs
		if sig == syscall.SIGHUP {
			fmt.Println(`{"level":"info","msg":"settings_reload_requested"}`)
			settings.Reload()
			continue
		}

		fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)
		break
	}

	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}

	if err := settings.Close(); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_close_settings","error":"%v"}`+"\n", err)
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}
