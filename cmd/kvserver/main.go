package main

import (
	"context"
	"flag"
	"fmt"
	golog "log"
	"os"
	"os/signal"
	"time"

	"github.com/google/gops/agent"
	"github.com/nicolagi/kvs/kvs"
	"github.com/nicolagi/kvs/server"
	"github.com/nicolagi/kvs/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

func main() {
	configFile := flag.String("config", "", "location of configuration file (optional)")
	flag.Parse()

	opts, err := loadConfig(*configFile, os.Getenv)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": *configFile,
		}).Fatal("Could not load configuration")
	}

	if opts.Debug {
		log.SetLevel(log.DebugLevel)
	}

	cleanup := redirectLogging(opts)
	defer cleanup()

	if !opts.DisableGops {
		if err := agent.Listen(agent.Options{
			ShutdownCleanup: true,
		}); err != nil {
			log.WithField("err", err).Warn("Could not start gops agent")
		} else {
			defer agent.Close()
		}
	}

	srv := newServer(opts)
	addr, err := srv.Listen()
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"addr": opts.Address,
		}).Fatal("Could not listen")
	}
	logger := log.WithField("addr", addr)
	if opts.ForwardingAddress != "" {
		logger.WithFields(log.Fields{
			"target":  opts.ForwardingAddress,
			"timeout": opts.forwardTimeout,
		}).Info("Listening, forwarding all requests")
	} else {
		logger.Info("Listening")
	}

	// Serve returns only after Shutdown, which lets deferred clean-up
	// functions run.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, unix.SIGTERM)
	go func() {
		sig := <-c
		log.WithField("signal", sig).Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithField("err", err).Warn("Could not shut down the server cleanly")
		}
	}()

	if err := srv.Serve(); err != nil {
		log.Error(err)
	}
}

// newServer wires a canonical instance, or a forwarding one if a forwarding
// address is configured. Forwarding instances have no store.
func newServer(opts *config) *server.Server {
	if opts.ForwardingAddress != "" {
		relay := kvs.NewRelay(
			opts.ForwardingAddress,
			kvs.WithForwardTimeout(opts.forwardTimeout),
			kvs.WithRateLimit(opts.ForwardRate, opts.ForwardBurst),
		)
		return server.New(server.WithAddress(opts.Address), server.WithHandler(relay))
	}
	store := storage.NewInstrumented(storage.NewInMemoryStore())
	return server.New(
		server.WithAddress(opts.Address),
		server.WithHandler(kvs.NewLocal(store, opts.MaxKeyLength)),
		server.WithInstrumentedStore(store),
	)
}

func redirectLogging(opts *config) (cleanup func()) {
	golog.SetOutput(log.StandardLogger().Writer())
	if opts.LogPath == "" {
		return func() {}
	}
	pathname := os.ExpandEnv(opts.LogPath)
	logger := log.WithField("pathname", pathname)
	f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		logger.WithField("err", err).Fatal("Could not open log file")
	}
	logger.Info("Lines after this one will be logged to a file")
	log.SetOutput(f)
	return func() {
		if err := f.Close(); err != nil {
			// Can't use the logger here!
			_, _ = fmt.Fprintf(os.Stderr, "Could not close log file cleanly %q: %v", pathname, err)
		}
	}
}
