// Command kvcli is a command line client for kvserver.
//
//	kvcli [-addr host:port] get <key>
//	kvcli [-addr host:port] put <key> <json-value>
//	kvcli [-addr host:port] delete <key>
//
// The address defaults to $KVS_ADDRESS, or 127.0.0.1:8090.
package main // import "github.com/nicolagi/kvs/cmd/kvcli"

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nicolagi/kvs/client"
	log "github.com/sirupsen/logrus"
)

func main() {
	defaultAddress := os.Getenv("KVS_ADDRESS")
	if defaultAddress == "" {
		defaultAddress = "127.0.0.1:8090"
	}
	address := flag.String("addr", defaultAddress, "kvserver address")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	c := client.New(client.WithAddress(*address), client.WithTimeout(*timeout))
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	err := run(ctx, c, os.Stdout, flag.Args())
	if errors.Is(err, errUsage) {
		usage()
		os.Exit(2)
	}
	if err != nil {
		cancel()
		log.WithField("addr", *address).Fatal(err)
	}
}

var errUsage = errors.New("usage")

func run(ctx context.Context, c *client.Client, w io.Writer, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	command, key := args[0], args[1]
	switch command {
	case "get":
		value, err := c.Get(ctx, key)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", value)
		return err
	case "put":
		if len(args) != 3 {
			return errUsage
		}
		value := json.RawMessage(args[2])
		if !json.Valid(value) {
			return fmt.Errorf("%q is not a JSON value", args[2])
		}
		result, err := c.Put(ctx, key, value)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, result)
		return err
	case "delete":
		if err := c.Delete(ctx, key); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, "deleted")
		return err
	default:
		return errUsage
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  kvcli [-addr host:port] get <key>")
	fmt.Fprintln(os.Stderr, "  kvcli [-addr host:port] put <key> <json-value>")
	fmt.Fprintln(os.Stderr, "  kvcli [-addr host:port] delete <key>")
	flag.PrintDefaults()
}
