package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/api/iterator"

	"firestore-client/internal/di"
	"firestore-client/internal/firestore/config"
	"firestore-client/internal/firestore/domain/model"
	"firestore-client/internal/firestore/domain/repository"
)

const usage = `usage: firestore-client get [--mask=a.b,c] [--transaction] <doc-path>...`

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type getCommand struct {
	paths       []string
	fieldPaths  []string
	transaction bool
}

func parseArgs(args []string) (*getCommand, error) {
	if len(args) == 0 || args[0] != "get" {
		return nil, errors.New(usage)
	}
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	mask := fs.String("mask", "", "comma-separated field paths to return")
	inTx := fs.Bool("transaction", false, "read inside a new transaction")
	if err := fs.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("%v\n%s", err, usage)
	}
	if fs.NArg() == 0 {
		return nil, fmt.Errorf("no document paths given\n%s", usage)
	}

	cmd := &getCommand{paths: fs.Args(), transaction: *inTx}
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "mask" {
			return
		}
		cmd.fieldPaths = []string{}
		if *mask != "" {
			cmd.fieldPaths = strings.Split(*mask, ",")
		}
	})
	return cmd, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd, err := parseArgs(args)
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	container := di.NewContainer()
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := container.Initialize(initCtx, cfg); err != nil {
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			container.Logger.Warnf("Failed to close container: %v", err)
		}
	}()
	client := container.GetClient()

	refs := make([]*model.DocumentRef, 0, len(cmd.paths))
	for _, p := range cmd.paths {
		ref, err := client.Doc(p)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	var tx repository.TransactionContext
	if cmd.transaction {
		t, err := client.BeginTransaction(ctx)
		if err != nil {
			return err
		}
		tx = t
	}

	it, err := client.GetAll(ctx, refs, cmd.fieldPaths, tx)
	if err != nil {
		return err
	}
	defer it.Stop()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if err := enc.Encode(snapshotView(snap)); err != nil {
			return err
		}
	}
}

// snapshotView shapes a result for JSON output. Missing documents print as null.
func snapshotView(snap *model.DocumentSnapshot) interface{} {
	if snap == nil {
		return nil
	}
	return map[string]interface{}{
		"path":        snap.Ref.Path(),
		"exists":      snap.Exists,
		"read_time":   snap.ReadTime,
		"create_time": snap.CreateTime,
		"update_time": snap.UpdateTime,
		"data":        jsonValue(snap.Data()),
	}
}

func jsonValue(v interface{}) interface{} {
	switch t := v.(type) {
	case *model.DocumentRef:
		return t.Path()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, elem := range t {
			out[k] = jsonValue(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, elem := range t {
			out[i] = jsonValue(elem)
		}
		return out
	default:
		return v
	}
}
