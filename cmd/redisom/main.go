package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/redisom/internal/config"
	"github.com/kailas-cloud/redisom/internal/db"
	dbredis "github.com/kailas-cloud/redisom/internal/db/redis"
	logpkg "github.com/kailas-cloud/redisom/internal/logger"
	"github.com/kailas-cloud/redisom/internal/version"
)

var (
	flagURL   string
	flagAddr  string
	flagLevel string

	store  *dbredis.Store
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "redisom",
	Short:   "Inspect and manage redisom documents and search indexes",
	Version: version.String(),
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := connect(cmd.Context()); err != nil {
			return err
		}
		cmd.SetContext(logpkg.ContextWithLogger(cmd.Context(), logger))
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if store != nil {
			store.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) error {
	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		// No config file is fine for a CLI; fall back to defaults.
		cfg = config.Default()
	}

	level := cfg.Logging.Level
	if flagLevel != "" {
		level = flagLevel
	}
	logger, err = logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	conn := db.ConnOptions{
		Addrs: cfg.Database.Addrs,
		DB:    cfg.Database.DB,
		TLS:   cfg.Database.TLS,
	}
	switch {
	case flagURL != "":
		conn, err = db.ParseURL(flagURL)
	case flagAddr != "":
		conn = db.ConnOptions{Addrs: []string{flagAddr}}
	case cfg.Database.URL != "":
		conn, err = db.ParseURL(cfg.Database.URL)
	}
	if err != nil {
		return err
	}
	if len(conn.Addrs) == 0 {
		conn.Addrs = []string{"localhost:6379"}
	}
	if conn.Username == "" {
		conn.Username = cfg.Database.Username
	}
	if conn.Password == "" {
		conn.Password = cfg.Database.Password
	}

	store, err = dbredis.NewStore(dbredis.Config{
		Addrs:    conn.Addrs,
		Username: conn.Username,
		Password: conn.Password,
		DB:       conn.DB,
		TLS:      conn.TLS,
	})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, timeout); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	logger.Debug("connected",
		zap.Strings("addrs", conn.Addrs),
		zap.Int("db", conn.DB),
		zap.Bool("tls", conn.TLS),
	)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "database URL (redis:// or rediss://)")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "database address (host:port)")
	rootCmd.PersistentFlags().StringVar(&flagLevel, "log-level", "", "log level override (debug|info|warn|error)")

	rootCmd.AddCommand(
		pingCmd(),
		indexesCmd(),
		infoCmd(),
		searchCmd(),
		getCmd(),
		setCmd(),
		delCmd(),
		keysCmd(),
		dropCmd(),
	)
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := store.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("PONG")
			return nil
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "List search indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := store.ListIndexes(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No indexes found.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <index>",
		Short: "Show index attributes and document count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := store.IndexInfo(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, db.ErrIndexNotFound) {
					return fmt.Errorf("index %q does not exist", args[0])
				}
				return err
			}
			fmt.Printf("Index:     %s\n", info.Name)
			fmt.Printf("Documents: %d\n", info.NumDocs)
			fmt.Println("Attributes:")
			for _, a := range info.Attributes {
				fmt.Printf("  %-30s AS %-20s %s\n", a.Path, a.Alias, a.Type)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		limit   int
		offset  int
		sortBy  string
		desc    bool
		idsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "search <index> <query>",
		Short: "Run a raw search query against an index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logpkg.FromContext(cmd.Context()).Debug("search",
				zap.String("index", args[0]),
				zap.String("query", args[1]),
				zap.Int("offset", offset),
				zap.Int("limit", limit))
			res, err := store.Search(cmd.Context(), &db.SearchQuery{
				Index:    args[0],
				Query:    args[1],
				SortBy:   sortBy,
				SortDesc: desc,
				Offset:   offset,
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Total: %d\n", res.Total)
			for _, d := range res.Docs {
				if idsOnly {
					fmt.Println(d.Key)
					continue
				}
				fmt.Printf("%s\t%s\n", d.Key, d.Fields[db.DocRootField])
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum hits to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "hits to skip")
	cmd.Flags().StringVar(&sortBy, "sortby", "", "field alias to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&idsOnly, "ids", false, "print only document keys")
	return cmd
}

func getCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Fetch a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := store.JSONGet(cmd.Context(), args[0], path)
			if err != nil {
				if errors.Is(err, db.ErrKeyNotFound) {
					return fmt.Errorf("key %q does not exist", args[0])
				}
				return err
			}
			var pretty json.RawMessage = raw
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				fmt.Println(string(raw))
				return nil
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "$", "JSON path to fetch")
	return cmd
}

func setCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Write a JSON document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("argument is not valid JSON")
			}
			if err := store.JSONSet(cmd.Context(), args[0], path, []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "$", "JSON path to write")
	return cmd
}

func delCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a document, or one path inside it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if path != "" && path != "$" {
				if err := store.JSONDel(cmd.Context(), args[0], path); err != nil {
					return err
				}
			} else if err := store.Del(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "delete only this JSON path")
	return cmd
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <pattern>",
		Short: "List keys matching a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := store.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Println(k)
			}
			fmt.Printf("(%d keys)\n", len(keys))
			return nil
		},
	}
}

func dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <index>",
		Short: "Drop a search index (documents are preserved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.DropIndex(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, db.ErrIndexNotFound) {
					return fmt.Errorf("index %q does not exist", args[0])
				}
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}
