package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/Sternrassler/gh-user-sync/internal/server"
	"github.com/Sternrassler/gh-user-sync/pkg/client"
	"github.com/Sternrassler/gh-user-sync/pkg/detail"
	"github.com/Sternrassler/gh-user-sync/pkg/pagination"
	"github.com/Sternrassler/gh-user-sync/pkg/retry"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "usersync",
		Short:         "Synchronize the GitHub users list into a local cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default: usersync.yaml in . or $HOME/.config/usersync)")

	rootCmd.AddCommand(
		newListCmd(a),
		newDetailCmd(a),
		newClearCmd(a),
		newServeCmd(a),
	)

	return rootCmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		pages   int
		retries int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Hydrate from the cache, load more pages and print the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			policy := a.cfg.RetryPolicy()
			if cmd.Flags().Changed("retries") {
				policy.MaxAttempts = retries + 1
			}

			s.sync.Initialize(ctx)
			for i := 0; i < pages; i++ {
				res, err := loadPage(ctx, s.sync, policy)
				if err != nil {
					return fmt.Errorf("page %d: %w", i+1, err)
				}
				if res.Appended == 0 {
					break
				}
			}

			if asJSON {
				return writeUsersJSON(cmd.OutOrStdout(), s.sync.Items())
			}
			return writeUsersTable(cmd.OutOrStdout(), s.sync.Items(), s.sync.Cursor())
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "p", 1, "number of pages to load after hydrating")
	cmd.Flags().IntVar(&retries, "retries", 0, "retries per page for temporary failures (overrides retry.max_attempts)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

// loadPage retries temporary fetch failures. The synchronizer keeps its state
// on failure, so every attempt requests the same cursor.
func loadPage(ctx context.Context, s *pagination.Synchronizer, policy retry.Config) (pagination.LoadResult, error) {
	var res pagination.LoadResult
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		res, err = s.LoadNext(ctx)
		return err
	}, client.IsTemporary)
	return res, err
}

func newDetailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <login>...",
		Short: "Fetch user profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(a.cfg.ClientConfig())
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			bf := detail.NewBatchFetcher(c, a.cfg.DetailBatchConfig())
			profiles, fetchErr := bf.FetchAll(cmd.Context(), args)

			logins := make([]string, 0, len(profiles))
			for login := range profiles {
				logins = append(logins, login)
			}
			sort.Strings(logins)

			out := make([]*client.UserDetail, 0, len(logins))
			for _, login := range logins {
				out = append(out, profiles[login])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			return fetchErr
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the cached list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			s.sync.ClearCache(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the list over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			cfg := server.Config{Addr: a.cfg.Server.Addr}
			if addr != "" {
				cfg.Addr = addr
			}
			return server.New(cfg, s.sync, s.client).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	return cmd
}

func writeUsersJSON(w io.Writer, users []client.User) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(users)
}

func writeUsersTable(w io.Writer, users []client.User, cursor int64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOGIN\tTYPE\tADMIN\tURL")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Login, u.Type, strconv.FormatBool(u.SiteAdmin), u.HTMLURL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d users, cursor %d\n", len(users), cursor)
	return err
}
