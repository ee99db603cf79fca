package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/fatflowers/paygate/internal/app/service/statistics"
)

type rootOptions struct {
	server  string
	token   string
	timeout time.Duration
}

func (o *rootOptions) client() *adminClient {
	return newAdminClient(o.server, o.token, o.timeout)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:               "paygatectl",
		Short:             "Operator CLI for the paygate payment service",
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.server, "server", envOr("PAYGATE_URL", "http://localhost:8888"), "paygate base URL")
	root.PersistentFlags().StringVar(&opts.token, "admin-token", os.Getenv("PAYGATE_ADMIN_TOKEN"), "admin token")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(newSweepCmd(opts), newHealthCmd(opts), newStatsCmd(opts), newWalletCmd(opts))
	return root
}

func printJSON(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale payments and evict finished ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.client().do(cmd.Context(), http.MethodPost, "/cleanup_expired", nil)
			if err != nil {
				return err
			}
			var res struct {
				Expired int `json:"expired"`
			}
			if err := json.Unmarshal(data, &res); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "expired %d payments\n", res.Expired)
			return err
		},
	}
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show gateway health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/gateway_health"
			if probe {
				path += "?probe=true"
			}
			data, err := opts.client().do(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "probe every gateway before answering")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		items []string
		live  bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute payment statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := lo.Map(items, func(s string, _ int) statistics.StatisticType { return statistics.StatisticType(s) })
			if len(ids) == 0 {
				ids = statistics.AllStatisticTypes
			}
			req := &statistics.PaymentStatisticRequest{IncludeLive: live}
			for _, id := range ids {
				req.DataItems = append(req.DataItems, &statistics.PaymentStatisticDataItem{ID: id})
			}
			data, err := opts.client().do(cmd.Context(), http.MethodPost, "/payment_statistics", req)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	}
	cmd.Flags().StringSliceVar(&items, "item", nil, "statistic to compute, repeatable (default all)")
	cmd.Flags().BoolVar(&live, "live", true, "include active counts and gateway health")
	return cmd
}

func newWalletCmd(opts *rootOptions) *cobra.Command {
	wallet := &cobra.Command{
		Use:   "wallet",
		Short: "Inspect user wallets",
	}
	wallet.AddCommand(&cobra.Command{
		Use:   "balance <user_id>",
		Short: "Show a user's wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.client().do(cmd.Context(), http.MethodGet, "/wallet/"+args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(cmd, data)
		},
	})
	return wallet
}
