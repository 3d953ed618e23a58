package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rickgao/pair-factory/internal/factory"
	"github.com/rickgao/pair-factory/internal/model"
	"github.com/rickgao/pair-factory/internal/version"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Instantiate the factory; the sender becomes its owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.app
			sender, err := a.requireSender()
			if err != nil {
				return err
			}
			msg, err := json.Marshal(factory.InstantiateMsg{
				TokenCodeID: a.cfg.Factory.TokenCodeID,
				PairCodeID:  a.cfg.Factory.PairCodeID,
			})
			if err != nil {
				return err
			}
			res, err := a.rt.Instantiate(cmd.Context(), sender, factoryCodeID, msg, sender, a.cfg.Factory.Label)
			if err != nil {
				return err
			}
			a.logger.Info("factory instantiated", "address", res.ContractAddress, "label", a.cfg.Factory.Label)
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newCreatePairCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "create-pair ASSET ASSET",
		Short:   "Create a pair for two assets (native:<denom> or token:<address>)",
		Example: "  factory create-pair native:uusd token:contract0009",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			assets, err := parseAssets(args)
			if err != nil {
				return err
			}
			sender, err := a.requireSender()
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.CreatePair(cmd.Context(), sender, assets)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newPairCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pair ASSET ASSET",
		Short: "Look up the pair for two assets, in either order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			assets, err := parseAssets(args)
			if err != nil {
				return err
			}
			c, err := opts.app.client(cmd.Context())
			if err != nil {
				return err
			}
			info, err := c.Pair(cmd.Context(), assets)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func newPairsCmd(opts *rootOptions) *cobra.Command {
	var (
		startAfter []string
		limit      uint32
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "pairs",
		Short: "List registered pairs in key order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.app.client(cmd.Context())
			if err != nil {
				return err
			}

			var pairs []model.PairInfo
			if all {
				pairs, err = c.AllPairs(cmd.Context())
			} else {
				var cursor *[2]model.AssetInfo
				if len(startAfter) > 0 {
					assets, err := parseAssets(startAfter)
					if err != nil {
						return err
					}
					cursor = &assets
				}
				var lim *uint32
				if cmd.Flags().Changed("limit") {
					lim = &limit
				}
				pairs, err = c.Pairs(cmd.Context(), cursor, lim)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), factory.PairsResponse{Pairs: pairs})
		},
	}
	cmd.Flags().StringSliceVar(&startAfter, "start-after", nil, "list pairs after this one (two assets, comma separated)")
	cmd.Flags().Uint32Var(&limit, "limit", 0, "page size (capped by factory.max_limit)")
	cmd.Flags().BoolVar(&all, "all", false, "walk every page")
	cmd.MarkFlagsMutuallyExclusive("all", "start-after")
	cmd.MarkFlagsMutuallyExclusive("all", "limit")
	return cmd
}

func newPendingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List pair creations that were dispatched but not acknowledged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.app.client(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := c.Pending(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), factory.PendingResponse{Pending: pending})
		},
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the factory configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.app.client(cmd.Context())
			if err != nil {
				return err
			}
			cfg, err := c.Config(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cfg)
		},
	}
}

func newUpdateConfigCmd(opts *rootOptions) *cobra.Command {
	var (
		owner       string
		tokenCodeID uint64
		pairCodeID  uint64
	)
	cmd := &cobra.Command{
		Use:   "update-config",
		Short: "Change the owner or template code ids (owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.app
			var msg factory.UpdateConfigMsg
			if cmd.Flags().Changed("owner") {
				msg.Owner = &owner
			}
			if cmd.Flags().Changed("token-code-id") {
				msg.TokenCodeID = &tokenCodeID
			}
			if cmd.Flags().Changed("pair-code-id") {
				msg.PairCodeID = &pairCodeID
			}

			sender, err := a.requireSender()
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.UpdateConfig(cmd.Context(), sender, msg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "new owner")
	cmd.Flags().Uint64Var(&tokenCodeID, "token-code-id", 0, "new liquidity token template")
	cmd.Flags().Uint64Var(&pairCodeID, "pair-code-id", 0, "new pair template")
	return cmd
}

func newMigratePairCmd(opts *rootOptions) *cobra.Command {
	var codeID uint64
	cmd := &cobra.Command{
		Use:   "migrate-pair CONTRACT",
		Short: "Upgrade a pair contract through the factory (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			var id *uint64
			if cmd.Flags().Changed("code-id") {
				id = &codeID
			}
			sender, err := a.requireSender()
			if err != nil {
				return err
			}
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.MigratePair(cmd.Context(), sender, args[0], id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Uint64Var(&codeID, "code-id", 0, "target code id (default: the configured pair template)")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Re-run the factory's migration entry point (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := opts.app
			sender, err := a.requireSender()
			if err != nil {
				return err
			}
			addr, err := a.rt.Lookup(cmd.Context(), a.cfg.Factory.Label)
			if err != nil {
				return err
			}
			res, err := a.rt.Migrate(cmd.Context(), sender, addr, factoryCodeID, []byte(`{}`))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), version.Info())
		},
	}
}

func parseAssets(args []string) ([2]model.AssetInfo, error) {
	if len(args) != 2 {
		return [2]model.AssetInfo{}, fmt.Errorf("want two assets, got %d", len(args))
	}
	var assets [2]model.AssetInfo
	for i, arg := range args {
		a, err := model.ParseAssetInfo(arg)
		if err != nil {
			return [2]model.AssetInfo{}, err
		}
		assets[i] = a
	}
	return assets, nil
}
