// Command devtoken mints bearer tokens for local calls against the API.
//
//	devtoken mint --caller 0xabc... --ttl 1h
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"cdp-ledger/internal/auth"
	"cdp-ledger/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "devtoken",
		Short:        "Development helpers for the cdp-ledger API",
		SilenceUsage: true,
	}
	root.AddCommand(newMintCmd())
	return root
}

func newMintCmd() *cobra.Command {
	var (
		caller string
		ttl    time.Duration
		secret string
		issuer string
	)
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Print an HS256 token whose subject is --caller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(caller) {
				return fmt.Errorf("--caller %q is not an account address", caller)
			}
			cfg := config.Load()
			if secret == "" {
				secret = cfg.JWTSecret
			}
			if issuer == "" {
				issuer = cfg.JWTIssuer
			}
			if secret == "" {
				return errors.New("no signing key: set JWT_SECRET or pass --secret")
			}
			tok, err := auth.NewJWTManager(issuer, secret).Mint(common.HexToAddress(caller), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "account address placed in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&secret, "secret", "", "signing key (defaults to JWT_SECRET)")
	cmd.Flags().StringVar(&issuer, "issuer", "", "issuer claim (defaults to JWT_ISSUER)")
	_ = cmd.MarkFlagRequired("caller")
	return cmd
}
