package admin

import (
	"fmt"
	"time"

	"github.com/atlas-learn/atlasai/internal/config"
	"github.com/atlas-learn/atlasai/internal/service"
	"github.com/spf13/cobra"
)

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Long:  "Mint a signed bearer token for the given user id, for local development and scripted API access",
		RunE:  runToken,
	}

	cmd.Flags().StringP("user", "u", "", "User id to embed in the token (required)")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	userID, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := service.NewJWTService(cfg.JWTSecret).Issue(userID, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
