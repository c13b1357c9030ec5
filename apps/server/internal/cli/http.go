package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newHealthCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := get(cfg, "/health")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
			return nil
		},
	}
}

func newRoundsCmd(cfg *Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rounds <player-id>",
		Short: "Show a player's recently settled rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid player id: %w", err)
			}
			q := url.Values{}
			q.Set("player_id", playerID.String())
			q.Set("limit", strconv.Itoa(limit))

			body, err := get(cfg, "/api/rounds/recent?"+q.Encode())
			if err != nil {
				return err
			}

			var resp struct {
				Items []struct {
					TableID     string   `json:"table_id"`
					Round       uint32   `json:"round"`
					Bet         float64  `json:"bet"`
					Payout      float64  `json:"payout"`
					Outcome     string   `json:"outcome"`
					Hand        []string `json:"hand"`
					HandValue   int      `json:"hand_value"`
					DealerValue int      `json:"dealer_value"`
				} `json:"items"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, it := range resp.Items {
				fmt.Fprintf(out, "%s #%d  %-7s bet=%g payout=%g  %s (%d) vs dealer %d\n",
					it.TableID, it.Round, it.Outcome, it.Bet, it.Payout,
					strings.Join(it.Hand, " "), it.HandValue, it.DealerValue)
			}
			if len(resp.Items) == 0 {
				fmt.Fprintln(out, "no rounds recorded")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rounds to show")
	return cmd
}

func get(cfg *Config, path string) ([]byte, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	resp, err := client.Get(strings.TrimSuffix(cfg.ServerURL, "/") + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}
