package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/blackjack"
)

const playHelp = `commands:
  hit | h            draw a card
  stand | s          end your turn
  double | d         double the bet, take one card, stand
  add <amount>       add chips to your balance
  bet <amount>       place the starting bet for the round
  quit | q           disconnect`

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Join the waiting room and play interactively",
		Long:  "Connect over WebSocket, then type actions on stdin.\n\n" + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return play(ctx, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func wsURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	return u.String(), nil
}

func play(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	target, err := wsURL(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = cfg.Timeout
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer conn.Close()

	fmt.Fprintf(out, "connected to %s, waiting for a table\n%s\n", target, playHelp)

	readErr := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			events, err := codec.DecodeEvents(data)
			if err != nil {
				fmt.Fprintf(out, "! bad frame: %v\n", err)
				continue
			}
			for _, e := range events {
				fmt.Fprintln(out, FormatEvent(e))
			}
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			action, err := ParseCommand(line)
			if errors.Is(err, errQuit) {
				return conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			}
			if errors.Is(err, errEmpty) {
				continue
			}
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
				continue
			}
			data, err := codec.EncodeAction(action)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

var (
	errQuit  = errors.New("quit")
	errEmpty = errors.New("empty command")
)

// ParseCommand turns one line of user input into an action.
func ParseCommand(line string) (blackjack.Action, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return blackjack.Action{}, errEmpty
	}

	switch fields[0] {
	case "hit", "h":
		return blackjack.Hit(), nil
	case "stand", "s":
		return blackjack.Stand(), nil
	case "double", "d":
		return blackjack.Double(), nil
	case "quit", "q", "exit":
		return blackjack.Action{}, errQuit
	case "add", "bet":
		if len(fields) != 2 {
			return blackjack.Action{}, fmt.Errorf("usage: %s <amount>", fields[0])
		}
		amount, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return blackjack.Action{}, fmt.Errorf("invalid amount %q", fields[1])
		}
		if fields[0] == "add" {
			return blackjack.AddMoney(blackjack.Chips(amount)), nil
		}
		return blackjack.StartingBet(blackjack.Chips(amount)), nil
	default:
		return blackjack.Action{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

// FormatEvent renders one event as a line of text.
func FormatEvent(e blackjack.ClientEvent) string {
	switch e.Type {
	case blackjack.EventCardRevealed:
		if e.Origin.Dealer {
			return fmt.Sprintf("dealer   <- %s", e.Card)
		}
		return fmt.Sprintf("%s <- %s", shortID(e.Origin.Player), e.Card)
	case blackjack.EventBetting:
		return fmt.Sprintf("%s bets %g", shortID(e.Player), float64(e.Amount))
	case blackjack.EventPlayerRoundOver:
		return "-- turn over"
	case blackjack.EventRoundOver:
		return "== round over"
	default:
		return e.Type.String()
	}
}

func shortID(id blackjack.PlayerID) string {
	return id.String()[:8]
}
