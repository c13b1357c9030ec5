package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackjack-lite/apps/server/internal/config"
	"blackjack-lite/apps/server/internal/gateway"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/apps/server/internal/lobby"
	"blackjack-lite/card"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	ledgerService, ledgerMode, err := ledger.NewService(cfg.Ledger)
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer ledgerService.Close()

	shoe := card.NewShoe(cfg.ShoeDecks, cfg.Seed)
	lby := lobby.New(lobby.Config{
		Shoe: shoe.Next,
		OnRoundSettled: func(info lobby.RoundSettledInfo) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := ledgerService.RecordSettlement(ctx, info.TableID, info.Settlement); err != nil {
				log.Printf("[Server] Record %s round settlement failed: %v", info.TableID, err)
			}
		},
	})
	defer lby.Close()

	errs := make(chan error, 64)
	go watchErrors(errs)

	gw, err := gateway.New(cfg.Addr, lby, errs)
	if err != nil {
		log.Fatalf("[Server] Failed to bind %s: %v", cfg.Addr, err)
	}

	router := gw.Router()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	ledger.NewHTTPHandler(ledgerService).RegisterRoutes(router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Shoe: %d decks", cfg.ShoeDecks)
	log.Printf("[Server] Starting WebSocket server on %s", gw.Addr())
	if err := gw.Run(ctx); err != nil {
		log.Fatalf("[Server] Failed to serve: %v", err)
	}
	log.Printf("[Server] Stopped")
}

// watchErrors surfaces worker panics; other faults are already logged by the
// gateway.
func watchErrors(errs <-chan error) {
	for err := range errs {
		var serr *gateway.ServerError
		if errors.As(err, &serr) && serr.Kind == gateway.KindPanic {
			log.Printf("[Server] Connection worker for player %s crashed: %v", serr.PlayerID, serr.Err)
		}
	}
}
