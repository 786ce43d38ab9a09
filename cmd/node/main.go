// Command node runs a single drawchain engine with an in-process staking
// loop. It exists to demonstrate the engine end-to-end; the peer-to-peer
// transport that would let it talk to other nodes is an out-of-scope
// external collaborator and is not implemented here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tolelom/drawchain/config"
	"github.com/tolelom/drawchain/core"
	"github.com/tolelom/drawchain/crypto"
	"github.com/tolelom/drawchain/events"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	numRoots := flag.Int("demo-roots", 4, "number of demo root accounts to generate when no config file exists")
	flag.Parse()

	cfg, rootWallets, err := loadOrBootstrapConfig(*cfgPath, *numRoots)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	roots, err := cfg.RootAccountKeys()
	if err != nil {
		log.Fatalf("root accounts: %v", err)
	}

	genesisSigner, _, err := crypto.GenerateKeyPair(crypto.ProductionBits)
	if err != nil {
		log.Fatalf("generate genesis signer: %v", err)
	}

	bc, err := core.Start(roots, genesisSigner)
	if err != nil {
		log.Fatalf("start engine: %v", err)
	}
	log.Printf("engine started, genesis hash %x", bc.BestHash())

	emitter := events.NewEmitter()
	emitter.Subscribe(events.EventInvariantBreach, func(ev events.Event) {
		log.Printf("FATAL: %v", ev.Data["reason"])
	})
	emitter.Subscribe(events.EventTipChanged, func(ev events.Event) {
		log.Printf("tip changed: %s", ev.Hash)
	})

	if len(rootWallets) == 0 {
		log.Println("no local signing keys available; engine is running read-only")
	}

	slotLength := time.Duration(cfg.SlotLengthMillis) * time.Millisecond
	done := make(chan struct{})
	var wg sync.WaitGroup
	if len(rootWallets) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runStakingLoop(bc, rootWallets[0], emitter, slotLength, done)
		}()
		log.Printf("staking loop running every %s as %s", slotLength, rootWallets[0].pub.Hex())
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("shutting down...")
	close(done)
	wg.Wait()
	log.Println("shutdown complete.")
}

// runStakingLoop attempts to extend the current tip once per slot: it
// requests a draw, checks whether it wins, and if so assembles and
// submits a candidate block. Mirrors a round-robin proposer's ticker
// loop, generalized to a lottery check instead of a fixed schedule.
func runStakingLoop(bc *core.Blockchain, w *walletHandle, emitter *events.Emitter, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var timeslot uint64 = 1

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if halted, reason := bc.Halted(); halted {
				emitter.Emit(events.Event{Type: events.EventInvariantBreach, Data: map[string]any{"reason": reason}})
				return
			}

			draw := bc.CurrentDraw(w.priv, timeslot)
			if !bc.TryStake(draw, w.pub) {
				timeslot++
				continue
			}

			block, err := bc.BuildBlock(draw, w.priv, timeslot)
			if err != nil {
				log.Printf("build block at timeslot %d: %v", timeslot, err)
				timeslot++
				continue
			}

			outcome, err := bc.SubmitBlock(block, timeslot)
			if err != nil {
				log.Printf("submit block at timeslot %d: %v", timeslot, err)
				timeslot++
				continue
			}
			log.Printf("timeslot %d: block %x %s (tip changed: %v)", timeslot, block.Hash, outcome.Result, outcome.TipChanged)
			if outcome.TipChanged {
				emitter.Emit(events.Event{Type: events.EventTipChanged, Hash: fmt.Sprintf("%x", bc.BestHash())})
			}
			timeslot++
		}
	}
}

// walletHandle is the minimal signing identity the staking loop needs:
// the key pair it signs draws and blocks with.
type walletHandle struct {
	priv crypto.PrivateKey
	pub  crypto.PublicKey
}

// loadOrBootstrapConfig loads cfgPath if present, or else generates
// numRoots fresh demo root accounts and writes a config alongside their
// keys (held only in memory — signing-key persistence is out of scope).
func loadOrBootstrapConfig(cfgPath string, numRoots int) (*config.Config, []*walletHandle, error) {
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg, nil, nil
	}

	log.Printf("no config at %s, bootstrapping %d demo root accounts", cfgPath, numRoots)
	cfg := config.DefaultConfig()
	wallets := make([]*walletHandle, 0, numRoots)
	for i := 0; i < numRoots; i++ {
		priv, pub, err := crypto.GenerateKeyPair(crypto.ProductionBits)
		if err != nil {
			return nil, nil, fmt.Errorf("generate root account %d: %w", i, err)
		}
		cfg.RootAccounts = append(cfg.RootAccounts, pub.Hex())
		wallets = append(wallets, &walletHandle{priv: priv, pub: pub})
	}
	if err := config.Save(cfg, cfgPath); err != nil {
		log.Printf("warning: could not persist bootstrap config: %v", err)
	}
	return cfg, wallets, nil
}
