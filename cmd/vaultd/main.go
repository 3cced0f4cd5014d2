// Command vaultd wires the Token Registry, Commitment Ledger and
// Attestation Engine to a durable store and runs until signaled, the way
// the teacher's cmd/consensusd wires its engines to storage and blocks on
// signal. It exists to exercise the ambient stack (config, logging,
// metrics, storage) end to end; it is not itself a spec.md module, and
// carries no RPC/CLI surface of its own (spec.md's Non-goals exclude that).
package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"nhbchain/assets"
	"nhbchain/config"
	"nhbchain/crypto"
	nativecommon "nhbchain/native/common"
	"nhbchain/native/attestation"
	"nhbchain/native/commitment"
	"nhbchain/native/token"
	"nhbchain/observability/logging"
	"nhbchain/observability/metrics"
	"nhbchain/state"
	"nhbchain/storage"
	"nhbchain/wire"
)

func main() {
	configFile := flag.String("config", "./vaultd.toml", "Path to the configuration file")
	logFile := flag.String("log-file", "", "Path to a rotated log file; stdout when empty")
	memOnly := flag.Bool("mem", false, "Use an in-memory store instead of LevelDB (development only)")
	flag.Parse()

	logger := logging.Setup("vaultd", strings.TrimSpace(os.Getenv("VAULT_ENV")))
	if *logFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     28,
			Compress:   true,
		}
		logger = slog.New(slog.NewJSONHandler(rotating, nil))
		slog.SetDefault(logger)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	store, err := openStore(cfg, *memOnly)
	if err != nil {
		logger.Error("failed to open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	mgr := state.NewManager(store)
	transferer := assets.NewMemLedger()
	pauses := nativecommon.NewGlobalPause(cfg.Paused)

	registry := token.NewRegistry(mgr)
	registry.SetPauses(pauses)

	self := crypto.MustNewAddress(crypto.VaultPrefix, make([]byte, 20))
	custody := crypto.MustNewAddress(crypto.VaultPrefix, bytesWithLast(1))
	ledger := commitment.NewLedger(mgr.ForLedger(), registry, transferer, self, custody)
	ledger.SetPauses(pauses)

	engine := attestation.NewEngine(mgr.ForAttestation(), ledger, transferer)
	engine.SetPauses(pauses)

	if admin, ok, err := cfg.AdminAddress(); err != nil {
		logger.Error("invalid admin address in configuration", "err", err)
		os.Exit(1)
	} else if ok {
		if err := registry.Initialize(admin); err != nil && err != token.ErrAlreadyInitialized {
			logger.Error("failed to initialize token registry", "err", wire.Resolve(err))
			os.Exit(1)
		}
		if err := ledger.Initialize(admin, admin); err != nil && err != commitment.ErrAlreadyInitialized {
			logger.Error("failed to initialize commitment ledger", "err", wire.Resolve(err))
			os.Exit(1)
		}
		if core, ok, err := cfg.CoreContractAddress(); err == nil && ok {
			if err := registry.SetCoreContract(admin, core); err != nil {
				logger.Warn("failed to bind core contract", "err", wire.Resolve(err))
			}
		}
		if err := engine.Initialize(admin, admin); err != nil && err != attestation.ErrAlreadyInitialized {
			logger.Error("failed to initialize attestation engine", "err", wire.Resolve(err))
			os.Exit(1)
		}
		if feeAsset, hasAsset, err := cfg.FeeAssetAddress(); err == nil {
			if feeRecipient, hasRecipient, err := cfg.FeeRecipientAddress(); err == nil {
				fee := cfg.AttestationFeeAmount()
				if fee.Sign() > 0 {
					if err := engine.SetFeeConfig(admin, feeAsset, hasAsset, feeRecipient, hasRecipient, fee); err != nil {
						logger.Warn("failed to set attestation fee", "err", err)
					}
				}
			}
		}
	} else {
		logger.Warn("no Admin configured; engines will remain uninitialized until Initialize is called out of band")
	}

	reg := metrics.Vault()
	refreshMetrics(reg, registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.ListenAddress, Handler: mux}
	go func() {
		logger.Info("metrics server listening", "addr", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	_ = server.Close()
}

func openStore(cfg *config.Config, memOnly bool) (storage.Store, error) {
	if memOnly {
		return storage.NewMemDB(), nil
	}
	return storage.NewLevelDB(cfg.DataDir)
}

func refreshMetrics(m *metrics.VaultMetrics, registry *token.Registry) {
	supply, err := registry.TotalSupply()
	if err != nil {
		return
	}
	m.SetTotalSupply(float64(supply))
}

func bytesWithLast(b byte) []byte {
	buf := make([]byte, 20)
	buf[19] = b
	return buf
}
