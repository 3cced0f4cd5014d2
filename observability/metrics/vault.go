package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics exposes the vault's own operational counters and gauges,
// grounded on PotsoMetrics's sync.Once-guarded registry pattern.
type VaultMetrics struct {
	totalSupply       prometheus.Gauge
	activeCommitments prometheus.Gauge
	mints             prometheus.Counter
	transfers         prometheus.Counter
	settlements       *prometheus.CounterVec
	attestations      *prometheus.CounterVec
	rateLimited       *prometheus.CounterVec
	complianceScore   *prometheus.GaugeVec
	feesCollected     *prometheus.GaugeVec
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

// Vault returns the process-wide VaultMetrics singleton, registering its
// collectors with the default registry on first use.
func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_token_total_supply",
				Help: "Total number of commitment tokens minted.",
			}),
			activeCommitments: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_commitments_active",
				Help: "Current number of commitments in the active state.",
			}),
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_token_mints_total",
				Help: "Count of tokens minted by the Token Registry.",
			}),
			transfers: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_token_transfers_total",
				Help: "Count of successful token transfers.",
			}),
			settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_commitments_settled_total",
				Help: "Count of commitments resolved, labeled by outcome.",
			}, []string{"outcome"}),
			attestations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_attestations_total",
				Help: "Count of accepted attestations by type.",
			}, []string{"type"}),
			rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_attestations_rate_limited_total",
				Help: "Count of attestation attempts rejected by the per-verifier rate limit.",
			}, []string{"verifier"}),
			complianceScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vault_compliance_score",
				Help: "Most recently computed compliance score per commitment.",
			}, []string{"commitment_id"}),
			feesCollected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "vault_attestation_fees_collected",
				Help: "Cumulative attestation fees collected per asset.",
			}, []string{"asset"}),
		}
		prometheus.MustRegister(
			vaultRegistry.totalSupply,
			vaultRegistry.activeCommitments,
			vaultRegistry.mints,
			vaultRegistry.transfers,
			vaultRegistry.settlements,
			vaultRegistry.attestations,
			vaultRegistry.rateLimited,
			vaultRegistry.complianceScore,
			vaultRegistry.feesCollected,
		)
	})
	return vaultRegistry
}

func (m *VaultMetrics) SetTotalSupply(v float64) {
	if m == nil {
		return
	}
	m.totalSupply.Set(v)
}

func (m *VaultMetrics) SetActiveCommitments(v float64) {
	if m == nil {
		return
	}
	m.activeCommitments.Set(v)
}

func (m *VaultMetrics) IncMint() {
	if m == nil {
		return
	}
	m.mints.Inc()
}

func (m *VaultMetrics) IncTransfer() {
	if m == nil {
		return
	}
	m.transfers.Inc()
}

func (m *VaultMetrics) ObserveSettlement(outcome string) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *VaultMetrics) ObserveAttestation(attestationType string) {
	if m == nil {
		return
	}
	if attestationType == "" {
		attestationType = "unknown"
	}
	m.attestations.WithLabelValues(attestationType).Inc()
}

func (m *VaultMetrics) IncRateLimited(verifier string) {
	if m == nil {
		return
	}
	if verifier == "" {
		verifier = "unknown"
	}
	m.rateLimited.WithLabelValues(verifier).Inc()
}

func (m *VaultMetrics) SetComplianceScore(commitmentID string, score float64) {
	if m == nil {
		return
	}
	m.complianceScore.WithLabelValues(commitmentID).Set(score)
}

func (m *VaultMetrics) SetFeesCollected(asset string, amount float64) {
	if m == nil {
		return
	}
	m.feesCollected.WithLabelValues(asset).Set(amount)
}
