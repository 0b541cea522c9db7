// api.go - REST API for the pool daemon
//
// Mutating endpoints go through the rate limiter and return the emitted
// fact on success; queries read a consistent pool snapshot.
package main

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"shieldedpool/internal/htlc"
	"shieldedpool/internal/merkletree"
	"shieldedpool/internal/pool"
	"shieldedpool/internal/verifier"
)

// API wires the pool, the swap registry, and daemon plumbing into a router.
type API struct {
	pool    *pool.Pool
	swaps   *htlc.Registry
	limiter *RateLimiter
	metrics *MetricsCollector
	health  *HealthChecker
	log     zerolog.Logger
}

// NewAPI builds the daemon API.
func NewAPI(p *pool.Pool, swaps *htlc.Registry, limiter *RateLimiter, metrics *MetricsCollector, health *HealthChecker, log zerolog.Logger) *API {
	return &API{pool: p, swaps: swaps, limiter: limiter, metrics: metrics, health: health, log: log}
}

// Router builds the chi router for the daemon.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Group(func(r chi.Router) {
		r.Use(a.rateLimit)
		r.Post("/deposit", a.handleDeposit)
		r.Post("/withdraw", a.handleWithdraw)
		r.Post("/transfer", a.handleTransfer)
		r.Post("/swaps", a.handleInitiateSwap)
		r.Post("/swaps/{id}/redeem", a.handleRedeemSwap)
		r.Post("/swaps/{id}/refund", a.handleRefundSwap)
	})

	r.Get("/root", a.handleRoot)
	r.Get("/nullifier/{hex}", a.handleNullifier)
	r.Get("/status", a.handleStatus)
	r.Get("/swaps/{id}", a.handleGetSwap)
	r.Get("/healthz", a.handleHealth)
	r.Get("/metrics", a.handleMetrics)
	return r
}

func (a *API) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type depositRequest struct {
	Commitment common.Hash  `json:"commitment"`
	Amount     *hexutil.Big `json:"amount"`
}

func (a *API) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	ev, err := a.pool.Deposit(req.Commitment, (*big.Int)(req.Amount))
	if err != nil {
		a.metrics.IncrementCounter("deposits_rejected_total")
		writeError(w, statusFor(err), err)
		return
	}
	a.metrics.IncrementCounter("deposits_total")
	a.metrics.ObserveDuration("deposit_seconds", time.Since(start))
	a.metrics.SetGauge("tree_leaves", float64(ev.LeafIndex+1))
	writeJSON(w, http.StatusOK, ev)
}

type withdrawRequest struct {
	Proof     hexutil.Bytes   `json:"proof"`
	Nullifier common.Hash     `json:"nullifier"`
	Recipient common.Address  `json:"recipient"`
	Amount    *hexutil.Big    `json:"amount"`
	Relayer   *common.Address `json:"relayer,omitempty"`
	Fee       *hexutil.Big    `json:"fee,omitempty"`
}

type withdrawResponse struct {
	Withdrawal *pool.WithdrawalEvent `json:"withdrawal"`
	Fee        *pool.FeeEvent        `json:"fee,omitempty"`
}

func (a *API) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	ev, feeEv, err := a.pool.Withdraw(req.Proof, req.Nullifier, req.Recipient, (*big.Int)(req.Amount), req.Relayer, (*big.Int)(req.Fee))
	if err != nil {
		a.metrics.IncrementCounter("withdrawals_rejected_total")
		writeError(w, statusFor(err), err)
		return
	}
	a.metrics.IncrementCounter("withdrawals_total")
	a.metrics.ObserveDuration("withdraw_seconds", time.Since(start))
	writeJSON(w, http.StatusOK, withdrawResponse{Withdrawal: ev, Fee: feeEv})
}

type transferRequest struct {
	Proof          hexutil.Bytes `json:"proof"`
	Nullifier      common.Hash   `json:"nullifier"`
	NewCommitmentA common.Hash   `json:"new_commitment_a"`
	NewCommitmentB common.Hash   `json:"new_commitment_b"`
}

func (a *API) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	ev, err := a.pool.Transfer(req.Proof, req.Nullifier, req.NewCommitmentA, req.NewCommitmentB)
	if err != nil {
		a.metrics.IncrementCounter("transfers_rejected_total")
		writeError(w, statusFor(err), err)
		return
	}
	a.metrics.IncrementCounter("transfers_total")
	a.metrics.ObserveDuration("transfer_seconds", time.Since(start))
	writeJSON(w, http.StatusOK, ev)
}

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"root":       a.pool.Root(),
		"next_index": a.pool.NextIndex(),
	})
}

func (a *API) handleNullifier(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "hex")
	n := common.HexToHash(raw)
	writeJSON(w, http.StatusOK, map[string]any{
		"nullifier": n,
		"spent":     a.pool.IsSpent(n),
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.pool.Stats())
}

type initiateSwapRequest struct {
	Sender    common.Address `json:"sender"`
	Recipient common.Address `json:"recipient"`
	Amount    *hexutil.Big   `json:"amount"`
	Hashlock  common.Hash    `json:"hashlock"`
	Timelock  int64          `json:"timelock"` // unix seconds
}

func (a *API) handleInitiateSwap(w http.ResponseWriter, r *http.Request) {
	var req initiateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := a.swaps.Initiate(req.Sender, req.Recipient, (*big.Int)(req.Amount), req.Hashlock, time.Unix(req.Timelock, 0))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"swap_id": id})
}

type redeemSwapRequest struct {
	Preimage hexutil.Bytes `json:"preimage"`
}

func (a *API) handleRedeemSwap(w http.ResponseWriter, r *http.Request) {
	var req redeemSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := common.HexToHash(chi.URLParam(r, "id"))
	if err := a.swaps.Redeem(id, req.Preimage); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"swap_id": id, "status": htlc.StatusRedeemed})
}

func (a *API) handleRefundSwap(w http.ResponseWriter, r *http.Request) {
	id := common.HexToHash(chi.URLParam(r, "id"))
	if err := a.swaps.Refund(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"swap_id": id, "status": htlc.StatusRefunded})
}

func (a *API) handleGetSwap(w http.ResponseWriter, r *http.Request) {
	id := common.HexToHash(chi.URLParam(r, "id"))
	s, ok := a.swaps.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, htlc.ErrSwapNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"swap":       s,
		"can_redeem": a.swaps.CanRedeem(id),
		"can_refund": a.swaps.CanRefund(id),
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := a.health.Check()
	status := http.StatusOK
	if h.OverallStatus != Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (a *API) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.metrics.Snapshot())
}

// statusFor maps the error taxonomy onto HTTP statuses: validation errors
// are 400, unknown resources 404, state-consistency errors 409,
// everything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pool.ErrZeroAmount),
		errors.Is(err, pool.ErrInvalidRecipient),
		errors.Is(err, pool.ErrInvalidProof),
		errors.Is(err, pool.ErrRelayerNotAllowed),
		errors.Is(err, pool.ErrFeeExceedsAmount),
		errors.Is(err, verifier.ErrInvalidProofLength),
		errors.Is(err, verifier.ErrInvalidPublicInput),
		errors.Is(err, merkletree.ErrLeafOutOfField),
		errors.Is(err, htlc.ErrInvalidTimelock),
		errors.Is(err, htlc.ErrInvalidPreimage),
		errors.Is(err, htlc.ErrZeroAmount):
		return http.StatusBadRequest
	case errors.Is(err, htlc.ErrSwapNotFound):
		return http.StatusNotFound
	case errors.Is(err, pool.ErrNullifierSpent),
		errors.Is(err, merkletree.ErrTreeFull),
		errors.Is(err, htlc.ErrSwapNotActive),
		errors.Is(err, htlc.ErrTimelockNotExpired),
		errors.Is(err, htlc.ErrTimelockExpired):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
