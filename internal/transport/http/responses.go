package httptransport

import (
	"time"

	"custodia/internal/audit"
	"custodia/internal/vault"
)

type vaultResponse struct {
	Address       string            `json:"address"`
	Owner         string            `json:"owner"`
	UnlockTime    uint64            `json:"unlock_time"`
	Locked        bool              `json:"locked"`
	NativeBalance uint64            `json:"native_balance"`
	TokenBalances map[string]uint64 `json:"token_balances,omitempty"`
}

func newVaultResponse(snap *vault.Snapshot) vaultResponse {
	resp := vaultResponse{
		Address:       snap.Address.String(),
		Owner:         snap.Owner.String(),
		UnlockTime:    snap.UnlockTime,
		Locked:        snap.Locked,
		NativeBalance: snap.NativeBalance,
	}
	if len(snap.TokenBalances) > 0 {
		resp.TokenBalances = make(map[string]uint64, len(snap.TokenBalances))
		for token, balance := range snap.TokenBalances {
			resp.TokenBalances[token.String()] = balance
		}
	}
	return resp
}

type deployResponse struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
}

type eventResponse struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	Kind          string `json:"kind"`
	ActingOwner   string `json:"acting_owner"`
	Asset         string `json:"asset,omitempty"`
	Amount        uint64 `json:"amount"`
	OldUnlockTime uint64 `json:"old_unlock_time"`
	NewUnlockTime uint64 `json:"new_unlock_time"`
}

func newEventResponses(events []audit.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		resp := eventResponse{
			ID:          event.ID.String(),
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339Nano),
			Kind:        string(event.Kind),
			ActingOwner: event.ActingOwner.String(),
		}
		switch event.Kind {
		case audit.KindWithdraw:
			resp.Asset = event.Asset.String()
			resp.Amount = event.Amount
		case audit.KindTimeLock:
			resp.OldUnlockTime = event.OldUnlockTime
			resp.NewUnlockTime = event.NewUnlockTime
		}
		out = append(out, resp)
	}
	return out
}

type certificateResponse struct {
	Vault  string `json:"vault"`
	Holder string `json:"holder"`
}
