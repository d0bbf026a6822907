package httptransport

// Request bodies. Addresses and amounts arrive as strings and are parsed at
// this boundary into domain values.

type deployRequest struct {
	// Owner defaults to the authenticated caller when omitted.
	Owner string `json:"owner,omitempty"`
}

type withdrawRequest struct {
	// Asset is a token contract address, or empty/zero for the native asset.
	Asset string `json:"asset,omitempty"`
	// Amount is "all" or a non-negative decimal quantity.
	Amount string `json:"amount"`
}

type timelockRequest struct {
	// UnlockTime is unix seconds; zero clears nothing by itself, it is simply
	// the unlocked state.
	UnlockTime uint64 `json:"unlock_time"`
}

type transferOwnershipRequest struct {
	NewOwner string `json:"new_owner"`
}

type registryTransferRequest struct {
	Registry string `json:"registry"`
}
