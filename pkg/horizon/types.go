package horizon

// Account is the subset of the account record the gateway consumes.
type Account struct {
	ID       string    `json:"id"`
	Sequence int64     `json:"sequence,string"`
	Balances []Balance `json:"balances"`
}

// Balance is one entry of an account's balance list.
type Balance struct {
	AssetType   string `json:"asset_type"`
	AssetCode   string `json:"asset_code,omitempty"`
	AssetIssuer string `json:"asset_issuer,omitempty"`
	Balance     string `json:"balance"`
}

// AssetBalance returns the decimal balance string held for the given issuer
// address, or "0" if the account holds none. Native and pool-share entries
// are skipped.
func (a *Account) AssetBalance(issuer string) string {
	for _, b := range a.Balances {
		if b.AssetType == "native" || b.AssetType == "liquidity_pool_shares" {
			continue
		}
		if b.AssetIssuer == issuer {
			return b.Balance
		}
	}
	return "0"
}

type problemResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}
