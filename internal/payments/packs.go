// Package payments implements the coin top-up rails: Stripe hosted checkout
// and direct Solana transfers confirmed server-side.
package payments

// Pack is a purchasable coin bundle. The table is fixed client-side; the
// backend prices and settles by pack id.
type Pack struct {
	ID       string
	Coins    int
	USDCents int
}

var packs = []Pack{
	{ID: "starter", Coins: 50, USDCents: 99},
	{ID: "standard", Coins: 150, USDCents: 249},
	{ID: "plus", Coins: 400, USDCents: 599},
	{ID: "mega", Coins: 1000, USDCents: 1299},
}

// Packs returns the coin pack table in display order.
func Packs() []Pack {
	return append([]Pack{}, packs...)
}

// FindPack looks up a pack by id.
func FindPack(id string) (Pack, bool) {
	for _, p := range packs {
		if p.ID == id {
			return p, true
		}
	}
	return Pack{}, false
}
