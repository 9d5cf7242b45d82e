package notifier

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/screwyprof/sortition/pkg/opensea"
)

// EtherSymbol follows every formatted amount
const EtherSymbol = "Ξ"

// weiExponent shifts wei into ether
const weiExponent = -18

// Sale is the record handed to a Sink
type Sale struct {
	Name               string
	URL                string
	ImageURL           string
	CollectionImageURL string
	Amount             decimal.Decimal // ether
	Buyer              string
	Seller             string
	Timestamp          time.Time
}

// Title is the headline of the notification
func (s Sale) Title() string {
	return s.Name + " sold!"
}

// AmountText formats the amount in ether, e.g. "1.5Ξ"
func (s Sale) AmountText() string {
	return s.Amount.String() + EtherSymbol
}

// NewSale converts an API sale; a missing price counts as zero
func NewSale(ev opensea.AssetEvent) (Sale, error) {
	amount := decimal.Zero
	if ev.TotalPrice != "" {
		wei, err := decimal.NewFromString(ev.TotalPrice)
		if err != nil {
			return Sale{}, fmt.Errorf("%w: total_price %q: %w", ErrInvalidSale, ev.TotalPrice, err)
		}
		if wei.IsNegative() {
			return Sale{}, fmt.Errorf("%w: total_price %q is negative", ErrInvalidSale, ev.TotalPrice)
		}
		amount = wei.Shift(weiExponent)
	}

	return Sale{
		Name:               ev.Asset.Name,
		URL:                ev.Asset.Permalink,
		ImageURL:           ev.Asset.ImageURL,
		CollectionImageURL: ev.Asset.Collection.ImageURL,
		Amount:             amount,
		Buyer:              ev.WinnerAccount.AddressOrEmpty(),
		Seller:             ev.Seller.AddressOrEmpty(),
		Timestamp:          ev.CreatedDate.Time,
	}, nil
}
