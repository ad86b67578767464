package types

// Effect is an instruction for the host to move funds or asset custody. The
// engine only describes effects; executing them atomically with the state
// write is the host's job. The set is closed: TransferFunds, MintAsset and
// TransferAsset.
type Effect interface {
	// Order returns the id of the order the effect settles.
	Order() uint64

	isEffect()
}

// TransferFunds pays Amount out of contract custody to To.
type TransferFunds struct {
	OrderID uint64
	To      string
	Amount  Coin
}

// MintAsset registers Asset with the registry under contract custody.
type MintAsset struct {
	OrderID uint64
	Asset   AssetRef
	Name    string
	URI     string
	Data    string
}

// TransferAsset moves custody of Asset from the contract to To.
type TransferAsset struct {
	OrderID uint64
	Asset   AssetRef
	To      string
}

func (e TransferFunds) Order() uint64 { return e.OrderID }
func (e MintAsset) Order() uint64     { return e.OrderID }
func (e TransferAsset) Order() uint64 { return e.OrderID }

func (TransferFunds) isEffect() {}
func (MintAsset) isEffect()     {}
func (TransferAsset) isEffect() {}
