package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var coinRegex = regexp.MustCompile(`^([0-9]+)([a-zA-Z][a-zA-Z0-9/:._-]{1,127})$`)

// Coin is an amount of a single denomination. Amounts are encoded as decimal
// strings on the wire so large values survive JSON clients.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount,string"`
}

// NewCoin returns a Coin of amount in denom.
func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: amount}
}

func (c Coin) String() string {
	return fmt.Sprintf("%d%s", c.Amount, c.Denom)
}

// IsEqual reports whether both coins have the same denomination and amount.
func (c Coin) IsEqual(other Coin) bool {
	return c.Denom == other.Denom && c.Amount == other.Amount
}

// ValidateBasic checks that the denomination is set and the amount is positive.
func (c Coin) ValidateBasic() error {
	if strings.TrimSpace(c.Denom) == "" {
		return fmt.Errorf("%w: coin denomination is empty", ErrMalformedInput)
	}
	if c.Amount == 0 {
		return fmt.Errorf("%w: coin amount must be positive", ErrMalformedInput)
	}
	return nil
}

// Coins is the set of funds attached to a request.
type Coins []Coin

func (cs Coins) String() string {
	if len(cs) == 0 {
		return ""
	}
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// ValidateBasic validates every coin and rejects repeated denominations.
func (cs Coins) ValidateBasic() error {
	seen := make(map[string]struct{}, len(cs))
	for _, c := range cs {
		if err := c.ValidateBasic(); err != nil {
			return err
		}
		if _, ok := seen[c.Denom]; ok {
			return fmt.Errorf("%w: denomination %s declared twice", ErrMalformedInput, c.Denom)
		}
		seen[c.Denom] = struct{}{}
	}
	return nil
}

// Settles reports whether the coins pay price exactly: a single coin of the
// same denomination and amount. Partial payment, overpayment and extra
// denominations never settle.
func (cs Coins) Settles(price Coin) bool {
	return len(cs) == 1 && cs[0].IsEqual(price)
}

// ParseCoin parses a coin written as amount followed by denomination, e.g.
// "100iris".
func ParseCoin(s string) (Coin, error) {
	m := coinRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Coin{}, fmt.Errorf("%w: invalid coin expression %q", ErrMalformedInput, s)
	}
	amount, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return Coin{}, fmt.Errorf("%w: coin amount %q: %v", ErrMalformedInput, m[1], err)
	}
	coin := NewCoin(m[2], amount)
	return coin, coin.ValidateBasic()
}

// ParseCoins parses a comma separated list of coins. An empty string yields
// no coins.
func ParseCoins(s string) (Coins, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var coins Coins
	for _, part := range strings.Split(s, ",") {
		coin, err := ParseCoin(part)
		if err != nil {
			return nil, err
		}
		coins = append(coins, coin)
	}
	return coins, coins.ValidateBasic()
}
