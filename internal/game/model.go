package game

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

const (
	SpinShapePerMultiplier = 1.2
	SpinScale              = 50.0

	SacrificeSpins   = int64(10)
	SacrificeDivisor = int64(1000)

	WorkMinCredits = int64(50)
	WorkMaxCredits = int64(200)

	LeaderboardSize = 10
	MaxItemNameLen  = 100
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrPersistence       = errors.New("persistence failure")
)

// MaxSpinReward is 10^27 - 1, the largest amount a single spin can pay out.
var MaxSpinReward = Credits{v: new(big.Int).Sub(new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil), big.NewInt(1))}

// Credits is an immutable arbitrary precision balance. The zero value is 0.
type Credits struct {
	v *big.Int
}

func NewCredits(n int64) Credits {
	return Credits{v: big.NewInt(n)}
}

// ParseCredits accepts plain digits with optional "_" or "," separators.
func ParseCredits(s string) (Credits, error) {
	clean := strings.NewReplacer("_", "", ",", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return Credits{}, fmt.Errorf("%w: amount is required", ErrInvalidArgument)
	}
	v, ok := new(big.Int).SetString(clean, 10)
	if !ok {
		return Credits{}, fmt.Errorf("%w: %q is not a whole number", ErrInvalidArgument, s)
	}
	return Credits{v: v}, nil
}

func (c Credits) big() *big.Int {
	if c.v == nil {
		return new(big.Int)
	}
	return c.v
}

func (c Credits) Add(o Credits) Credits {
	return Credits{v: new(big.Int).Add(c.big(), o.big())}
}

func (c Credits) Sub(o Credits) Credits {
	return Credits{v: new(big.Int).Sub(c.big(), o.big())}
}

func (c Credits) Cmp(o Credits) int {
	return c.big().Cmp(o.big())
}

func (c Credits) Sign() int {
	return c.big().Sign()
}

// BigInt returns a copy of the underlying value.
func (c Credits) BigInt() *big.Int {
	return new(big.Int).Set(c.big())
}

func (c Credits) String() string {
	return c.big().String()
}

// Comma renders the amount with thousands separators, e.g. 1,234,567.
func (c Credits) Comma() string {
	raw := c.String()
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
	}
	if len(raw) <= 3 {
		return sign + raw
	}
	var b strings.Builder
	head := len(raw) % 3
	if head > 0 {
		b.WriteString(raw[:head])
	}
	for i := head; i < len(raw); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(raw[i : i+3])
	}
	return sign + b.String()
}

func (c Credits) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON reads a JSON number or a quoted number. Fractional values
// written by older tooling are truncated toward zero.
func (c *Credits) UnmarshalJSON(raw []byte) error {
	s := string(bytes.TrimSpace(raw))
	if s == "null" {
		*c = Credits{}
		return nil
	}
	s = strings.Trim(s, `"`)
	if v, ok := new(big.Int).SetString(s, 10); ok {
		c.v = v
		return nil
	}
	f, _, err := big.ParseFloat(s, 10, 256, big.ToZero)
	if err != nil {
		return fmt.Errorf("credits: %q is not a number", s)
	}
	v, _ := f.Int(nil)
	c.v = v
	return nil
}

// creditsFromDraw floors a sampled reward and clamps it to [0, MaxSpinReward].
func creditsFromDraw(x float64) Credits {
	if math.IsNaN(x) || x <= 0 {
		return Credits{}
	}
	if math.IsInf(x, 1) {
		return MaxSpinReward
	}
	v, _ := new(big.Float).SetFloat64(math.Floor(x)).Int(nil)
	out := Credits{v: v}
	if out.Cmp(MaxSpinReward) > 0 {
		return MaxSpinReward
	}
	return out
}

// sacrificeMultiplier is 1 + amount/1000, saturating at math.MaxInt64.
func sacrificeMultiplier(amount Credits) int64 {
	q := new(big.Int).Quo(amount.big(), big.NewInt(SacrificeDivisor))
	q.Add(q, big.NewInt(1))
	if !q.IsInt64() {
		return math.MaxInt64
	}
	return q.Int64()
}

func validateItemName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return "", fmt.Errorf("%w: item name is required", ErrInvalidArgument)
	}
	if len([]rune(clean)) > MaxItemNameLen {
		return "", fmt.Errorf("%w: item name too long (max %d chars)", ErrInvalidArgument, MaxItemNameLen)
	}
	return clean, nil
}

func requirePositive(amount Credits, what string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: %s must be > 0", ErrInvalidArgument, what)
	}
	return nil
}

func requireUser(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	return nil
}
