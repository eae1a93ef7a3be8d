package referral

import (
	"fmt"
	"time"
)

// Config holds the referral program parameters.
type Config struct {
	// LevelBasisPoints[i] is paid to the (i+1)-th ancestor; its length is the depth cap.
	LevelBasisPoints []int64
	// AtomicChain applies all credits of one purchase in a single transaction.
	AtomicChain bool
}

// DefaultConfig returns the 5/3/1 percent, three level program.
func DefaultConfig() Config {
	bps := make([]int64, len(DefaultLevelBasisPoints))
	copy(bps, DefaultLevelBasisPoints)
	return Config{LevelBasisPoints: bps}
}

func (c Config) clone() Config {
	bps := make([]int64, len(c.LevelBasisPoints))
	copy(bps, c.LevelBasisPoints)
	c.LevelBasisPoints = bps
	return c
}

// MaxLevels is the number of ancestor links the walk may visit.
func (c Config) MaxLevels() int {
	return len(c.LevelBasisPoints)
}

func (c Config) Validate() error {
	if len(c.LevelBasisPoints) == 0 {
		return fmt.Errorf("%w: no levels configured", ErrInvalidConfig)
	}
	for i, bp := range c.LevelBasisPoints {
		if bp < 0 || bp > BasisPointsDivisor {
			return fmt.Errorf("%w: level %d has %d basis points", ErrInvalidConfig, i, bp)
		}
	}
	return nil
}

// Credit is one cashback payment to an ancestor.
type Credit struct {
	Level   int    `json:"level"`
	PayeeID string `json:"payee_id"`
	Amount  int64  `json:"amount"`
}

// Result summarises a chain walk.
type Result struct {
	BuyerID        string   `json:"buyer_id"`
	PurchaseAmount int64    `json:"purchase_amount"`
	LinksVisited   int      `json:"links_visited"`
	Credits        []Credit `json:"credits"`
	TotalCredited  int64    `json:"total_credited"`
	StopReason     string   `json:"stop_reason"`
	Applied        bool     `json:"applied"`
}

// MetricsCollector defines the interface for collecting referral metrics
type MetricsCollector interface {
	RecordComputation(result string, duration time.Duration)
	RecordCredit(level int, amount int64)
	RecordSkippedLink(level int)
	RecordCycle()
}
