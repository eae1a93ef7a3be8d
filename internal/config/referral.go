package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultLevelPercents is the cashback paid to the 1st, 2nd and 3rd ancestor.
const DefaultLevelPercents = "5,3,1"

var ErrInvalidPercent = errors.New("invalid referral percent")

// ReferralSettings is the environment view of the referral program.
type ReferralSettings struct {
	LevelBasisPoints []int64
	AtomicChain      bool
}

// LoadReferralSettings reads REFERRAL_LEVEL_PERCENTS and REFERRAL_ATOMIC_CHAIN.
func LoadReferralSettings() (ReferralSettings, error) {
	bps, err := ParseLevelPercents(GetEnv("REFERRAL_LEVEL_PERCENTS", DefaultLevelPercents))
	if err != nil {
		return ReferralSettings{}, err
	}
	return ReferralSettings{
		LevelBasisPoints: bps,
		AtomicChain:      GetBoolEnv("REFERRAL_ATOMIC_CHAIN", false),
	}, nil
}

// ParseLevelPercents converts "5,3,1" or "2.5,0.75" into basis points.
// At most two decimal places are accepted so every value maps exactly.
func ParseLevelPercents(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		bp, err := percentToBasisPoints(p)
		if err != nil {
			return nil, err
		}
		out = append(out, bp)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no levels in %q", ErrInvalidPercent, raw)
	}
	return out, nil
}

func percentToBasisPoints(s string) (int64, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 || w > 100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
	}
	var f int64
	if hasFrac {
		for len(frac) < 2 {
			frac += "0"
		}
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPercent, s)
		}
	}
	bp := w*100 + f
	if bp > 10000 {
		return 0, fmt.Errorf("%w: %q exceeds 100%%", ErrInvalidPercent, s)
	}
	return bp, nil
}
