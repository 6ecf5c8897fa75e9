package profile

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	wallTimeRe = regexp.MustCompile(`^(?:(\d+)-)?(\d+):([0-5]\d):([0-5]\d)$`)
	memoryRe   = regexp.MustCompile(`^(\d+)\s*([KMGTkmgt])?[Bb]?$`)
)

// ParseWallTime parses "HH:MM:SS" or "D-HH:MM:SS". Hours may exceed 23 in
// the first form.
func ParseWallTime(s string) (time.Duration, error) {
	m := wallTimeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("wall time %q: want HH:MM:SS or D-HH:MM:SS", s)
	}
	var fields [4]int64
	for i, raw := range m[1:] {
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("wall time %q is too large", s)
		}
		fields[i] = n
	}
	if m[1] != "" && fields[1] > 23 {
		return 0, fmt.Errorf("wall time %q: hours must be below 24 when days are given", s)
	}

	// Sum in seconds, refusing anything a time.Duration cannot hold.
	const maxSeconds = math.MaxInt64 / int64(time.Second)
	var secs int64
	for i, unit := range [4]int64{24 * 3600, 3600, 60, 1} {
		if fields[i] > (maxSeconds-secs)/unit {
			return 0, fmt.Errorf("wall time %q is too large", s)
		}
		secs += fields[i] * unit
	}
	total := time.Duration(secs) * time.Second
	if total <= 0 {
		return 0, fmt.Errorf("wall time %q must be positive", s)
	}
	return total, nil
}

// FormatWallTime renders d as HH:MM:SS, truncated to whole seconds.
func FormatWallTime(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// Memory is a memory request in scheduler notation.
type Memory struct {
	Value int64
	// Unit is one of K, M, G, T.
	Unit byte
}

var errNonPositiveMemory = errors.New("memory must be positive")

// ParseMemory parses "4G", "512M", "4GB", or a bare number of megabytes.
func ParseMemory(s string) (Memory, error) {
	m := memoryRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Memory{}, fmt.Errorf("memory %q: want <integer>[K|M|G|T]", s)
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Memory{}, fmt.Errorf("memory %q: %w", s, err)
	}
	if v <= 0 {
		return Memory{}, fmt.Errorf("memory %q: %w", s, errNonPositiveMemory)
	}
	unit := byte('M')
	if m[2] != "" {
		unit = strings.ToUpper(m[2])[0]
	}
	mem := Memory{Value: v, Unit: unit}
	if v > math.MaxInt64>>mem.shift() {
		return Memory{}, fmt.Errorf("memory %q is too large", s)
	}
	return mem, nil
}

// Bytes converts the request to bytes using binary multiples.
func (m Memory) Bytes() int64 {
	return m.Value << m.shift()
}

func (m Memory) shift() uint {
	switch m.Unit {
	case 'K':
		return 10
	case 'M':
		return 20
	case 'G':
		return 30
	case 'T':
		return 40
	}
	return 0
}

// String renders the canonical form, e.g. "4G".
func (m Memory) String() string {
	return strconv.FormatInt(m.Value, 10) + string(m.Unit)
}
