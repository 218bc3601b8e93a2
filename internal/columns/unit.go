package columns

import (
	"fmt"
	"strconv"
)

// Unit is a memory display unit for the vsz and rss columns.
type Unit string

// Supported units, scaled by successive powers of 1024.
const (
	UnitB   Unit = "B"
	UnitKiB Unit = "KiB"
	UnitMiB Unit = "MiB"
	UnitGiB Unit = "GiB"
	UnitTiB Unit = "TiB"
)

var unitScale = map[Unit]float64{
	UnitB:   1,
	UnitKiB: 1024,
	UnitMiB: 1024 * 1024,
	UnitGiB: 1024 * 1024 * 1024,
	UnitTiB: 1024 * 1024 * 1024 * 1024,
}

// ParseUnit validates a unit name from the command line.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := unitScale[u]; !ok {
		return "", fmt.Errorf("unknown memory unit %q (want B, KiB, MiB, GiB or TiB)", s)
	}
	return u, nil
}

// Format renders a byte count in the unit: an integer string for bytes,
// exactly one fractional digit for everything else.
func (u Unit) Format(bytes uint64) string {
	if u == UnitB {
		return strconv.FormatUint(bytes, 10)
	}
	return fmt.Sprintf("%.1f", float64(bytes)/unitScale[u])
}
