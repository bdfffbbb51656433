package tray

const iconSize = 22

// State represents the tray icon state.
type State int

const (
	StateNormal State = iota
	StateImminent
	StateActive
	StateStale
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateImminent:
		return "imminent"
	case StateActive:
		return "active"
	case StateStale:
		return "stale"
	default:
		return "normal"
	}
}

var pixmaps = map[State][]byte{
	StateNormal:   generatePortalIcon(0xFF5294E2), // Arc blue
	StateImminent: generatePortalIcon(0xFFF27835), // orange
	StateActive:   generatePortalIcon(0xFF3FB950), // green
	StateStale:    generatePortalIcon(0xFFCC575D), // red
}

// generatePortalIcon draws a ring with a diamond core in ARGB32, network byte order.
func generatePortalIcon(ringColor uint32) []byte {
	pixels := make([]byte, iconSize*iconSize*4)

	setPixel := func(x, y int, argb uint32) {
		if x < 0 || x >= iconSize || y < 0 || y >= iconSize {
			return
		}
		i := (y*iconSize + x) * 4
		pixels[i] = byte(argb >> 24)   // A
		pixels[i+1] = byte(argb >> 16) // R
		pixels[i+2] = byte(argb >> 8)  // G
		pixels[i+3] = byte(argb)       // B
	}

	const (
		outlineColor = uint32(0xFF3D3D3D)
		coreColor    = uint32(0xFFF5F5F5)
	)

	// Distances are squared and measured from the pixel center, in half pixels
	// so the 22px grid has a true center.
	const c = iconSize - 1 // center, doubled
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := 2*x-c, 2*y-c
			d := dx*dx + dy*dy
			switch {
			case d <= 19*19 && d > 17*17:
				setPixel(x, y, outlineColor)
			case d <= 17*17 && d > 11*11:
				setPixel(x, y, ringColor)
			case d <= 11*11 && d > 9*9:
				setPixel(x, y, outlineColor)
			}

			// Diamond core
			if abs(dx)+abs(dy) <= 9 {
				setPixel(x, y, coreColor)
			}
		}
	}

	return pixels
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
