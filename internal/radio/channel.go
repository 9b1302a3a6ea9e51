// Package radio maps radio frequencies to Wi-Fi channel numbers.
package radio

const (
	band24Low  = 2400
	band24High = 2500
	band24Base = 2407

	band5Low  = 5000
	band5High = 6000
	band5Base = 5000

	channelSpacingMHz = 5
)

// ChannelOf returns the channel for freqMHz. ok is false when the frequency
// lies outside the 2.4 GHz (2400-2500) and 5 GHz (5000-6000) ranges.
func ChannelOf(freqMHz int) (channel int, ok bool) {
	switch {
	case freqMHz >= band24Low && freqMHz <= band24High:
		return floorDiv(freqMHz-band24Base, channelSpacingMHz), true
	case freqMHz >= band5Low && freqMHz <= band5High:
		return floorDiv(freqMHz-band5Base, channelSpacingMHz), true
	}
	return 0, false
}

// floorDiv rounds toward negative infinity; Go's / truncates toward zero,
// which differs for 2400-2406 MHz.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
