package monad

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DEFAULT_STANDARD_SPEED is the speed (km/h) of road which has no `maxspeed` tag
	DEFAULT_STANDARD_SPEED = 50.0
	mphToKmh               = 1.609344
)

var (
	plainSpeedRegExp = regexp.MustCompile(`^\d+\.?\d*$`)
	mphRegExp        = regexp.MustCompile(`^(\d+\.?\d*)\s*mph$`)
	kmhRegExp        = regexp.MustCompile(`^(\d+\.?\d*)\s*(km/h|kmh|kph)$`)
)

// parseMaxSpeed converts `maxspeed` tag value into km/h.
// Returns false if value can't be interpreted as positive speed (e.g. 'none', 'signals', 'RU:urban').
func parseMaxSpeed(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	var speed float64
	var err error
	switch {
	case plainSpeedRegExp.MatchString(value):
		speed, err = strconv.ParseFloat(value, 64)
	case kmhRegExp.MatchString(value):
		speed, err = strconv.ParseFloat(kmhRegExp.FindStringSubmatch(value)[1], 64)
	case mphRegExp.MatchString(value):
		speed, err = strconv.ParseFloat(mphRegExp.FindStringSubmatch(value)[1], 64)
		speed *= mphToKmh
	default:
		return 0, false
	}
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed, true
}
