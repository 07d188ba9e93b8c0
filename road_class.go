package monad

// RoadClass is the rank of an accepted `highway` value. Lower rank means higher priority road.
type RoadClass uint16

const (
	ROAD_MOTORWAY = RoadClass(iota)
	ROAD_MOTORWAY_LINK
	ROAD_TRUNK
	ROAD_TRUNK_LINK
	ROAD_PRIMARY
	ROAD_PRIMARY_LINK
	ROAD_SECONDARY
	ROAD_SECONDARY_LINK
	ROAD_TERTIARY
	ROAD_TERTIARY_LINK
	ROAD_UNCLASSIFIED
	ROAD_RESIDENTIAL
	ROAD_SERVICE
)

func (iotaIdx RoadClass) String() string {
	if int(iotaIdx) >= len(busRoadTypes) {
		return "undefined"
	}
	return busRoadTypes[iotaIdx]
}

// Rank returns numeric rank used by cost model
func (iotaIdx RoadClass) Rank() int {
	return int(iotaIdx)
}

var (
	// busRoadTypes are `highway` values a bus can drive on, in priority order
	busRoadTypes = [...]string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "unclassified", "residential", "service"}

	roadClassByHighway = map[string]RoadClass{
		"motorway":       ROAD_MOTORWAY,
		"motorway_link":  ROAD_MOTORWAY_LINK,
		"trunk":          ROAD_TRUNK,
		"trunk_link":     ROAD_TRUNK_LINK,
		"primary":        ROAD_PRIMARY,
		"primary_link":   ROAD_PRIMARY_LINK,
		"secondary":      ROAD_SECONDARY,
		"secondary_link": ROAD_SECONDARY_LINK,
		"tertiary":       ROAD_TERTIARY,
		"tertiary_link":  ROAD_TERTIARY_LINK,
		"unclassified":   ROAD_UNCLASSIFIED,
		"residential":    ROAD_RESIDENTIAL,
		"service":        ROAD_SERVICE,
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Key:oneway
	onewayValues = map[string]struct{}{
		"yes":  {},
		"true": {},
		"1":    {},
	}
)

// getRoadClass returns road class for given `highway` tag value and false if buses are not routed over it
func getRoadClass(highway string) (RoadClass, bool) {
	class, ok := roadClassByHighway[highway]
	return class, ok
}

// isOneway checks `oneway` tag value
func isOneway(value string) bool {
	_, ok := onewayValues[value]
	return ok
}
