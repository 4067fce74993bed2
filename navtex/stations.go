package navtex

// Transmitter is a coast station with the B1 identities it uses per frequency.
type Transmitter struct {
	Area      int
	Station   string
	Latitude  float64
	Longitude float64
	IDs       map[int64]string
}

// NAVAREA I and II stations.
var Transmitters = []Transmitter{
	{1, "Svalbard", 78.056944, 13.609722, map[int64]string{518000: "A"}},
	{1, "Bodo", 67.266667, 14.383333, map[int64]string{518000: "B"}},
	{1, "Vardo", 70.370889, 31.097389, map[int64]string{518000: "C"}},
	{1, "Torshavn", 62.014944, -6.800056, map[int64]string{518000: "D"}},
	{1, "Niton", 50.586297, -1.254756, map[int64]string{518000: "E", 490000: "I"}},
	{1, "Talinn", 59.4644, 24.357294, map[int64]string{518000: "F"}},
	{1, "Cullercoats", 55.0732, -1.463233, map[int64]string{518000: "G", 490000: "U"}},
	{1, "Bjuroklubb", 64.461639, 21.591833, map[int64]string{518000: "H"}},
	{1, "Grimeton", 57.103056, 12.385556, map[int64]string{518000: "I"}},
	{1, "Gislovshammer", 55.488917, 14.314222, map[int64]string{518000: "J"}},
	{1, "Rogaland", 58.658817, 5.603778, map[int64]string{518000: "L"}},
	{1, "Jeloy", 59.435833, 10.589444, map[int64]string{518000: "M"}},
	{1, "Orlandet", 63.661194, 9.5455, map[int64]string{518000: "N"}},
	{1, "Portpatrick", 54.844044, -5.124478, map[int64]string{518000: "O", 490000: "C"}},
	{1, "Netherlands Coastguard", 52.095128, 4.257975, map[int64]string{518000: "P"}},
	{1, "Malin Head", 55.363278, -7.33925, map[int64]string{518000: "Q"}},
	{1, "Saudanes", 66.18625, -18.951867, map[int64]string{518000: "R", 490000: "E"}},
	{1, "Hamburg", 53.673333, 9.808611, map[int64]string{518000: "S", 490000: "L"}},
	{1, "Oostende", 51.182278, 2.806539, map[int64]string{518000: "T", 490000: "B"}},
	{1, "Valentia", 51.929756, -10.349028, map[int64]string{518000: "W"}},
	{1, "Grindavik", 63.833208, -22.450786, map[int64]string{518000: "X", 490000: "K"}},
	{2, "Cross Corsen", 48.476031, -5.053697, map[int64]string{518000: "A", 490000: "E"}},
	{2, "Coruna", 43.367028, -8.451861, map[int64]string{518000: "D", 490000: "W"}},
	{2, "Horta", 38.529872, -28.628922, map[int64]string{518000: "F", 490000: "J"}},
	{2, "Tarifa", 36.042, -5.556606, map[int64]string{518000: "G", 490000: "T"}},
	{2, "Las Palmas", 27.758522, -15.605361, map[int64]string{518000: "I", 490000: "A"}},
	{2, "Casablanca", 33.6, -7.633333, map[int64]string{518000: "M"}},
	{2, "Porto Santo", 33.066278, -16.355417, map[int64]string{518000: "P"}},
	{2, "Monsanto", 38.731611, -9.190611, map[int64]string{518000: "R", 490000: "G"}},
}

// Station returns the name of the transmitter using id on frequency in area,
// or "" if none is known.
func Station(area int, id string, frequency int64) string {
	for _, t := range Transmitters {
		if id != "" && t.Area == area && t.IDs[frequency] == id {
			return t.Station
		}
	}
	return ""
}
