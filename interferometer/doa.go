package interferometer

import "math"

// Bearing is the direction of arrival derived from a phase difference. The
// two element baseline cannot tell which side a signal is on, so two
// azimuths are given.
type Bearing struct {
	// DOA is the angle between the baseline and the signal, 0 to 180 degrees.
	DOA        float64
	PosAzimuth float64
	NegAzimuth float64
	// BlindAngle is the angle from the baseline inside which phase wraps
	// make the bearing ambiguous.
	BlindAngle float64
}

// ComputeBearing converts phase, in radians, to a bearing for antennas
// distance wavelengths apart on a baseline pointing at azimuth degrees.
func ComputeBearing(phase, azimuth, distance float64) Bearing {
	cosTheta := phase / (2 * math.Pi * distance)
	cosTheta = max(-1, min(1, cosTheta))
	doa := math.Acos(cosTheta) * 180 / math.Pi
	var blind float64
	if distance > 0.5 {
		blind = math.Acos(0.5/distance) * 180 / math.Pi
	}
	return Bearing{
		DOA:        doa,
		PosAzimuth: normalizeAngle(azimuth - doa),
		NegAzimuth: normalizeAngle(azimuth + doa),
		BlindAngle: blind,
	}
}

// PhaseForDOA is the inverse of ComputeBearing: the phase in radians seen for
// a signal doa degrees off the baseline.
func PhaseForDOA(doa, distance float64) float64 {
	return 2 * math.Pi * distance * math.Cos(doa*math.Pi/180)
}

func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
