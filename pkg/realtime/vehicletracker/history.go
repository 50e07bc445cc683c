package vehicletracker

import (
	"time"

	"github.com/travigo/livetracker/pkg/ctdf"
)

// UpdateHistory folds a new sample into the history of a vehicle. The history
// only shifts when the new sample is at least minimumAgeDelta newer than the
// current one, a short time delta makes the extrapolation jumpy.
func UpdateHistory(history *ctdf.VehicleHistory, sample ctdf.VehicleSample, minimumAgeDelta time.Duration) (bool, string) {
	ageDelta := sample.ObservedAt.Sub(history.Current.ObservedAt)

	if ageDelta >= minimumAgeDelta {
		history.Previous = history.Current
		history.Current = sample

		return true, "shifted"
	}

	// Never let current move back in time
	if ageDelta < 0 {
		return false, "older_sample"
	}

	history.Current = sample

	return true, "replaced_current"
}
