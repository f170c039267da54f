package main

import (
	"github.com/asdine/storm/v3"
	"github.com/openactuator/motorkit/rig"
)

func openDb(dbFile string) (db *storm.DB, err error) {
	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&User{}); err != nil {
		return nil, err
	}
	if err := db.Init(&ServoCalibration{}); err != nil {
		return nil, err
	}

	return
}

// ServoCalibration is a persisted pulse width calibration for a named servo.
// Saved over the API and replayed onto the rig at boot, so a measured
// end-stop range survives restarts without editing the rig config.
type ServoCalibration struct {
	Name           string `storm:"id"`
	MinPulse       int
	MaxPulse       int
	ActuationRange float64
}

func applyCalibrations(db *storm.DB, device rig.Device) error {
	var cals []ServoCalibration
	if err := db.All(&cals); err != nil {
		return err
	}

	for _, cal := range cals {
		// calibrations may outlive the servo they were measured on
		if err := device.CalibrateServo(cal.Name, cal.MinPulse, cal.MaxPulse, cal.ActuationRange); err != nil {
			continue
		}
	}
	return nil
}
