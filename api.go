package main

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/openactuator/motorkit/comms"
)

//---
// Payloads
//---

type ThrottlePayload struct {
	Throttle float64 `json:"throttle"`
}

func (p *ThrottlePayload) Bind(r *http.Request) error {
	return nil
}

type AnglePayload struct {
	Angle float64 `json:"angle"`
}

func (p *AnglePayload) Bind(r *http.Request) error {
	return nil
}

type StepPayload struct {
	Count int    `json:"count"`
	Style string `json:"style,omitempty"`
}

func (p *StepPayload) Bind(r *http.Request) error {
	return nil
}

type StepResult struct {
	Microstep int `json:"microstep"`
}

type CalibrationPayload struct {
	MinPulse       int     `json:"min_pulse"`
	MaxPulse       int     `json:"max_pulse"`
	ActuationRange float64 `json:"actuation_range,omitempty"`
	Persist        bool    `json:"persist,omitempty"`
}

func (p *CalibrationPayload) Bind(r *http.Request) error {
	return nil
}

type DrivePayload struct {
	Forward float64 `json:"forward"`
	Turn    float64 `json:"turn"`
}

func (p *DrivePayload) Bind(r *http.Request) error {
	return nil
}

//---
// Views
//---

func GetState(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ENV.Conductor.Device.GetState())
}

func SetThrottle(w http.ResponseWriter, r *http.Request) {
	data := &ThrottlePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.SetThrottle(name, data.Throttle); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Motors[name])
}

func CoastMotor(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.CoastMotor(name); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Motors[name])
}

func SetAngle(w http.ResponseWriter, r *http.Request) {
	data := &AnglePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.SetAngle(name, data.Angle); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Servos[name])
}

func DisableServo(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.DisableServo(name); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Servos[name])
}

// CalibrateServo applies a measured pulse width range, optionally persisting
// it so it is replayed on the next boot.
func CalibrateServo(w http.ResponseWriter, r *http.Request) {
	data := &CalibrationPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.CalibrateServo(name, data.MinPulse, data.MaxPulse, data.ActuationRange); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	if data.Persist {
		cal := &ServoCalibration{
			Name:           name,
			MinPulse:       data.MinPulse,
			MaxPulse:       data.MaxPulse,
			ActuationRange: data.ActuationRange,
		}
		if err := ENV.DB.Save(cal); err != nil {
			render.Render(w, r, ErrRender(err))
			return
		}
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Servos[name])
}

func Step(w http.ResponseWriter, r *http.Request) {
	data := &StepPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	style, err := comms.ParseStyle(data.Style)
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	name := chi.URLParam(r, "name")
	pos, err := ENV.Conductor.Device.Step(name, data.Count, style)
	if err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, StepResult{Microstep: pos})
}

func ReleaseStepper(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := ENV.Conductor.Device.ReleaseStepper(name); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, StepResult{})
}

// SetDrive mixes a twist onto the configured differential pair.
func SetDrive(w http.ResponseWriter, r *http.Request) {
	if ENV.Drive == nil {
		render.Render(w, r, ErrNotFound)
		return
	}

	data := &DrivePayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := ENV.Drive.Set(data.Forward, data.Turn); err != nil {
		render.Render(w, r, ErrDevice(err))
		return
	}

	render.JSON(w, r, ENV.Conductor.Device.GetState().Motors)
}
