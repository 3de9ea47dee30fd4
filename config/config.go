// Package config loads a JSON board profile and builds the PWM subsystem
// it describes on a register bank.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
)

// Profile is a board's timer and PWM layout.
type Profile struct {
	Name        string              `json:"name"`
	Sysclk      string              `json:"sysclk"` // e.g. "100MHz"
	Timers      []TimerProfile      `json:"timers"`
	PWMModules  []PWMProfile        `json:"pwm_modules"`
	HalfBridges []HalfBridgeProfile `json:"half_bridges"`
	Pairs       []PairProfile       `json:"pairs"`
}

// TimerProfile configures one event-manager timer by function.
type TimerProfile struct {
	Function      string   `json:"function"`
	CountMode     string   `json:"count_mode"`
	Interrupt     []string `json:"interrupt"`
	CompareOutput string   `json:"compare_output"`
	Sync          string   `json:"sync"`
	ClockSource   string   `json:"clock_source"`
	Adc           string   `json:"adc"`
	Reload        string   `json:"reload"`
	Emulation     string   `json:"emulation"`
	Frequency     string   `json:"frequency"`
	Duty          float64  `json:"duty"` // percent
	Start         bool     `json:"start"`
}

// PWMProfile configures one ePWM module. Module is 1-based as on the
// datasheet pin names (EPWM1A...).
type PWMProfile struct {
	Module     int           `json:"module"`
	Frequency  string        `json:"frequency"`
	CountMode  string        `json:"count_mode"`
	PinAPolicy string        `json:"pin_a_policy"`
	PinBPolicy string        `json:"pin_b_policy"`
	PinAMode   string        `json:"pin_a_mode"`
	PinBMode   string        `json:"pin_b_mode"`
	DeadBand   string        `json:"dead_band"` // e.g. "300ns", "0" bypasses
	HighRes    bool          `json:"high_res"`
	TripZones  []int         `json:"trip_zones"`
	TripAction string        `json:"trip_action"`
	Event      *EventProfile `json:"event,omitempty"`
	Duty       float64       `json:"duty"` // percent, both outputs
}

// EventProfile routes one counter event to the module interrupt.
type EventProfile struct {
	Source string `json:"source"`
	Every  int    `json:"every"`
}

// HalfBridgeProfile pairs two modules as high and low side.
type HalfBridgeProfile struct {
	High         int    `json:"high"`
	Low          int    `json:"low"`
	HighDeadBand string `json:"high_dead_band"`
	LowDeadBand  string `json:"low_dead_band"`
}

// PairProfile configures one event-manager compare pair.
type PairProfile struct {
	Pair     string `json:"pair"` // "1_2" ... "11_12", "spv_a", "spv_b"
	Type     string `json:"type"`
	Duty     int    `json:"duty"` // CMPRx ticks
	DeadBand string `json:"dead_band"`
	Pin1     string `json:"pin1"`
	Pin2     string `json:"pin2"`
	Enable   bool   `json:"enable"`
}

// Defaults applied to fields left empty
const (
	DefaultSysclk    = "100MHz"
	DefaultFrequency = "20kHz"
	DefaultDeadBand  = "300ns"
	DefaultPolicy    = "no_action"
)

// LoadConfig parses a JSON profile, applies defaults and validates it.
func LoadConfig(jsonData []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(jsonData, &p); err != nil {
		return nil, errors.Wrap(err, "parse profile")
	}
	applyDefaults(&p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadFile reads and loads the profile at path.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read profile")
	}
	p, err := LoadConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", path)
	}
	return p, nil
}

// applyDefaults fills in missing values
func applyDefaults(p *Profile) {
	if p.Sysclk == "" {
		p.Sysclk = DefaultSysclk
	}
	for i := range p.Timers {
		t := &p.Timers[i]
		if t.CountMode == "" {
			t.CountMode = "up"
		}
		if t.CompareOutput == "" {
			t.CompareOutput = "none"
		}
		if t.Sync == "" {
			t.Sync = "none"
		}
		if t.ClockSource == "" {
			t.ClockSource = "internal"
		}
		if t.Adc == "" {
			t.Adc = "none"
		}
		if t.Reload == "" {
			t.Reload = "zero"
		}
		if t.Emulation == "" {
			t.Emulation = "free_run"
		}
		// a period-synced slave takes its master's frequency
		if t.Frequency == "" && t.Sync != "period" && t.Sync != "period_start" {
			t.Frequency = DefaultFrequency
		}
	}
	for i := range p.PWMModules {
		m := &p.PWMModules[i]
		if m.Frequency == "" {
			m.Frequency = DefaultFrequency
		}
		if m.CountMode == "" {
			m.CountMode = "up"
		}
		if m.PinAPolicy == "" {
			m.PinAPolicy = DefaultPolicy
		}
		if m.PinBPolicy == "" {
			m.PinBPolicy = DefaultPolicy
		}
		if m.PinAMode == "" {
			m.PinAMode = "pwm"
		}
		if m.PinBMode == "" {
			m.PinBMode = "pwm"
		}
		if m.DeadBand == "" {
			m.DeadBand = DefaultDeadBand
		}
		if m.TripAction == "" {
			m.TripAction = "force_low"
		}
		if m.Event != nil && m.Event.Every == 0 {
			m.Event.Every = 1
		}
	}
	for i := range p.HalfBridges {
		h := &p.HalfBridges[i]
		if h.HighDeadBand == "" {
			h.HighDeadBand = DefaultDeadBand
		}
		if h.LowDeadBand == "" {
			h.LowDeadBand = h.HighDeadBand
		}
	}
	for i := range p.Pairs {
		pr := &p.Pairs[i]
		if pr.Type == "" {
			pr.Type = "symmetric"
		}
		if pr.DeadBand == "" {
			pr.DeadBand = "0"
		}
		if pr.Pin1 == "" {
			pr.Pin1 = "active_high"
		}
		if pr.Pin2 == "" {
			pr.Pin2 = "active_low"
		}
	}
}

// ParseFrequency converts "20kHz" or "1.5MHz" into whole hertz. The unit
// is required.
func ParseFrequency(s string) (uint32, error) {
	var f physic.Frequency
	if err := f.Set(s); err != nil {
		return 0, errors.Wrapf(err, "frequency %q", s)
	}
	hz := int64(f / physic.Hertz)
	if hz <= 0 || hz > 1<<32-1 {
		return 0, errors.Errorf("frequency %q out of range", s)
	}
	return uint32(hz), nil
}

// ParseDeadBand converts "300ns" or "1.2us" into nanoseconds. "0" and
// "" mean no dead band.
func ParseDeadBand(s string) (uint32, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "dead band %q", s)
	}
	if d < 0 || d > time.Millisecond {
		return 0, errors.Errorf("dead band %q out of range", s)
	}
	return uint32(d.Nanoseconds()), nil
}

// DefaultProfile is a three-phase inverter on PWM1..PWM3 with a fan timer.
func DefaultProfile() *Profile {
	p := &Profile{
		Name:   "inverter",
		Sysclk: DefaultSysclk,
		Timers: []TimerProfile{
			{Function: "fan", CountMode: "up", CompareOutput: "active_high", Frequency: "25kHz", Duty: 40, Start: true},
		},
		PWMModules: []PWMProfile{
			{Module: 1, CountMode: "up_down", PinAPolicy: "force_low", PinBPolicy: "force_low", TripZones: []int{1}, Duty: 50},
			{Module: 2, CountMode: "up_down", PinAPolicy: "force_low", PinBPolicy: "force_low", TripZones: []int{1}, Duty: 50},
			{Module: 3, CountMode: "up_down", PinAPolicy: "force_low", PinBPolicy: "force_low", TripZones: []int{1}, Duty: 50},
		},
	}
	applyDefaults(p)
	return p
}
