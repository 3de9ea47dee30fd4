package config

import (
	"strings"
	"testing"

	"c28pwm/core"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

func resetCore(t *testing.T) {
	t.Helper()
	core.GetRegistry().Reset()
	t.Cleanup(func() {
		core.GetRegistry().Reset()
		core.SetSysClock(core.SYSCLK_DEFAULT_HZ)
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	p, err := LoadConfig([]byte(`{"pwm_modules":[{"module":1}],"timers":[{"function":"fan"}]}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if p.Sysclk != DefaultSysclk {
		t.Errorf("Expected sysclk %s, got %s", DefaultSysclk, p.Sysclk)
	}
	m := p.PWMModules[0]
	if m.Frequency != DefaultFrequency || m.DeadBand != DefaultDeadBand {
		t.Errorf("Unexpected module defaults %+v", m)
	}
	if m.PinAPolicy != "no_action" || m.PinBMode != "pwm" || m.CountMode != "up" {
		t.Errorf("Unexpected pin defaults %+v", m)
	}
	if tm := p.Timers[0]; tm.Frequency != DefaultFrequency || tm.Sync != "none" {
		t.Errorf("Unexpected timer defaults %+v", tm)
	}
}

func TestLoadConfigSyncedSlaveKeepsNoFrequency(t *testing.T) {
	p, err := LoadConfig([]byte(`{"timers":[{"function":"fan"},{"function":"capture","sync":"period"}]}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if p.Timers[1].Frequency != "" {
		t.Errorf("Period-synced slave should not get a default frequency, got %q", p.Timers[1].Frequency)
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"pwm_modules":`)); err == nil {
		t.Error("Expected parse error")
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"20kHz", 20000, true},
		{"1.5MHz", 1500000, true},
		{"100MHz", 100000000, true},
		{"0Hz", 0, false},
		{"fast", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseFrequency(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseFrequency(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestParseDeadBand(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"300ns", 300, true},
		{"1.2us", 1200, true},
		{"0", 0, true},
		{"", 0, true},
		{"-5ns", 0, false},
		{"2ms", 0, false},
		{"short", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDeadBand(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseDeadBand(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	p := DefaultProfile()
	p.Sysclk = "fast"
	p.PWMModules = append(p.PWMModules, PWMProfile{Module: 2})
	applyDefaults(p)
	p.Pairs = []PairProfile{{Pair: "1_2"}}
	applyDefaults(p)

	err := p.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	if n := len(multierr.Errors(err)); n < 3 {
		t.Errorf("Expected at least 3 errors, got %d: %v", n, err)
	}
	for _, want := range []string{"sysclk", "configured twice", "cannot share a board"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Missing %q in %v", want, err)
		}
	}
}

func TestValidateProfiles(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string // empty: valid
	}{
		{"default", `{"pwm_modules":[{"module":1}]}`, ""},
		{"module range", `{"pwm_modules":[{"module":7}]}`, "outside 1..6"},
		{"high res on PWM5", `{"pwm_modules":[{"module":5,"high_res":true}]}`, "no high resolution"},
		{"dead band above max", `{"pwm_modules":[{"module":1,"dead_band":"5us"}]}`, "above 4800ns"},
		{"dead band at 150MHz", `{"sysclk":"150MHz","pwm_modules":[{"module":1,"dead_band":"3us"}]}`, ""},
		{"bad policy", `{"pwm_modules":[{"module":1,"pin_a_policy":"tristate"}]}`, "disable policy"},
		{"trip zone", `{"pwm_modules":[{"module":1,"trip_zones":[7]}]}`, "trip zone 7"},
		{"event every", `{"pwm_modules":[{"module":1,"event":{"source":"zero","every":4}}]}`, "every 4"},
		{"event source", `{"pwm_modules":[{"module":1,"event":{"source":"midway"}}]}`, "event source"},
		{"duty", `{"timers":[{"function":"fan","duty":120}]}`, "duty 120"},
		{"sync on master", `{"timers":[{"function":"fan","sync":"start"}]}`, "cannot sync"},
		{"sync without master", `{"timers":[{"function":"capture","sync":"period"}]}`, "listed before"},
		{"synced slave", `{"timers":[{"function":"fan"},{"function":"capture","sync":"period"}]}`, ""},
		{"duplicate timer", `{"timers":[{"function":"fan"},{"function":"fan"}]}`, "configured twice"},
		{"half bridge missing module", `{"pwm_modules":[{"module":1}],"half_bridges":[{"high":1,"low":2}]}`, "not in pwm_modules"},
		{"half bridge reuse", `{"pwm_modules":[{"module":1},{"module":2},{"module":3}],"half_bridges":[{"high":1,"low":2},{"high":3,"low":2}]}`, "already in"},
		{"half bridge frequency mismatch", `{"pwm_modules":[{"module":1,"frequency":"100kHz"},{"module":2,"frequency":"50kHz"}],"half_bridges":[{"high":1,"low":2}]}`, "same frequency"},
		{"half bridge mode mismatch", `{"pwm_modules":[{"module":1,"frequency":"20kHz","count_mode":"up_down"},{"module":2,"frequency":"20kHz"}],"half_bridges":[{"high":1,"low":2}]}`, "same frequency"},
		{"half bridge delay past period", `{"pwm_modules":[{"module":1,"frequency":"1MHz","count_mode":"up"},{"module":2,"frequency":"1MHz","count_mode":"up"}],"half_bridges":[{"high":1,"low":2,"high_dead_band":"4us"}]}`, "longer than module 2 period 99"},
		{"half bridge delay inside period", `{"pwm_modules":[{"module":1,"frequency":"1MHz","count_mode":"up"},{"module":2,"frequency":"1MHz","count_mode":"up"}],"half_bridges":[{"high":1,"low":2,"high_dead_band":"900ns"}]}`, ""},
		{"pair type", `{"pairs":[{"pair":"spv_a","type":"symmetric"}]}`, "does not fit"},
		{"pair overlap", `{"pairs":[{"pair":"3_4"},{"pair":"spv_a","type":"space_vector"}]}`, "overlaps"},
		{"pair polarity", `{"pairs":[{"pair":"3_4","pin1":"sideways"}]}`, "polarity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.json))
			if tt.want == "" {
				if err != nil {
					t.Errorf("Expected valid profile, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildDefaultProfile(t *testing.T) {
	resetCore(t)
	bank := core.NewMemoryBank()
	sys, err := Build(DefaultProfile(), bank)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(sys.PWM) != 3 {
		t.Fatalf("Expected 3 modules, got %d", len(sys.PWM))
	}
	m := sys.PWM[2]
	if m.MaxCompare() != 2500 {
		t.Errorf("Expected up-down TBPRD 2500, got %d", m.MaxCompare())
	}
	if m.CompareA() != 1250 || m.CompareB() != 1250 {
		t.Errorf("Expected 50%% compare 1250, got %d/%d", m.CompareA(), m.CompareB())
	}
	fan := sys.Timers[core.FuncFan]
	if fan == nil || fan.State() != core.TimerRunning {
		t.Fatal("Fan timer should be running")
	}
	if fan.FrequencyHz() != 25000 {
		t.Errorf("Expected fan at 25kHz, got %d", fan.FrequencyHz())
	}
	if bank.Violations() != 0 {
		t.Errorf("%d protected writes dropped", bank.Violations())
	}

	sys.Destroy()
	if c := core.GetRegistry().Claimed(); c != 0 {
		t.Errorf("Destroy left claims 0x%X", c)
	}
}

func TestBuildHalfBridge(t *testing.T) {
	resetCore(t)
	p, err := LoadConfig([]byte(`{
		"pwm_modules": [
			{"module": 1, "frequency": "100kHz"},
			{"module": 2, "frequency": "100kHz"}
		],
		"half_bridges": [{"high": 1, "low": 2, "high_dead_band": "300ns", "low_dead_band": "200ns"}]
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	sys, err := Build(p, core.NewMemoryBank())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer sys.Destroy()

	low := sys.PWM[2]
	if low.CompareA() != 1000 {
		t.Errorf("Low side CMPA should be seeded past the period, got %d", low.CompareA())
	}
	if low.CompareB() != 999-30 {
		t.Errorf("Expected low side CMPB %d, got %d", 999-30, low.CompareB())
	}
	if red, _ := low.Deadband(); red != 20 {
		t.Errorf("Expected low side RED 20, got %d", red)
	}
}

func TestBuildPairs(t *testing.T) {
	resetCore(t)
	p, err := LoadConfig([]byte(`{
		"sysclk": "150MHz",
		"timers": [{"function": "pwm", "count_mode": "up_down", "frequency": "10kHz", "start": true}],
		"pairs": [
			{"pair": "1_2", "duty": 1200, "dead_band": "1us", "enable": true},
			{"pair": "spv_b", "type": "space_vector"}
		]
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	sys, err := Build(p, core.NewMemoryBank())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer sys.Destroy()

	if core.SysClock() != 150000000 {
		t.Errorf("Build should set sysclk, got %d", core.SysClock())
	}
	if len(sys.Pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(sys.Pairs))
	}
	if sys.Pairs[0].Config().Duty != 1200 || !sys.Pairs[0].Config().DeadbandEnabled {
		t.Errorf("Unexpected pair config %+v", sys.Pairs[0].Config())
	}
	if !core.GetRegistry().IsClaimed(core.ResPair11_12) {
		t.Error("Space-vector unit should claim every EVB pair")
	}
}

func TestBuildRangeErrorRollsBack(t *testing.T) {
	resetCore(t)
	p, err := LoadConfig([]byte(`{
		"timers": [{"function": "fan", "frequency": "25kHz", "start": true}],
		"pwm_modules": [{"module": 1, "frequency": "1Hz"}]
	}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	_, err = Build(p, core.NewMemoryBank())
	if errors.Cause(err) != core.ErrOutOfRange {
		t.Fatalf("Expected ErrOutOfRange, got %v", err)
	}
	if c := core.GetRegistry().Claimed(); c != 0 {
		t.Errorf("Failed build left claims 0x%X", c)
	}
}
