package config

import (
	"sort"

	"c28pwm/core"
	"github.com/pkg/errors"
)

var timerCountModes = map[string]core.TimerCountMode{
	"stop_hold":   core.TimerStopHold,
	"up_down":     core.TimerContUpDown,
	"up":          core.TimerContUp,
	"dir_up_down": core.TimerDirUpDown,
}

var pwmCountModes = map[string]core.CountMode{
	"up":      core.CountUp,
	"down":    core.CountDown,
	"up_down": core.CountUpDown,
}

var interrupts = map[string]core.TimerInterrupt{
	"period":    core.IntPeriod,
	"compare":   core.IntCompare,
	"underflow": core.IntUnderflow,
	"overflow":  core.IntOverflow,
}

var compareOutputs = map[string]core.CompareOutput{
	"none":        core.OutNone,
	"force_low":   core.OutForceLow,
	"active_low":  core.OutActiveLow,
	"active_high": core.OutActiveHigh,
	"force_high":  core.OutForceHigh,
}

var syncModes = map[string]core.SyncMode{
	"none":         core.SyncNone,
	"period":       core.SyncPeriod,
	"start":        core.SyncStart,
	"period_start": core.SyncPeriodStart,
}

var clockSources = map[string]core.TimerClock{
	"internal": core.ClockInternal,
	"external": core.ClockExternal,
	"qep":      core.ClockQEP,
}

var adcStarts = map[string]core.AdcStart{
	"none":      core.AdcNone,
	"underflow": core.AdcUnderflow,
	"period":    core.AdcPeriod,
	"compare":   core.AdcCompare,
}

var reloads = map[string]core.CompareReload{
	"zero":           core.ReloadOnZero,
	"zero_or_period": core.ReloadOnZeroOrPeriod,
	"immediate":      core.ReloadImmediate,
}

var emulationModes = map[string]core.EmulationMode{
	"stop":           core.EmuStopImmediately,
	"stop_at_period": core.EmuStopAtPeriod,
	"free_run":       core.EmuFreeRun,
}

var pinModes = map[string]core.PinMode{
	"gpio": core.PinModeGPIO,
	"pwm":  core.PinModePWM,
}

var tripActions = map[string]core.TZAction{
	"no_action":  core.TZNoAction,
	"high_z":     core.TZHighZ,
	"force_high": core.TZForceHigh,
	"force_low":  core.TZForceLow,
}

var eventSources = map[string]core.ETSelect{
	"zero":      core.ETCtrZero,
	"period":    core.ETCtrPeriod,
	"cmpa_up":   core.ETCtrUpCmpA,
	"cmpa_down": core.ETCtrDownCmpA,
	"cmpb_up":   core.ETCtrUpCmpB,
	"cmpb_down": core.ETCtrDownCmpB,
}

var pairIDs = map[string]core.PairID{
	"1_2":   core.Pair1_2,
	"3_4":   core.Pair3_4,
	"5_6":   core.Pair5_6,
	"7_8":   core.Pair7_8,
	"9_10":  core.Pair9_10,
	"11_12": core.Pair11_12,
	"spv_a": core.PairSPV_A,
	"spv_b": core.PairSPV_B,
}

var pairTypes = map[string]core.PairType{
	"asymmetric":   core.PairAsymmetric,
	"symmetric":    core.PairSymmetric,
	"space_vector": core.PairSpaceVector,
}

var polarities = map[string]core.Polarity{
	"forced_low":  core.PolarityForcedLow,
	"active_low":  core.PolarityActiveLow,
	"active_high": core.PolarityActiveHigh,
	"forced_high": core.PolarityForcedHigh,
}

// lookup resolves name in table, listing the accepted names on failure.
func lookup[T any](kind, name string, table map[string]T) (T, error) {
	if v, ok := table[name]; ok {
		return v, nil
	}
	var zero T
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	sort.Strings(names)
	return zero, errors.Errorf("unknown %s %q (want one of %v)", kind, name, names)
}

func parseFunction(name string) (core.FunctionTag, error) {
	if f, ok := core.ParseFunctionTag(name); ok {
		return f, nil
	}
	return 0, errors.Errorf("unknown function %q", name)
}

func parsePolicy(name string) (core.DisableMode, error) {
	if m, ok := core.ParseDisableMode(name); ok {
		return m, nil
	}
	return 0, errors.Errorf("unknown disable policy %q", name)
}

func parseInterrupts(names []string) (core.TimerInterrupt, error) {
	var mask core.TimerInterrupt
	for _, n := range names {
		src, err := lookup("interrupt", n, interrupts)
		if err != nil {
			return 0, err
		}
		mask |= src
	}
	return mask, nil
}

// ParsePWMCountMode resolves an ePWM counter mode name.
func ParsePWMCountMode(name string) (core.CountMode, error) {
	return lookup("count mode", name, pwmCountModes)
}

// ParseTimerCountMode resolves an event-manager timer count mode name.
func ParseTimerCountMode(name string) (core.TimerCountMode, error) {
	return lookup("count mode", name, timerCountModes)
}
