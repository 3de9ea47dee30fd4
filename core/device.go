package core

import (
	"errors"

	"c28pwm/protocol"
)

// ResponseSender sends one response frame. *protocol.Transport is one.
type ResponseSender interface {
	Send(cmdID uint16, args func(protocol.OutputBuffer)) error
}

// Error codes carried by pwm_error
const (
	PWM_ERR_NONE        = 0
	PWM_ERR_RANGE       = 1 // solver rejected the request
	PWM_ERR_UNSUPPORTED = 2
	PWM_ERR_OID         = 3
	PWM_ERR_BUSY        = 4 // hardware instance already claimed
	PWM_ERR_ARGUMENT    = 5
)

// errArgument marks a request rejected before touching hardware.
var errArgument = errors.New("invalid argument")

// errorCode maps an error to its pwm_error code.
func errorCode(err error) uint32 {
	switch err {
	case nil:
		return PWM_ERR_NONE
	case ErrOutOfRange:
		return PWM_ERR_RANGE
	case ErrUnsupported:
		return PWM_ERR_UNSUPPORTED
	case ErrBadOID, ErrOIDInUse, ErrOIDNotFound, ErrWrongObject:
		return PWM_ERR_OID
	case errBusy:
		return PWM_ERR_BUSY
	}
	return PWM_ERR_ARGUMENT
}

// Device is the command surface of the PWM core: it owns the command
// dictionary and the objects the host configured on one register bank.
type Device struct {
	bank RegisterBank
	cmds *CommandRegistry
	dict *Dictionary
	objs ObjectTable
	out  ResponseSender
}

// NewDevice registers every command for bank. Responses are dropped
// until SetSender is called.
func NewDevice(bank RegisterBank) *Device {
	d := &Device{bank: bank, cmds: NewCommandRegistry()}
	d.dict = NewDictionary(d.cmds)
	d.registerCore()
	d.registerPWM()
	d.registerTimers()
	if FEATURE_EVM {
		d.registerPairs()
	}
	d.registerConstants()
	return d
}

// SetSender installs the response path.
func (d *Device) SetSender(s ResponseSender) {
	d.out = s
}

// Handle dispatches one decoded command; it is the protocol
// CommandHandler of the device.
func (d *Device) Handle(cmdID uint16, args *[]byte) error {
	return d.cmds.Dispatch(cmdID, args)
}

func (d *Device) Commands() *CommandRegistry { return d.cmds }
func (d *Device) Dictionary() *Dictionary    { return d.dict }
func (d *Device) Objects() *ObjectTable      { return &d.objs }

// respond sends response name with unsigned arguments.
func (d *Device) respond(name string, args ...uint32) {
	d.respondFunc(name, func(out protocol.OutputBuffer) {
		protocol.EncodeArgs(out, args...)
	})
}

func (d *Device) respondFunc(name string, args func(protocol.OutputBuffer)) {
	cmd, ok := d.cmds.ByName(name)
	if !ok {
		panic("response not registered: " + name)
	}
	if d.out == nil {
		return
	}
	if err := d.out.Send(cmd.ID, args); err != nil {
		DebugPrintln("[CMD] " + name + ": " + err.Error())
	}
}

// fail reports err for oid. The command itself succeeded at the protocol
// level, so the caller returns nil.
func (d *Device) fail(oid uint32, err error) error {
	d.respond("pwm_error", oid, errorCode(err))
	return nil
}

func (d *Device) registerCore() {
	// identify must keep ids 0 and 1, the host bootstraps with them
	d.cmds.RegisterResponse("identify_response", "offset=%u data=%.*s")
	d.cmds.Register("identify", "offset=%u count=%c", d.handleIdentify)

	d.cmds.Register("get_config", "", d.handleGetConfig)
	d.cmds.Register("config_reset", "", d.handleConfigReset)
	d.cmds.Register("get_fault", "", d.handleGetFault)

	d.cmds.RegisterResponse("config", "objects=%c claimed=%u")
	d.cmds.RegisterResponse("fault", "code=%c")
	d.cmds.RegisterResponse("pwm_error", "oid=%c code=%c")
}

func (d *Device) registerConstants() {
	d.dict.AddString("MCU", "c28x")
	d.dict.AddConstant("CLOCK_FREQ", SysClock())
	d.dict.AddConstant("PWM_MODULES", uint32(PWM_MODULE_COUNT))
	d.dict.AddConstant("PWM_HIRES_MODULES", PWM_HIRES_MODULES)
	d.dict.AddConstant("MAX_OIDS", MAX_OIDS)
	d.dict.AddConstant("DEADBAND_MAX_NS", MaxDeadbandNs(SysClock()))

	d.dict.AddEnumeration("disable_mode", disableModeNames[:])
	d.dict.AddEnumeration("function", functionNames[:])
	d.dict.AddEnumeration("fault", faultNames[:])
	d.dict.AddEnumeration("count_mode", []string{"up", "down", "up_down"})
	d.dict.AddEnumeration("timer_mode", []string{"stop_hold", "up_down", "up", "dir_up_down"})
	d.dict.AddEnumeration("timer_action", []string{"start", "stop", "hold", "resume"})
}

func (d *Device) handleIdentify(args *[]byte) error {
	var offset, count uint32
	if err := protocol.DecodeArgs(args, &offset, &count); err != nil {
		return err
	}
	chunk := d.dict.Chunk(offset, uint8(count))
	d.respondFunc("identify_response", func(out protocol.OutputBuffer) {
		protocol.EncodeVLQUint(out, offset)
		protocol.EncodeVLQBytes(out, chunk)
	})
	return nil
}

func (d *Device) handleGetConfig(*[]byte) error {
	d.respond("config", uint32(d.objs.Count()), registry.Claimed())
	return nil
}

// handleConfigReset destroys every configured object.
func (d *Device) handleConfigReset(*[]byte) error {
	d.objs.DestroyAll()
	return nil
}

func (d *Device) handleGetFault(*[]byte) error {
	d.respond("fault", uint32(LastFault()))
	return nil
}
