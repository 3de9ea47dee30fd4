// Package mcu is the host side of the bench link: it reads the device
// dictionary and sends commands to it by name.
package mcu

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"c28pwm/host/serial"
	"c28pwm/protocol"
	"github.com/pkg/errors"
)

// Identify ids are fixed; everything else comes from the dictionary.
const (
	cmdIdentifyResponse = 0
	cmdIdentify         = 1
	identifyChunk       = 40
)

// Device error codes carried by pwm_error
var errorNames = map[uint32]string{
	1: "out of range",
	2: "unsupported",
	3: "bad object id",
	4: "busy",
	5: "invalid argument",
}

// DeviceError is a pwm_error response.
type DeviceError struct {
	OID  uint32
	Code uint32
}

func (e *DeviceError) Error() string {
	name, ok := errorNames[e.Code]
	if !ok {
		name = fmt.Sprintf("code %d", e.Code)
	}
	return fmt.Sprintf("oid %d: %s", e.OID, name)
}

// Dictionary is the parsed device dictionary.
type Dictionary struct {
	Version      string                    `json:"version"`
	Config       map[string]string         `json:"config"`
	Commands     map[string]int            `json:"commands"`
	Responses    map[string]int            `json:"responses"`
	Enumerations map[string]map[string]int `json:"enumerations,omitempty"`
}

// Message is one entry of the dictionary split into name and arguments.
type Message struct {
	ID     uint16
	Name   string
	Params []string // argument names in wire order
	Format []string // printf-style type of each argument
}

func parseSignature(sig string, id int) Message {
	fields := strings.Fields(sig)
	m := Message{ID: uint16(id), Name: fields[0]}
	for _, f := range fields[1:] {
		name, typ, _ := strings.Cut(f, "=")
		m.Params = append(m.Params, name)
		m.Format = append(m.Format, typ)
	}
	return m
}

// MCU is a connection to the controller.
type MCU struct {
	transport *protocol.HostTransport
	port      io.ReadWriteCloser

	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]Message
	responses      map[string]Message
	byID           map[uint16]Message

	// Timeout bounds the wait for a response
	Timeout time.Duration
}

// New runs the protocol over an open port.
func New(port io.ReadWriteCloser) *MCU {
	return &MCU{
		transport: protocol.NewHostTransport(port),
		port:      port,
		Timeout:   protocol.DefaultTimeout,
	}
}

// Connect opens the serial device and reads its dictionary.
func Connect(cfg *serial.Config) (*MCU, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	port.Flush()
	m := New(port)
	if err := m.Identify(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Close stops the transport and closes the port.
func (m *MCU) Close() error {
	return m.transport.Close()
}

// Identify retrieves the dictionary in chunks and parses it.
func (m *MCU) Identify() error {
	var data []byte
	for {
		chunk, err := m.identify(uint32(len(data)))
		if err != nil {
			return errors.Wrapf(err, "identify at offset %d", len(data))
		}
		if len(chunk) == 0 {
			break
		}
		data = append(data, chunk...)
	}

	dict := &Dictionary{}
	if err := json.Unmarshal(data, dict); err != nil {
		return errors.Wrap(err, "parse dictionary")
	}
	if dict.Version != protocol.Version {
		return errors.Errorf("device speaks %q, host %q", dict.Version, protocol.Version)
	}
	m.dictionaryData = data
	m.dictionary = dict
	m.commands = make(map[string]Message)
	m.responses = make(map[string]Message)
	m.byID = make(map[uint16]Message)
	for sig, id := range dict.Commands {
		msg := parseSignature(sig, id)
		m.commands[msg.Name] = msg
		m.byID[msg.ID] = msg
	}
	for sig, id := range dict.Responses {
		msg := parseSignature(sig, id)
		m.responses[msg.Name] = msg
		m.byID[msg.ID] = msg
	}
	return nil
}

func (m *MCU) identify(offset uint32) ([]byte, error) {
	if err := m.transport.Send(cmdIdentify, offset, identifyChunk); err != nil {
		return nil, err
	}
	for {
		resp, err := m.transport.Receive(m.Timeout)
		if err != nil {
			return nil, err
		}
		id, payload, err := resp.CommandID()
		if err != nil {
			return nil, err
		}
		if id != cmdIdentifyResponse {
			continue
		}
		got, err := protocol.DecodeVLQUint(&payload)
		if err != nil {
			return nil, err
		}
		if got != offset {
			return nil, errors.Errorf("offset mismatch: sent %d, got %d", offset, got)
		}
		return protocol.DecodeVLQBytes(&payload)
	}
}

// Dictionary returns the parsed dictionary, nil before Identify.
func (m *MCU) Dictionary() *Dictionary {
	return m.dictionary
}

// DictionaryRaw returns the dictionary as the device sent it.
func (m *MCU) DictionaryRaw() []byte {
	return m.dictionaryData
}

// Command looks up a command by name.
func (m *MCU) Command(name string) (Message, error) {
	if m.dictionary == nil {
		return Message{}, errors.New("dictionary not loaded")
	}
	c, ok := m.commands[name]
	if !ok {
		return Message{}, errors.Errorf("unknown command %q", name)
	}
	return c, nil
}

// Response looks up a response by name.
func (m *MCU) Response(name string) (Message, error) {
	r, ok := m.responses[name]
	if !ok {
		return Message{}, errors.Errorf("unknown response %q", name)
	}
	return r, nil
}

// Commands returns the command names in sorted order.
func (m *MCU) Commands() []string {
	names := make([]string, 0, len(m.commands))
	for n := range m.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Send sends command name with its arguments in wire order. The device
// reports a rejected request before it acks, so a pwm_error that is
// already queued when the ack arrives is returned as a *DeviceError.
func (m *MCU) Send(name string, args ...uint32) error {
	_, err := m.send(name, args)
	return err
}

// Exchange sends a command and returns the responses that arrived with
// its ack.
func (m *MCU) Exchange(name string, args ...uint32) ([]protocol.Message, error) {
	return m.send(name, args)
}

// send returns the responses that arrived with the ack.
func (m *MCU) send(name string, args []uint32) ([]protocol.Message, error) {
	c, err := m.Command(name)
	if err != nil {
		return nil, err
	}
	if len(args) != len(c.Params) {
		return nil, errors.Errorf("%s takes %d arguments (%s), got %d",
			name, len(c.Params), strings.Join(c.Params, " "), len(args))
	}
	m.drain()
	if err := m.transport.Send(c.ID, args...); err != nil {
		return nil, errors.Wrap(err, name)
	}
	var queued []protocol.Message
	for {
		resp, ok := m.transport.TryReceive()
		if !ok {
			return queued, nil
		}
		if derr := m.deviceError(resp); derr != nil {
			return nil, derr
		}
		queued = append(queued, resp)
	}
}

// Query sends a command and waits for response, returning its decoded
// arguments.
func (m *MCU) Query(name string, args []uint32, response string) ([]uint32, error) {
	r, ok := m.responses[response]
	if !ok {
		return nil, errors.Errorf("unknown response %q", response)
	}
	queued, err := m.send(name, args)
	if err != nil {
		return nil, err
	}
	for {
		var resp protocol.Message
		if len(queued) > 0 {
			resp, queued = queued[0], queued[1:]
		} else if resp, err = m.transport.Receive(m.Timeout); err != nil {
			return nil, errors.Wrapf(err, "waiting for %s", response)
		}
		if derr := m.deviceError(resp); derr != nil {
			return nil, derr
		}
		id, payload, err := resp.CommandID()
		if err != nil {
			return nil, err
		}
		if id == r.ID {
			return decodeArgs(r, payload)
		}
	}
}

// Decode returns the name and arguments of a response frame.
func (m *MCU) Decode(resp protocol.Message) (string, []uint32, error) {
	id, payload, err := resp.CommandID()
	if err != nil {
		return "", nil, err
	}
	msg, ok := m.byID[id]
	if !ok {
		return "", nil, errors.Errorf("unknown message id %d", id)
	}
	args, err := decodeArgs(msg, payload)
	return msg.Name, args, err
}

// Receive waits for the next response frame.
func (m *MCU) Receive(timeout time.Duration) (protocol.Message, error) {
	return m.transport.Receive(timeout)
}

func (m *MCU) deviceError(resp protocol.Message) error {
	name, args, err := m.Decode(resp)
	if err != nil || name != "pwm_error" || len(args) != 2 {
		return nil
	}
	return &DeviceError{OID: args[0], Code: args[1]}
}

// drain drops responses nobody waited for.
func (m *MCU) drain() {
	for {
		if _, ok := m.transport.TryReceive(); !ok {
			return
		}
	}
}

// decodeArgs decodes every argument of msg. Byte strings are skipped.
func decodeArgs(msg Message, payload []byte) ([]uint32, error) {
	var out []uint32
	for i, f := range msg.Format {
		switch f {
		case "%*s", "%.*s":
			if _, err := protocol.DecodeVLQBytes(&payload); err != nil {
				return nil, errors.Wrapf(err, "%s.%s", msg.Name, msg.Params[i])
			}
		case "%i":
			v, err := protocol.DecodeVLQInt(&payload)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", msg.Name, msg.Params[i])
			}
			out = append(out, uint32(v))
		default:
			v, err := protocol.DecodeVLQUint(&payload)
			if err != nil {
				return nil, errors.Wrapf(err, "%s.%s", msg.Name, msg.Params[i])
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// ParseArgs converts console fields into the wire arguments of command
// name. A field is positional or key=value, and its value is a number or
// an enumeration name from the dictionary.
func (m *MCU) ParseArgs(name string, fields []string) ([]uint32, error) {
	c, err := m.Command(name)
	if err != nil {
		return nil, err
	}
	args := make([]uint32, len(c.Params))
	set := make([]bool, len(c.Params))
	for i, f := range fields {
		idx, val := i, f
		if k, v, ok := strings.Cut(f, "="); ok {
			idx = indexOf(c.Params, k)
			if idx < 0 {
				return nil, errors.Errorf("%s has no argument %q", name, k)
			}
			val = v
		} else if i >= len(c.Params) {
			return nil, errors.Errorf("%s takes %d arguments (%s)",
				name, len(c.Params), strings.Join(c.Params, " "))
		}
		if set[idx] {
			return nil, errors.Errorf("%s given twice", c.Params[idx])
		}
		n, err := m.parseValue(c.Params[idx], val)
		if err != nil {
			return nil, errors.Wrap(err, c.Params[idx])
		}
		args[idx], set[idx] = n, true
	}
	for i, ok := range set {
		if !ok {
			return nil, errors.Errorf("%s: missing %s", name, c.Params[i])
		}
	}
	return args, nil
}

// parseValue accepts a number or an enumeration name. The enumeration
// named after the parameter wins over any other.
func (m *MCU) parseValue(param, s string) (uint32, error) {
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		return uint32(n), nil
	}
	if m.dictionary == nil {
		return 0, errors.Errorf("bad value %q", s)
	}
	if v, ok := m.dictionary.Enumerations[param][s]; ok {
		return uint32(v), nil
	}
	found := -1
	for _, enum := range m.dictionary.Enumerations {
		v, ok := enum[s]
		if !ok {
			continue
		}
		if found >= 0 && found != v {
			return 0, errors.Errorf("ambiguous value %q", s)
		}
		found = v
	}
	if found < 0 {
		return 0, errors.Errorf("bad value %q", s)
	}
	return uint32(found), nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// PrintDictionary writes a summary of the dictionary to w.
func (m *MCU) PrintDictionary(w io.Writer) {
	if m.dictionary == nil {
		fmt.Fprintln(w, "No dictionary loaded")
		return
	}
	fmt.Fprintf(w, "Version: %s\n", m.dictionary.Version)

	fmt.Fprintln(w, "\nConfig:")
	keys := make([]string, 0, len(m.dictionary.Config))
	for k := range m.dictionary.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s = %s\n", k, m.dictionary.Config[k])
	}

	fmt.Fprintf(w, "\nCommands (%d):\n", len(m.commands))
	for _, n := range m.Commands() {
		c := m.commands[n]
		fmt.Fprintf(w, "  [%2d] %s %s\n", c.ID, c.Name, strings.Join(c.Params, " "))
	}
	fmt.Fprintf(w, "\nResponses (%d):\n", len(m.responses))
	for sig, id := range m.dictionary.Responses {
		fmt.Fprintf(w, "  [%2d] %s\n", id, sig)
	}
}
