package core

import (
	"sort"
	"sync"

	"c28pwm/protocol"
)

// Dictionary is the self-description the host reads with identify: the
// protocol version, build constants, every command and response with its
// id, and the enumerations command arguments use.
type Dictionary struct {
	mu        sync.Mutex
	cmds      *CommandRegistry
	constants map[string]string
	enums     map[string][]string
	cached    []byte
}

func NewDictionary(cmds *CommandRegistry) *Dictionary {
	return &Dictionary{
		cmds:      cmds,
		constants: make(map[string]string),
		enums:     make(map[string][]string),
	}
}

// AddConstant records a numeric build constant.
func (d *Dictionary) AddConstant(name string, v uint32) {
	d.mu.Lock()
	d.constants[name] = utoa(v)
	d.cached = nil
	d.mu.Unlock()
}

// AddString records a string build constant.
func (d *Dictionary) AddString(name, v string) {
	d.mu.Lock()
	d.constants[name] = v
	d.cached = nil
	d.mu.Unlock()
}

// AddEnumeration records the names of an enumerated argument, index is
// the wire value.
func (d *Dictionary) AddEnumeration(name string, values []string) {
	d.mu.Lock()
	d.enums[name] = append([]string(nil), values...)
	d.cached = nil
	d.mu.Unlock()
}

// Bytes returns the JSON dictionary, building it on first use.
func (d *Dictionary) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil {
		d.cached = d.build()
	}
	return d.cached
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Dictionary) build() []byte {
	b := make([]byte, 0, 1024)
	b = append(b, `{"version":`...)
	b = append(b, quote(protocol.Version)...)

	b = append(b, `,"config":{`...)
	for i, k := range sortedKeys(d.constants) {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, quote(k)...)
		b = append(b, ':')
		b = append(b, quote(d.constants[k])...)
	}

	var cmds, rsps []byte
	for _, c := range d.cmds.All() {
		entry := quote(c.Signature()) + ":" + utoa(uint32(c.ID))
		if c.Handler != nil {
			cmds = appendMember(cmds, entry)
		} else {
			rsps = appendMember(rsps, entry)
		}
	}
	b = append(b, `},"commands":{`...)
	b = append(b, cmds...)
	b = append(b, `},"responses":{`...)
	b = append(b, rsps...)
	b = append(b, `},"enumerations":{`...)

	for i, k := range sortedKeys(d.enums) {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, quote(k)...)
		b = append(b, `:{`...)
		var vals []byte
		for n, v := range d.enums[k] {
			vals = appendMember(vals, quote(v)+":"+itoa(n))
		}
		b = append(b, vals...)
		b = append(b, '}')
	}
	return append(b, `}}`...)
}

func appendMember(b []byte, member string) []byte {
	if len(b) > 0 {
		b = append(b, ',')
	}
	return append(b, member...)
}

// Chunk returns up to count bytes of the dictionary from offset. Reads
// past the end return an empty chunk, which ends the host's identify
// loop.
func (d *Dictionary) Chunk(offset uint32, count uint8) []byte {
	data := d.Bytes()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := min(offset+uint32(count), uint32(len(data)))
	return data[offset:end]
}
