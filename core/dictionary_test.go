package core

import (
	"encoding/json"
	"testing"
)

type dictJSON struct {
	Version      string                    `json:"version"`
	Config       map[string]string         `json:"config"`
	Commands     map[string]int            `json:"commands"`
	Responses    map[string]int            `json:"responses"`
	Enumerations map[string]map[string]int `json:"enumerations"`
}

func parseDictionary(t *testing.T, b []byte) dictJSON {
	t.Helper()
	var d dictJSON
	if err := json.Unmarshal(b, &d); err != nil {
		t.Fatalf("Dictionary is not valid JSON: %v\n%s", err, b)
	}
	return d
}

func TestDictionary(t *testing.T) {
	reg := NewCommandRegistry()
	reg.RegisterResponse("identify_response", "offset=%u data=%.*s")
	reg.Register("identify", "offset=%u count=%c", func(*[]byte) error { return nil })

	dict := NewDictionary(reg)
	dict.AddConstant("TEST_CONST", 42)
	dict.AddString("TEST_STR", `say "hi"`)
	dict.AddEnumeration("test_modes", []string{"up", "down"})

	d := parseDictionary(t, dict.Bytes())
	if d.Version != "c28pwm-1" {
		t.Errorf("Unexpected version %q", d.Version)
	}
	if d.Config["TEST_CONST"] != "42" || d.Config["TEST_STR"] != `say "hi"` {
		t.Errorf("Unexpected config %v", d.Config)
	}
	if d.Commands["identify offset=%u count=%c"] != 1 {
		t.Errorf("Unexpected commands %v", d.Commands)
	}
	if id, ok := d.Responses["identify_response offset=%u data=%.*s"]; !ok || id != 0 {
		t.Errorf("Unexpected responses %v", d.Responses)
	}
	if d.Enumerations["test_modes"]["down"] != 1 {
		t.Errorf("Unexpected enumerations %v", d.Enumerations)
	}
}

func TestDictionaryInvalidatedOnAdd(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	before := string(dict.Bytes())
	dict.AddConstant("LATE", 1)
	if string(dict.Bytes()) == before {
		t.Error("AddConstant should rebuild the dictionary")
	}
}

func TestDictionaryChunks(t *testing.T) {
	dict := NewDictionary(NewCommandRegistry())
	dict.AddConstant("TEST", 123)
	data := dict.Bytes()

	var got []byte
	for off := uint32(0); ; {
		c := dict.Chunk(off, 40)
		if len(c) == 0 {
			break
		}
		if len(c) > 40 {
			t.Fatalf("Chunk at %d is %d bytes", off, len(c))
		}
		got = append(got, c...)
		off += uint32(len(c))
	}
	if string(got) != string(data) {
		t.Errorf("Reassembled dictionary differs:\n%s\n%s", got, data)
	}
	if c := dict.Chunk(uint32(len(data))+10, 40); c != nil {
		t.Errorf("Expected empty chunk past the end, got %q", c)
	}
}
