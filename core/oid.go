package core

import "errors"

var (
	ErrBadOID      = errors.New("object id out of range")
	ErrOIDInUse    = errors.New("object id already configured")
	ErrOIDNotFound = errors.New("object id not configured")
	ErrWrongObject = errors.New("object id holds a different kind of object")
)

// MAX_OIDS bounds the object table the host can fill.
const MAX_OIDS = 16

// Destroyer is implemented by every object the host can configure.
type Destroyer interface {
	Destroy()
}

// ObjectTable maps host object ids to configured PWM modules, timer
// channels and compare pairs.
type ObjectTable struct {
	objs [MAX_OIDS]Destroyer
}

// Put stores obj under oid. The id must be free.
func (t *ObjectTable) Put(oid uint32, obj Destroyer) error {
	if oid >= MAX_OIDS {
		return ErrBadOID
	}
	if t.objs[oid] != nil {
		return ErrOIDInUse
	}
	t.objs[oid] = obj
	return nil
}

// Check reports whether oid can take a new object.
func (t *ObjectTable) Check(oid uint32) error {
	if oid >= MAX_OIDS {
		return ErrBadOID
	}
	if t.objs[oid] != nil {
		return ErrOIDInUse
	}
	return nil
}

func (t *ObjectTable) get(oid uint32) (Destroyer, error) {
	if oid >= MAX_OIDS {
		return nil, ErrBadOID
	}
	if t.objs[oid] == nil {
		return nil, ErrOIDNotFound
	}
	return t.objs[oid], nil
}

// PWM returns the ePWM module stored under oid.
func (t *ObjectTable) PWM(oid uint32) (*PWMModule, error) {
	o, err := t.get(oid)
	if err != nil {
		return nil, err
	}
	m, ok := o.(*PWMModule)
	if !ok {
		return nil, ErrWrongObject
	}
	return m, nil
}

// Timer returns the timer channel stored under oid.
func (t *ObjectTable) Timer(oid uint32) (*TimerChannel, error) {
	o, err := t.get(oid)
	if err != nil {
		return nil, err
	}
	tc, ok := o.(*TimerChannel)
	if !ok {
		return nil, ErrWrongObject
	}
	return tc, nil
}

// Pair returns the compare pair stored under oid.
func (t *ObjectTable) Pair(oid uint32) (*PWMPair, error) {
	o, err := t.get(oid)
	if err != nil {
		return nil, err
	}
	p, ok := o.(*PWMPair)
	if !ok {
		return nil, ErrWrongObject
	}
	return p, nil
}

// DestroyAll tears every object down, highest id first so that timers
// configured after their sync master go before it.
func (t *ObjectTable) DestroyAll() {
	for i := len(t.objs) - 1; i >= 0; i-- {
		if t.objs[i] != nil {
			t.objs[i].Destroy()
			t.objs[i] = nil
		}
	}
}

// Count returns the number of configured objects.
func (t *ObjectTable) Count() int {
	n := 0
	for _, o := range t.objs {
		if o != nil {
			n++
		}
	}
	return n
}

// DisableOutputs forces every configured output to its disabled state:
// ePWM pins take their disable policy, pair gates close and timers stop.
// It is safe to call from the abort path.
func (t *ObjectTable) DisableOutputs() {
	for _, o := range t.objs {
		switch v := o.(type) {
		case *PWMModule:
			v.DisableOutputs()
		case *PWMPair:
			v.Disable()
		case *TimerChannel:
			v.Stop()
		}
	}
}
