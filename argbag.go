package metrisca

// ArgumentList is the string-keyed heterogeneous argument bag used to
// configure any plugin. Consumers call the typed getters below; a missing
// key or a type mismatch both come back as "not found" so the caller can
// decide whether that is a MissingArgument or an InvalidArgument.
type ArgumentList struct {
	values map[string]interface{}
}

// NewArgumentList returns an empty, ready to use argument bag.
func NewArgumentList() *ArgumentList {
	return &ArgumentList{values: make(map[string]interface{})}
}

// Canonical argument key names, grounded on arg_list.hpp's ARG_NAME_* macros.
const (
	ArgDataset                   = "dataset"
	ArgModel                     = "model"
	ArgDistinguisher             = "distinguisher"
	ArgProfiler                  = "profiler"
	ArgTraceCount                = "traces"
	ArgByteIndex                 = "byte"
	ArgTraceStep                 = "step"
	ArgKnownKey                  = "key"
	ArgOutputFile                = "out"
	ArgOrder                     = "order"
	ArgSigma                     = "sigma"
	ArgIntegrationLowerBound     = "lower"
	ArgIntegrationUpperBound     = "upper"
	ArgIntegrationSampleCount    = "samples"
	ArgTrainingDataset           = "training"
	ArgTestingDataset            = "testing"
	ArgFixedDataset              = "fixed"
	ArgRandomDataset             = "random"
	ArgEnumeratedKeyCount        = "enumerated-key-count"
	ArgOutputEnumeratedKeyCount  = "output-key-count"
	ArgSubkey                    = "subkey"
	ArgBinSize                   = "bin-size"
	ArgSampleStart               = "start"
	ArgSampleEnd                 = "end"
	ArgScore                     = "scores"
	ArgPoiCount                  = "poi-count"
)

func (a *ArgumentList) get(name string) (interface{}, bool) {
	if a == nil || a.values == nil {
		return nil, false
	}
	v, ok := a.values[name]
	return v, ok
}

func (a *ArgumentList) set(name string, value interface{}) {
	if a.values == nil {
		a.values = make(map[string]interface{})
	}
	a.values[name] = value
}

// HasArgument reports whether name was set, regardless of its type.
func (a *ArgumentList) HasArgument(name string) bool {
	_, ok := a.get(name)
	return ok
}

func (a *ArgumentList) GetUint8(name string) (uint8, bool) {
	v, ok := a.get(name)
	if !ok {
		return 0, false
	}
	r, ok := v.(uint8)
	return r, ok
}

func (a *ArgumentList) SetUint8(name string, value uint8) { a.set(name, value) }

func (a *ArgumentList) GetInt32(name string) (int32, bool) {
	v, ok := a.get(name)
	if !ok {
		return 0, false
	}
	r, ok := v.(int32)
	return r, ok
}

func (a *ArgumentList) SetInt32(name string, value int32) { a.set(name, value) }

func (a *ArgumentList) GetUint32(name string) (uint32, bool) {
	v, ok := a.get(name)
	if !ok {
		return 0, false
	}
	r, ok := v.(uint32)
	return r, ok
}

func (a *ArgumentList) SetUint32(name string, value uint32) { a.set(name, value) }

func (a *ArgumentList) GetBool(name string) (bool, bool) {
	v, ok := a.get(name)
	if !ok {
		return false, false
	}
	r, ok := v.(bool)
	return r, ok
}

func (a *ArgumentList) SetBool(name string, value bool) { a.set(name, value) }

func (a *ArgumentList) GetFloat64(name string) (float64, bool) {
	v, ok := a.get(name)
	if !ok {
		return 0, false
	}
	r, ok := v.(float64)
	return r, ok
}

func (a *ArgumentList) SetFloat64(name string, value float64) { a.set(name, value) }

func (a *ArgumentList) GetString(name string) (string, bool) {
	v, ok := a.get(name)
	if !ok {
		return "", false
	}
	r, ok := v.(string)
	return r, ok
}

func (a *ArgumentList) SetString(name string, value string) { a.set(name, value) }

// Dataset is a narrow interface satisfied by *dataset.Dataset, redeclared
// here (rather than imported) to avoid a dependency cycle between the root
// package and the dataset package, which itself imports this package.
type Dataset interface {
	Size() uint32
}

func (a *ArgumentList) GetDataset(name string) (Dataset, bool) {
	v, ok := a.get(name)
	if !ok {
		return nil, false
	}
	r, ok := v.(Dataset)
	return r, ok
}

func (a *ArgumentList) SetDataset(name string, value Dataset) { a.set(name, value) }

// UintTuple is the (u32, u32) pair used for half-open sample windows.
type UintTuple struct {
	First, Second uint32
}

func (a *ArgumentList) GetUintTuple(name string) (UintTuple, bool) {
	v, ok := a.get(name)
	if !ok {
		return UintTuple{}, false
	}
	r, ok := v.(UintTuple)
	return r, ok
}

func (a *ArgumentList) SetUintTuple(name string, value UintTuple) { a.set(name, value) }

func (a *ArgumentList) GetSubList(name string) ([]*ArgumentList, bool) {
	v, ok := a.get(name)
	if !ok {
		return nil, false
	}
	r, ok := v.([]*ArgumentList)
	return r, ok
}

func (a *ArgumentList) SetSubList(name string, value []*ArgumentList) { a.set(name, value) }

// Clear empties the bag, mirroring ArgumentList::Clear in the original.
func (a *ArgumentList) Clear() {
	a.values = make(map[string]interface{})
}
