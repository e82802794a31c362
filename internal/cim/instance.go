package cim

// Instance is a CIM instance: a class name, property values and the instance
// path that addresses it. Properties reuse the Property element so that
// class-origin metadata and qualifiers survive onto the instance.
type Instance struct {
	ClassName  string              `json:"classname"`
	Properties *NameMap[*Property] `json:"properties,omitempty"`
	Path       *InstancePath       `json:"path,omitempty"`
}

// ElementName implements Named.
func (i *Instance) ElementName() string { return i.ClassName }

// DeepCopy returns an independent copy of the instance, including its path.
func (i *Instance) DeepCopy() *Instance {
	out := &Instance{
		ClassName:  i.ClassName,
		Properties: i.Properties.CopyWith((*Property).DeepCopy),
	}
	if i.Path != nil {
		out.Path = i.Path.DeepCopy()
	}
	return out
}

// PropertyValue returns the value of the named property and whether the
// property is present.
func (i *Instance) PropertyValue(name string) (any, bool) {
	p, ok := i.Properties.Get(name)
	if !ok {
		return nil, false
	}
	return p.Value, true
}
