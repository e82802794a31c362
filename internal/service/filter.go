package service

import (
	"strings"

	"github.com/cimlab/wbemsim/internal/cim"
)

// propertySet builds a case-insensitive lookup set from a PropertyList. A
// nil list means "all properties" and yields a nil set; an empty list means
// "no properties". Duplicates are tolerated.
func propertySet(list []string) map[string]bool {
	if list == nil {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, name := range list {
		set[strings.ToLower(name)] = true
	}
	return set
}

// intersectPropertyLists restricts base to the names also present in list.
// A nil list leaves base unchanged.
func intersectPropertyLists(base []string, list []string) []string {
	set := propertySet(list)
	if set == nil {
		return base
	}
	out := make([]string, 0, len(base))
	for _, name := range base {
		if set[strings.ToLower(name)] {
			out = append(out, name)
		}
	}
	return out
}

// filterClass applies the DSP0200 result filters to a class copy, in place.
func filterClass(cls *cim.Class, localOnly, includeQualifiers, includeClassOrigin bool, propertyList []string) {
	if localOnly {
		for _, name := range cls.Properties.Names() {
			if p, _ := cls.Properties.Get(name); p.Propagated {
				cls.Properties.Delete(name)
			}
		}
		for _, name := range cls.Methods.Names() {
			if m, _ := cls.Methods.Get(name); m.Propagated {
				cls.Methods.Delete(name)
			}
		}
	}

	if set := propertySet(propertyList); set != nil {
		for _, name := range cls.Properties.Names() {
			if !set[strings.ToLower(name)] {
				cls.Properties.Delete(name)
			}
		}
	}

	if !includeQualifiers {
		cls.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		for p := range cls.Properties.All() {
			p.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
		for m := range cls.Methods.All() {
			m.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
			for param := range m.Parameters.All() {
				param.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
			}
		}
	}

	if !includeClassOrigin {
		for p := range cls.Properties.All() {
			p.ClassOrigin = ""
		}
		for m := range cls.Methods.All() {
			m.ClassOrigin = ""
			for param := range m.Parameters.All() {
				param.ClassOrigin = ""
			}
		}
	}
}

// filterInstance applies the DSP0200 result filters to an instance copy, in
// place. LocalOnly keeps only properties originating in the instance's own
// creation class.
func filterInstance(inst *cim.Instance, localOnly, includeQualifiers, includeClassOrigin bool, propertyList []string) {
	if localOnly {
		for _, name := range inst.Properties.Names() {
			p, _ := inst.Properties.Get(name)
			if p.ClassOrigin != "" && !cim.NameEqual(p.ClassOrigin, inst.ClassName) {
				inst.Properties.Delete(name)
			}
		}
	}

	if set := propertySet(propertyList); set != nil {
		for _, name := range inst.Properties.Names() {
			if !set[strings.ToLower(name)] {
				inst.Properties.Delete(name)
			}
		}
	}

	if !includeQualifiers {
		for p := range inst.Properties.All() {
			p.Qualifiers = cim.NewNameMap[*cim.Qualifier]()
		}
	}

	if !includeClassOrigin {
		for p := range inst.Properties.All() {
			p.ClassOrigin = ""
		}
	}
}
