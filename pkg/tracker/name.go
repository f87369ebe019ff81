package tracker

import (
	"reflect"
	"runtime"
	"strings"
)

// Anonymous is the label of calls whose name cannot be determined
const Anonymous = "anonymous"

// FuncName derives a label from a function's symbol name.
// "pkg.Load" gives "Load", a method value "(*Service).Load-fm" gives
// "Service.Load". Closures give "" so the caller falls back to Anonymous.
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	return symbolLabel(rf.Name())
}

func symbolLabel(name string) string {
	// Generic instantiation brackets may contain slashes and dots
	if i := strings.Index(name, "["); i >= 0 {
		if j := strings.LastIndex(name, "]"); j > i {
			name = name[:i] + name[j+1:]
		}
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	// drop the package name
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	} else {
		return ""
	}
	name = strings.TrimSuffix(name, "-fm")
	name = strings.NewReplacer("(*", "", "(", "", ")", "").Replace(name)

	for _, part := range strings.Split(name, ".") {
		if part == "" || isClosureSegment(part) {
			return ""
		}
	}
	return name
}

func isClosureSegment(part string) bool {
	if strings.HasPrefix(part, "func") {
		rest := part[len("func"):]
		if rest == "" {
			return true
		}
		for _, r := range rest {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	// nested closure suffixes like ".func1.2"
	for _, r := range part {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
