package tracker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func namedHelper() {}

func TestFuncName(t *testing.T) {
	c := &counter{}

	tests := []struct {
		name string
		fn   any
		want string
	}{
		{"PackageFunc", strings.ToUpper, "ToUpper"},
		{"LocalFunc", namedHelper, "namedHelper"},
		{"MethodValue", c.Incr, "counter.Incr"},
		{"Closure", func() {}, ""},
		{"Nil", nil, ""},
		{"NotAFunc", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuncName(tt.fn))
		})
	}
}

func TestSymbolLabel(t *testing.T) {
	tests := map[string]string{
		"main.main":                         "main",
		"github.com/acme/svc.(*DB).Query":   "DB.Query",
		"github.com/acme/svc.Server.Run-fm": "Server.Run",
		"github.com/acme/svc.init.func1":    "",
		"github.com/acme/svc.Load.func2.1":  "",
		"github.com/acme/svc.glob..func1":   "",
		"github.com/acme/svc.Map[...]":      "Map",
		"nodot":                             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, symbolLabel(in), in)
	}
}
