package tracker

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapFunc returns a tracked function of the same type as fn, for any
// signature. A leading context.Context parameter carries nesting into
// the call. A trailing error result marks the call failed when non-nil.
// A *Future result makes the call async: it stays open until the
// future settles.
func (t *Tracker) WrapFunc(fn any, opts ...Option) (any, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, invalidArgument("wrap", collect(opts).label, "fn is not a function")
	}
	opts = t.pinLabel(fn, opts)
	return t.wrapValue(v, collect(opts)).Interface(), nil
}

func (t *Tracker) wrapValue(v reflect.Value, o callOptions) reflect.Value {
	typ := v.Type()
	takesCtx := typ.NumIn() > 0 && typ.In(0) == contextType
	errIdx := -1
	if n := typ.NumOut(); n > 0 && typ.Out(n-1) == errorType {
		errIdx = n - 1
	}

	call := func(args []reflect.Value) []reflect.Value {
		if typ.IsVariadic() {
			return v.CallSlice(args)
		}
		return v.Call(args)
	}

	return reflect.MakeFunc(typ, func(args []reflect.Value) []reflect.Value {
		if !t.sampled() {
			t.skip()
			return call(args)
		}

		ctx := context.Background()
		if takesCtx && !args[0].IsNil() {
			ctx = args[0].Interface().(context.Context)
		}
		f, fctx := t.enter(ctx, t.resolve(o, nil))
		if takesCtx {
			in := make([]reflect.Value, len(args))
			copy(in, args)
			in[0] = reflect.ValueOf(fctx)
			args = in
		}

		panicked := true
		defer func() {
			if panicked {
				t.exit(f, nil, true)
			}
		}()
		out := call(args)
		panicked = false

		var err error
		if errIdx >= 0 && !out[errIdx].IsNil() {
			err = out[errIdx].Interface().(error)
		}
		if err == nil {
			for i, res := range out {
				p, ok := asPending(res)
				if !ok {
					continue
				}
				t.detach(f)
				out[i] = reflect.ValueOf(p.observe(func(err error) { t.exit(f, err, false) }))
				return out
			}
		}
		t.exit(f, err, false)
		return out
	})
}

func asPending(v reflect.Value) (pending, bool) {
	if v.Kind() != reflect.Ptr || v.IsNil() || !v.CanInterface() {
		return nil, false
	}
	p, ok := v.Interface().(pending)
	return p, ok
}

// RegisterModule returns a copy of module whose function-valued members
// are tracked, each labelled prefix+name. module may be a struct, a
// pointer to a struct, or a map with string keys. Struct copies keep
// their concrete type; only exported func fields are wrapped. The
// original is not modified.
func (t *Tracker) RegisterModule(module any, opts ...Option) (any, error) {
	o := collect(opts)
	v := reflect.ValueOf(module)
	if !v.IsValid() {
		return nil, invalidArgument("register_module", o.prefix, "module is nil")
	}

	switch {
	case v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String:
		if v.IsNil() {
			return nil, invalidArgument("register_module", o.prefix, "module is nil")
		}
		return t.registerMap(v, o).Interface(), nil
	case v.Kind() == reflect.Struct:
		return t.registerStruct(v, o).Interface(), nil
	case v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct:
		if v.IsNil() {
			return nil, invalidArgument("register_module", o.prefix, "module is nil")
		}
		return t.registerStruct(v.Elem(), o).Addr().Interface(), nil
	default:
		return nil, invalidArgument("register_module", o.prefix, "module must be a struct, a pointer to a struct or a map with string keys, got "+v.Type().String())
	}
}

func (t *Tracker) memberOptions(o callOptions, name string) callOptions {
	member := o
	member.label = o.prefix + name
	return member
}

func (t *Tracker) registerStruct(v reflect.Value, o callOptions) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	out.Set(v)
	typ := v.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		fv := out.Field(i)
		if !field.IsExported() || fv.Kind() != reflect.Func || fv.IsNil() {
			continue
		}
		fv.Set(t.wrapValue(fv, t.memberOptions(o, field.Name)))
	}
	return out
}

func (t *Tracker) registerMap(v reflect.Value, o callOptions) reflect.Value {
	out := reflect.MakeMapWithSize(v.Type(), v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, val := iter.Key(), iter.Value()
		fn := val
		if fn.Kind() == reflect.Interface && !fn.IsNil() {
			fn = fn.Elem()
		}
		if fn.Kind() == reflect.Func && !fn.IsNil() {
			wrapped := t.wrapValue(fn, t.memberOptions(o, key.String()))
			out.SetMapIndex(key, wrapped)
			continue
		}
		out.SetMapIndex(key, val)
	}
	return out
}
