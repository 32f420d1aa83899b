package nasal

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/funvibe/nasal/internal/heap"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Marshaller converts between Go values and heap values.
type Marshaller struct {
	h *heap.Heap
}

func NewMarshaller(h *heap.Heap) *Marshaller {
	return &Marshaller{h: h}
}

// ToValue converts a Go value to a new owned heap reference.
// Booleans become 1 or 0, slices and arrays become vectors, maps with string
// keys and structs become hashes, and functions become native functions.
func (m *Marshaller) ToValue(val interface{}) (heap.Ref, error) {
	if val == nil {
		return m.h.NewNil(), nil
	}
	if r, ok := val.(heap.Ref); ok {
		return m.h.Load(r), nil
	}
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return m.toValue(v)
}

func (m *Marshaller) toValue(v reflect.Value) (heap.Ref, error) {
	if !v.IsValid() {
		return m.h.NewNil(), nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return m.h.NewNumber(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return m.h.NewNumber(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return m.h.NewNumber(v.Float()), nil
	case reflect.Bool:
		if v.Bool() {
			return m.h.NewNumber(1), nil
		}
		return m.h.NewNumber(0), nil
	case reflect.String:
		return m.h.NewString(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return m.h.NewNil(), nil
		}
		return m.sliceToVector(v)
	case reflect.Map:
		return m.mapToHash(v)
	case reflect.Struct:
		return m.structToHash(v)
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return m.h.NewNil(), nil
		}
		return m.toValue(v.Elem())
	case reflect.Func:
		if v.IsNil() {
			return m.h.NewNil(), nil
		}
		return m.h.Alloc(&heap.Function{Native: m.hostCall(v)}), nil
	}
	return heap.Ref{}, fmt.Errorf("unsupported Go type %s", v.Type())
}

func (m *Marshaller) sliceToVector(v reflect.Value) (heap.Ref, error) {
	elems := make([]heap.Ref, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		el, err := m.toValue(v.Index(i))
		if err != nil {
			m.releaseAll(elems)
			return heap.Ref{}, fmt.Errorf("element %d: %w", i, err)
		}
		elems = append(elems, el)
	}
	return m.h.NewVector(elems...), nil
}

func (m *Marshaller) mapToHash(v reflect.Value) (heap.Ref, error) {
	if v.Type().Key().Kind() != reflect.String {
		return heap.Ref{}, fmt.Errorf("map key type %s: hash keys must be strings", v.Type().Key())
	}
	hash := m.h.NewHash()
	iter := v.MapRange()
	for iter.Next() {
		val, err := m.toValue(iter.Value())
		if err != nil {
			m.h.Release(hash)
			return heap.Ref{}, fmt.Errorf("map value %q: %w", iter.Key().String(), err)
		}
		if _, err := m.h.SetMember(hash, iter.Key().String(), val); err != nil {
			m.h.Release(hash)
			return heap.Ref{}, err
		}
	}
	return hash, nil
}

func (m *Marshaller) structToHash(v reflect.Value) (heap.Ref, error) {
	hash := m.h.NewHash()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" { // Skip unexported fields
			continue
		}
		val, err := m.toValue(v.Field(i))
		if err != nil {
			m.h.Release(hash)
			return heap.Ref{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if _, err := m.h.SetMember(hash, field.Name, val); err != nil {
			m.h.Release(hash)
			return heap.Ref{}, err
		}
	}
	return hash, nil
}

// FromValue converts a heap value to a Go value. targetType is optional; if
// provided, the result is converted to it. Without a target, numbers become
// float64, vectors []interface{} and hashes map[string]interface{}.
func (m *Marshaller) FromValue(r heap.Ref, targetType reflect.Type) (interface{}, error) {
	switch v := m.h.Get(r).(type) {
	case heap.Nil:
		return nil, nil
	case *heap.Number:
		if targetType == nil {
			return v.Value, nil
		}
		return convert(reflect.ValueOf(v.Value), targetType)
	case *heap.String:
		if targetType == nil {
			return v.Value, nil
		}
		return convert(reflect.ValueOf(v.Value), targetType)
	case *heap.Vector:
		return m.vectorToSlice(v, targetType)
	case *heap.Hash:
		return m.hashToMap(v, targetType)
	case *heap.Function:
		return nil, errors.New("functions cannot be converted to Go values")
	}
	return nil, fmt.Errorf("unsupported value kind %s", m.h.Kind(r))
}

func convert(v reflect.Value, target reflect.Type) (interface{}, error) {
	if target.Kind() == reflect.Interface && v.Type().Implements(target) {
		return v.Interface(), nil
	}
	if v.Kind() == reflect.Float64 && target.Kind() == reflect.Bool {
		return v.Float() != 0, nil
	}
	if v.Kind() != target.Kind() && (v.Kind() == reflect.String || target.Kind() == reflect.String) {
		return nil, fmt.Errorf("cannot convert %s to %s", v.Type(), target)
	}
	if !v.Type().ConvertibleTo(target) {
		return nil, fmt.Errorf("cannot convert %s to %s", v.Type(), target)
	}
	return v.Convert(target).Interface(), nil
}

func (m *Marshaller) vectorToSlice(vec *heap.Vector, targetType reflect.Type) (interface{}, error) {
	// If targetType is nil, default to []interface{}
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil {
		if targetType.Kind() != reflect.Slice {
			if targetType.Kind() != reflect.Interface {
				return nil, fmt.Errorf("cannot convert vector to %s", targetType)
			}
		} else {
			elemType = targetType.Elem()
		}
	}

	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, vec.Len())
	for i, c := range vec.Elems {
		el, err := m.FromValue(m.h.Read(c), elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		slice = reflect.Append(slice, valueOf(el, elemType))
	}
	return slice.Interface(), nil
}

func (m *Marshaller) hashToMap(hash *heap.Hash, targetType reflect.Type) (interface{}, error) {
	mapType := reflect.TypeOf(map[string]interface{}{})
	if targetType != nil && targetType.Kind() == reflect.Map {
		if targetType.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot convert hash to %s", targetType)
		}
		mapType = targetType
	} else if targetType != nil && targetType.Kind() != reflect.Interface {
		return nil, fmt.Errorf("cannot convert hash to %s", targetType)
	}

	names := make([]string, 0, len(hash.Members))
	for name := range hash.Members {
		names = append(names, name)
	}
	sort.Strings(names)

	result := reflect.MakeMapWithSize(mapType, len(names))
	for _, name := range names {
		val, err := m.FromValue(m.h.Read(hash.Members[name]), mapType.Elem())
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}
		result.SetMapIndex(reflect.ValueOf(name).Convert(mapType.Key()), valueOf(val, mapType.Elem()))
	}
	return result.Interface(), nil
}

// valueOf wraps v for storage in a slot of type t; nil becomes the zero value.
func valueOf(v interface{}, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

// hostCall adapts a Go function to a native function. A trailing error
// result is returned as the call's error; several other results form a
// vector.
func (m *Marshaller) hostCall(fn reflect.Value) heap.NativeFunc {
	return func(args []heap.Ref) (heap.Ref, error) {
		fnType := fn.Type()
		numIn := fnType.NumIn()
		isVariadic := fnType.IsVariadic()

		// Check arg count
		if isVariadic {
			if len(args) < numIn-1 {
				return heap.Ref{}, fmt.Errorf("expected at least %d arguments, got %d", numIn-1, len(args))
			}
		} else if len(args) != numIn {
			return heap.Ref{}, fmt.Errorf("expected %d arguments, got %d", numIn, len(args))
		}

		goArgs := make([]reflect.Value, len(args))
		for i, arg := range args {
			var targetType reflect.Type
			if isVariadic && i >= numIn-1 {
				targetType = fnType.In(numIn - 1).Elem()
			} else {
				targetType = fnType.In(i)
			}
			val, err := m.FromValue(arg, targetType)
			if err != nil {
				return heap.Ref{}, fmt.Errorf("argument %d: %w", i, err)
			}
			goArgs[i] = valueOf(val, targetType)
		}

		results := fn.Call(goArgs)
		if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
			if err, _ := results[n-1].Interface().(error); err != nil {
				return heap.Ref{}, err
			}
			results = results[:n-1]
		}
		switch len(results) {
		case 0:
			return m.h.NewNil(), nil
		case 1:
			return m.toValue(results[0])
		}
		elems := make([]heap.Ref, 0, len(results))
		for _, res := range results {
			val, err := m.toValue(res)
			if err != nil {
				m.releaseAll(elems)
				return heap.Ref{}, err
			}
			elems = append(elems, val)
		}
		return m.h.NewVector(elems...), nil
	}
}

func (m *Marshaller) releaseAll(refs []heap.Ref) {
	for _, r := range refs {
		m.h.Release(r)
	}
}
