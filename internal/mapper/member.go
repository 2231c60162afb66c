package mapper

import (
	"reflect"
	"strings"
	"sync"
)

// Member is one writable target of a struct: a setter method or a field.
type Member struct {
	Name string
	Type reflect.Type
	// Assign stores v (of Type) into obj, an addressable struct value.
	Assign func(obj, v reflect.Value) error
}

// Resolver picks the member a column populates. Returning false skips the
// column.
type Resolver func(t reflect.Type, column string) (Member, bool)

type structIndex struct {
	setters map[string]Member // lower-case property name -> setter
	fields  map[string]Member // lower-case column name -> field
}

var indexes sync.Map // reflect.Type -> *structIndex

// DefaultResolver prefers a setter method Set<Column>(v) on *T, then an
// exported field matched by `db` tag or by name, case-insensitively.
// Embedded structs are walked; `db:"-"` hides a field.
func DefaultResolver(t reflect.Type, column string) (Member, bool) {
	idx := indexOf(t)
	key := strings.ToLower(column)
	if m, ok := idx.setters[key]; ok {
		return m, true
	}
	m, ok := idx.fields[key]
	return m, ok
}

func indexOf(t reflect.Type) *structIndex {
	if v, ok := indexes.Load(t); ok {
		return v.(*structIndex)
	}
	v, _ := indexes.LoadOrStore(t, buildIndex(t))
	return v.(*structIndex)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func buildIndex(t reflect.Type) *structIndex {
	idx := &structIndex{
		setters: make(map[string]Member),
		fields:  make(map[string]Member),
	}

	pt := reflect.PointerTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		meth := pt.Method(i)
		if !strings.HasPrefix(meth.Name, "Set") || len(meth.Name) == 3 {
			continue
		}
		mt := meth.Type // receiver is In(0)
		if mt.NumIn() != 2 || mt.NumOut() > 1 || (mt.NumOut() == 1 && mt.Out(0) != errorType) {
			continue
		}
		idx.setters[strings.ToLower(meth.Name[3:])] = setterMember(meth)
	}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		type embedded struct {
			t    reflect.Type
			path []int
		}
		var nested []embedded
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous {
				continue
			}
			tag := sf.Tag.Get("db")
			if tag == "-" {
				continue
			}
			path := append(append([]int(nil), base...), i)

			if sf.Anonymous && tag == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					if sf.PkgPath != "" {
						continue // cannot allocate through an unexported pointer
					}
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					nested = append(nested, embedded{ft, path})
					continue
				}
			}
			if sf.PkgPath != "" {
				continue
			}

			name := tag
			if name == "" {
				name = sf.Name
			}
			key := strings.ToLower(name)
			// outer fields shadow embedded ones
			if _, seen := idx.fields[key]; !seen {
				idx.fields[key] = fieldMember(sf.Name, sf.Type, path)
			}
		}
		for _, e := range nested {
			walk(e.t, e.path)
		}
	}
	walk(t, nil)
	return idx
}

func setterMember(meth reflect.Method) Member {
	mt := meth.Type
	index := meth.Index
	returnsErr := mt.NumOut() == 1
	return Member{
		Name: meth.Name,
		Type: mt.In(1),
		Assign: func(obj, v reflect.Value) error {
			out := obj.Addr().Method(index).Call([]reflect.Value{v})
			if returnsErr && !out[0].IsNil() {
				return out[0].Interface().(error)
			}
			return nil
		},
	}
}

func fieldMember(name string, typ reflect.Type, path []int) Member {
	return Member{
		Name: name,
		Type: typ,
		Assign: func(obj, v reflect.Value) error {
			fieldByPathAlloc(obj, path).Set(v)
			return nil
		},
	}
}

// fieldByPathAlloc walks path, allocating nil embedded pointers on the way.
func fieldByPathAlloc(v reflect.Value, path []int) reflect.Value {
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(i)
	}
	return v
}
