package debugui

import (
	"fmt"
	"image"
	"image/color"
	"reflect"
	"sync"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/orrery/ecs"
)

// FieldInfo describes one exported field of a component type.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Index     int
	IsPointer bool
	IsStruct  bool
}

// FieldCache memoizes the exported fields of struct types.
type FieldCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

func NewFieldCache() *FieldCache {
	return &FieldCache{fields: make(map[reflect.Type][]FieldInfo)}
}

// Fields returns the exported fields of t, or nil if t is not a struct.
func (c *FieldCache) Fields(t reflect.Type) []FieldInfo {
	c.mu.RLock()
	cached, ok := c.fields[t]
	c.mu.RUnlock()
	if ok {
		return cached
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.fields[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Ptr
			if isPointer {
				fieldType = fieldType.Elem()
			}
			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Index:     i,
				IsPointer: isPointer,
				IsStruct:  fieldType.Kind() == reflect.Struct,
			})
		}
	}

	c.fields[t] = fields
	return fields
}

var (
	entityRefType = reflect.TypeFor[ecs.EntityRef]()
	nrgbaType     = reflect.TypeFor[image.NRGBA]()
	colorType     = reflect.TypeFor[color.NRGBA]()
)

// Inspector edits the components of one entity in place. Numbers and
// booleans are editable; strings, references and images are shown read-only.
type Inspector struct {
	fields *FieldCache
}

func NewInspector() *Inspector {
	return &Inspector{fields: NewFieldCache()}
}

// Render draws a tree node per component of id.
func (in *Inspector) Render(storage *ecs.Storage, id ecs.EntityId) {
	archetype := storage.ArchetypeOf(id)
	if archetype == nil {
		imgui.Text(fmt.Sprintf("Entity %d is gone", id))
		return
	}

	imgui.Text(fmt.Sprintf("Entity %d in archetype 0x%X", id, archetype.ID()))
	for _, compType := range archetype.Types() {
		component := storage.GetComponent(id, compType)
		if component == nil {
			continue
		}
		fields := in.fields.Fields(compType)
		if len(fields) == 0 {
			imgui.BulletText(compType.Name())
			continue
		}
		if imgui.TreeNodeStr(compType.Name()) {
			in.renderStruct(compType.Name(), reflect.ValueOf(component).Elem(), fields)
			imgui.TreePop()
		}
	}
}

func (in *Inspector) renderStruct(path string, val reflect.Value, fields []FieldInfo) {
	for _, field := range fields {
		in.renderField(path+"."+field.Name, field, val.Field(field.Index))
	}
}

func (in *Inspector) renderField(id string, field FieldInfo, val reflect.Value) {
	name := field.Name
	if field.IsPointer {
		if val.IsNil() {
			imgui.Text(fmt.Sprintf("%s: nil", name))
			return
		}
		switch field.Type {
		case entityRefType:
			ref := val.Interface().(*ecs.EntityRef)
			if ref.Valid() {
				imgui.Text(fmt.Sprintf("%s: entity %d", name, ref.Id))
			} else {
				imgui.Text(fmt.Sprintf("%s: dangling", name))
			}
			return
		case nrgbaType:
			bounds := val.Interface().(*image.NRGBA).Bounds()
			imgui.Text(fmt.Sprintf("%s: %dx%d image", name, bounds.Dx(), bounds.Dy()))
			return
		}
		val = val.Elem()
	}

	if field.Type == colorType {
		c := val.Interface().(color.NRGBA)
		imgui.Text(fmt.Sprintf("%s: #%02x%02x%02x%02x", name, c.R, c.G, c.B, c.A))
		return
	}

	switch val.Kind() {
	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat("##"+id, &v) && val.CanSet() {
			val.SetFloat(float64(v))
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s, ok := val.Interface().(fmt.Stringer); ok {
			imgui.Text(fmt.Sprintf("%s: %s", name, s))
			return
		}
		imgui.Text(fmt.Sprintf("%s: %d", name, val.Int()))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		imgui.Text(fmt.Sprintf("%s: %d", name, val.Uint()))

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name+"##"+id, &v) && val.CanSet() {
			val.SetBool(v)
		}

	case reflect.String:
		imgui.Text(fmt.Sprintf("%s: %s", name, val.String()))

	case reflect.Struct:
		if imgui.TreeNodeStr(name + "##" + id) {
			in.renderStruct(id, val, in.fields.Fields(val.Type()))
			imgui.TreePop()
		}

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}
