package vdms

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "vdms"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ reflect.Type

	idIdx      int
	contentIdx int

	// Mapping from struct field index to metadata property name.
	metaFields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts vdms struct tag metadata.
// Tags take the form `vdms:"name"` with optional ",id" or ",content"
// modifiers; exactly one id field is required.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("vdms: type %v is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1, contentIdx: -1}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("vdms: type %s has no `%s:\",id\"` field", t, tagKey)
	}
	return meta, nil
}

func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}

	switch modifier {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("vdms: duplicate id tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("vdms: id field %s must be a string", f.Name)
		}
		meta.idIdx = idx
	case "content":
		if meta.contentIdx != -1 {
			return fmt.Errorf("vdms: duplicate content tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("vdms: content field %s must be a string", f.Name)
		}
		meta.contentIdx = idx
	case "":
		meta.metaFields = append(meta.metaFields, fieldMapping{structIdx: idx, name: name})
	default:
		return fmt.Errorf("vdms: unknown tag modifier %q on field %s", modifier, f.Name)
	}
	return nil
}

// toDocument flattens a tagged struct into a Document.
func (m *schemaMeta) toDocument(item any) Document {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	doc := Document{ID: v.Field(m.idIdx).String()}
	if m.contentIdx != -1 {
		doc.Content = v.Field(m.contentIdx).String()
	}
	if len(m.metaFields) > 0 {
		doc.Metadata = make(map[string]any, len(m.metaFields))
		for _, fm := range m.metaFields {
			doc.Metadata[fm.name] = v.Field(fm.structIdx).Interface()
		}
	}
	return doc
}

// fromDocument rebuilds a tagged struct from a Document. Metadata values
// are converted to the field type where the dynamic type differs, since
// numbers come back from the server as float64.
func (m *schemaMeta) fromDocument(doc Document) (any, error) {
	v := reflect.New(m.typ).Elem()
	v.Field(m.idIdx).SetString(doc.ID)
	if m.contentIdx != -1 {
		v.Field(m.contentIdx).SetString(doc.Content)
	}
	for _, fm := range m.metaFields {
		raw, ok := doc.Metadata[fm.name]
		if !ok || raw == nil {
			continue
		}
		field := v.Field(fm.structIdx)
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(field.Type()) {
			if !rv.Type().ConvertibleTo(field.Type()) {
				return nil, fmt.Errorf("vdms: metadata %q has type %T, want %s",
					fm.name, raw, field.Type())
			}
			rv = rv.Convert(field.Type())
		}
		field.Set(rv)
	}
	return v.Interface(), nil
}
