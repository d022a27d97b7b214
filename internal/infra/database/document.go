package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
)

// Document field names shared by the json and bson encodings of entity.Base.
const (
	fieldID        = "_id"
	fieldDisabled  = "disabled"
	fieldUpdatedAt = "updatedAt"
	fieldUpdatedBy = "updatedBy"
)

func encodeDocs(docs []entity.Entity) (map[string][]byte, []string, error) {
	raw := make(map[string][]byte, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		id := d.GetID()
		if id == "" {
			return nil, nil, entity.ErrIDIsRequired
		}
		b, err := json.Marshal(d)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s: %w", id, err)
		}
		raw[id] = b
		ids = append(ids, id)
	}
	return raw, ids, nil
}

// disablePatch flags a json document disabled and stamps it.
func disablePatch(raw []byte, audit outbound.Audit) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	at, err := json.Marshal(audit.At)
	if err != nil {
		return nil, err
	}
	actor, _ := json.Marshal(audit.ActorID)
	doc[fieldDisabled] = json.RawMessage("true")
	doc[fieldUpdatedAt] = at
	doc[fieldUpdatedBy] = actor
	return json.Marshal(doc)
}

// decodeList decodes json documents into out, a pointer to a slice. An empty input
// still yields an empty, non-nil slice.
func decodeList(docs [][]byte, out any) error {
	if err := requireSlicePtr(out); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, d := range docs {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(d)
	}
	buf.WriteByte(']')
	return json.Unmarshal(buf.Bytes(), out)
}

func requireSlicePtr(out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("destination must be a pointer to a slice, got %T", out)
	}
	return nil
}

var fieldCache sync.Map

// projectedFields lists the document field names of the element type of out
// (a pointer to a slice) for the given struct tag. Embedded structs are flattened.
func projectedFields(out any, tag string) ([]string, error) {
	if err := requireSlicePtr(out); err != nil {
		return nil, err
	}
	elem := reflect.TypeOf(out).Elem().Elem()
	for elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("projection type %s is not a struct", elem)
	}
	key := tag + ":" + elem.PkgPath() + "." + elem.Name()
	if cached, ok := fieldCache.Load(key); ok {
		return cached.([]string), nil
	}
	fields := collectFields(elem, tag, nil)
	fieldCache.Store(key, fields)
	return fields, nil
}

func collectFields(t reflect.Type, tag string, acc []string) []string {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		inline := strings.Contains(opts, "inline")
		if f.Anonymous && (inline || name == "") && f.Type.Kind() == reflect.Struct {
			acc = collectFields(f.Type, tag, acc)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
			if tag == "bson" {
				name = strings.ToLower(name)
			}
		}
		acc = append(acc, name)
	}
	return acc
}

func utcNow() time.Time { return time.Now().UTC() }

func jsonUnmarshal(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}
