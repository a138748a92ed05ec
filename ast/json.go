package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode reads a tree in the front end's JSON shape, where every node is
// an object tagged by its "ast" field, e.g.
//
//	{"ast":"BLOCK","elements":[{"ast":"NUMBER","value":1}]}
//
// This is the trust boundary of the pipeline: unknown tags fail with
// ErrUnknownKind and missing required fields are reported.
func Decode(data []byte) (Node, error) {
	d := &decoder{}
	n := d.node(json.RawMessage(data), "root")
	if d.err != nil {
		return nil, d.err
	}
	if n == nil {
		return nil, fmt.Errorf("decoding tree: empty document")
	}
	return n, nil
}

type object map[string]json.RawMessage

// decoder keeps the first error so field reads can be chained.
type decoder struct {
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf(format, args...)
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func (d *decoder) node(raw json.RawMessage, path string) Node {
	if d.err != nil || isNull(raw) {
		return nil
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		d.fail("decoding %s: %w", path, err)
		return nil
	}
	var tag string
	d.value(obj, "ast", &tag, path)
	if d.err != nil {
		return nil
	}
	path = path + "." + tag

	switch tag {
	case "NULL":
		return &Null{}
	case "COMMENT":
		return &Comment{}
	case "BLOCK":
		return &Block{Elements: d.nodes(obj, "elements", path)}
	case "ASSIGNMENT":
		a := &Assignment{Expr: d.required(obj, "expression", path), Ref: d.ref(obj, path)}
		d.value(obj, "identifier", &a.Name, path)
		return a
	case "APPLICATION":
		app := &Application{
			Args:  d.nodes(obj, "args", path),
			Block: d.node(obj["block"], path+".block"),
		}
		d.value(obj, "identifier", &app.Name, path)
		if cache := d.node(obj["cache"], path+".cache"); cache != nil {
			l, ok := cache.(*Lambda)
			if !ok {
				d.fail("decoding %s: cache must be a LAMBDA, got %s", path, cache.Kind())
			}
			app.Cache = l
		}
		d.optional(obj, "argStackPositions", &app.ArgSlots, path)
		return app
	case "IF":
		return &If{
			Predicate: d.required(obj, "predicate", path),
			Then:      d.required(obj, "ifBlock", path),
			Else:      d.node(obj["elseBlock"], path+".elseBlock"),
		}
	case "LAMBDA":
		l := &Lambda{Body: d.required(obj, "body", path)}
		d.value(obj, "argNames", &l.Params, path)
		d.optional(obj, "inlinable", &l.Inlinable, path)
		d.optional(obj, "freeVars", &l.Free, path)
		return l
	case "TIMES":
		t := &Times{Count: d.required(obj, "number", path), Body: d.required(obj, "block", path)}
		d.optional(obj, "loopVar", &t.LoopVar, path)
		return t
	case "DOONCE":
		o := &DoOnce{Body: d.required(obj, "block", path)}
		d.optional(obj, "active", &o.Active, path)
		return o
	case "UNARYOP":
		u := &UnaryOp{X: d.required(obj, "expr1", path)}
		d.value(obj, "operator", &u.Op, path)
		return u
	case "BINARYOP":
		b := &BinaryOp{X: d.required(obj, "expr1", path), Y: d.required(obj, "expr2", path)}
		d.value(obj, "operator", &b.Op, path)
		return b
	case "DEINDEX":
		return &DeIndex{
			Collection: d.required(obj, "collection", path),
			Index:      d.required(obj, "index", path),
		}
	case "NUMBER":
		num := &Num{}
		d.value(obj, "value", &num.Value, path)
		return num
	case "STRING":
		s := &Str{}
		d.value(obj, "value", &s.Value, path)
		return s
	case "VARIABLE":
		v := &Variable{Ref: d.ref(obj, path)}
		d.value(obj, "identifier", &v.Name, path)
		return v
	case "LIST":
		return &List{Elements: d.nodes(obj, "values", path)}
	}
	d.fail("decoding %s: %w: %q", path, ErrUnknownKind, tag)
	return nil
}

func (d *decoder) required(obj object, key, path string) Node {
	if d.err == nil && isNull(obj[key]) {
		d.fail("decoding %s: missing %q", path, key)
		return nil
	}
	return d.node(obj[key], path+"."+key)
}

func (d *decoder) nodes(obj object, key, path string) []Node {
	if d.err != nil {
		return nil
	}
	var raws []json.RawMessage
	d.value(obj, key, &raws, path)
	out := make([]Node, 0, len(raws))
	for i, raw := range raws {
		n := d.node(raw, fmt.Sprintf("%s.%s[%d]", path, key, i))
		if n == nil && d.err == nil {
			d.fail("decoding %s.%s[%d]: null element", path, key, i)
		}
		out = append(out, n)
	}
	return out
}

func (d *decoder) value(obj object, key string, dst any, path string) {
	if d.err != nil {
		return
	}
	raw, ok := obj[key]
	if !ok {
		d.fail("decoding %s: missing %q", path, key)
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		d.fail("decoding %s.%s: %w", path, key, err)
	}
}

func (d *decoder) optional(obj object, key string, dst any, path string) {
	if d.err != nil || isNull(obj[key]) {
		return
	}
	d.value(obj, key, dst, path)
}

func (d *decoder) ref(obj object, path string) Ref {
	var slot *int
	var local bool
	d.optional(obj, "stackPos", &slot, path)
	d.optional(obj, "local", &local, path)
	if slot == nil {
		return Ref{}
	}
	return Ref{Slot: *slot, Resolved: true, Local: local}
}

// Encode writes n in the shape Decode reads.
func Encode(n Node) ([]byte, error) {
	v, err := encode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// EncodeIndent is Encode with indentation, for human consumption.
func EncodeIndent(n Node) ([]byte, error) {
	v, err := encode(n)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

func encodeAll(nodes []Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := encode(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func encodeRef(m map[string]any, ref Ref) {
	if ref.Resolved {
		m["stackPos"] = ref.Slot
		if ref.Local {
			m["local"] = true
		}
	}
}

func encode(n Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	m := map[string]any{"ast": n.Kind().String()}
	var err error
	// set records the first error from a child encoding.
	set := func(key string, v any, e error) {
		if err == nil && e != nil {
			err = e
		}
		m[key] = v
	}
	switch n := n.(type) {
	case *Null, *Comment:
	case *Block:
		v, e := encodeAll(n.Elements)
		set("elements", v, e)
	case *Assignment:
		m["identifier"] = n.Name
		v, e := encode(n.Expr)
		set("expression", v, e)
		encodeRef(m, n.Ref)
	case *Application:
		m["identifier"] = n.Name
		args, e := encodeAll(n.Args)
		set("args", args, e)
		if n.Block != nil {
			v, e := encode(n.Block)
			set("block", v, e)
		}
		if n.Cache != nil {
			v, e := encode(n.Cache)
			set("cache", v, e)
		}
		if n.ArgSlots != nil {
			m["argStackPositions"] = n.ArgSlots
		}
	case *If:
		v, e := encode(n.Predicate)
		set("predicate", v, e)
		v, e = encode(n.Then)
		set("ifBlock", v, e)
		if n.Else != nil {
			v, e = encode(n.Else)
			set("elseBlock", v, e)
		}
	case *Lambda:
		m["argNames"] = n.Params
		m["inlinable"] = n.Inlinable
		v, e := encode(n.Body)
		set("body", v, e)
		if n.Free != nil {
			m["freeVars"] = n.Free
		}
	case *Times:
		v, e := encode(n.Count)
		set("number", v, e)
		v, e = encode(n.Body)
		set("block", v, e)
		if n.LoopVar != "" {
			m["loopVar"] = n.LoopVar
		}
	case *DoOnce:
		m["active"] = n.Active
		v, e := encode(n.Body)
		set("block", v, e)
	case *UnaryOp:
		m["operator"] = n.Op
		v, e := encode(n.X)
		set("expr1", v, e)
	case *BinaryOp:
		m["operator"] = n.Op
		v, e := encode(n.X)
		set("expr1", v, e)
		v, e = encode(n.Y)
		set("expr2", v, e)
	case *DeIndex:
		v, e := encode(n.Collection)
		set("collection", v, e)
		v, e = encode(n.Index)
		set("index", v, e)
	case *Num:
		m["value"] = n.Value
	case *Str:
		m["value"] = n.Value
	case *Variable:
		m["identifier"] = n.Name
		encodeRef(m, n.Ref)
	case *List:
		v, e := encodeAll(n.Elements)
		set("values", v, e)
	default:
		return nil, fmt.Errorf("encoding %T: %w", n, ErrUnknownKind)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
