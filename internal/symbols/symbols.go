package symbols

import "fmt"

// Id is a globally unique identifier with an attached debug name. Ids are
// minted only by a Table's fresh counter (the built-in Std module and its
// functions included), so two distinct declarations never share one.
type Id int32

const NoId Id = 0

// Type is the sum of Amy's monomorphic types.
type Type struct {
	K     TypeKind
	Class Id // set when K == TClass
}

type TypeKind int

const (
	TInt TypeKind = iota
	TBoolean
	TString
	TUnit
	TClass
)

func IntType() Type     { return Type{K: TInt} }
func BooleanType() Type { return Type{K: TBoolean} }
func StringType() Type  { return Type{K: TString} }
func UnitType() Type    { return Type{K: TUnit} }
func ClassType(id Id) Type {
	return Type{K: TClass, Class: id}
}

func (t Type) Equals(o Type) bool {
	return t.K == o.K && t.Class == o.Class
}

// FunSig describes a function: argument types, return type, owning module.
type FunSig struct {
	Params []Type
	Ret    Type
	Owner  Id
}

// ConstrSig describes a case-class constructor. Index is the 0-based
// declaration order among the siblings of its parent; it becomes the
// runtime tag.
type ConstrSig struct {
	Params []Type
	Parent Id
	Index  int
	Owner  Id
}

// Table is the process-local symbol registry. It is built by the name
// analyzer and frozen before the later stages see it.
type Table struct {
	next   Id
	names  map[Id]string
	frozen bool

	modules       map[Id]string // module id -> name
	modulesByName map[string]Id

	types      map[Id]Id // type id -> owning module id
	abstract   map[Id]bool
	typeByName map[moduleMember]Id

	functions  map[Id]FunSig
	funByName  map[moduleMember]Id
	constrs    map[Id]ConstrSig
	conByName  map[moduleMember]Id
	children   map[Id][]Id // abstract class id -> constructor ids, declaration order
}

type moduleMember struct {
	module string
	name   string
}

func NewTable() *Table {
	return &Table{
		next:          1,
		names:         map[Id]string{},
		modules:       map[Id]string{},
		modulesByName: map[string]Id{},
		types:         map[Id]Id{},
		abstract:      map[Id]bool{},
		typeByName:    map[moduleMember]Id{},
		functions:     map[Id]FunSig{},
		funByName:     map[moduleMember]Id{},
		constrs:       map[Id]ConstrSig{},
		conByName:     map[moduleMember]Id{},
		children:      map[Id][]Id{},
	}
}

func (t *Table) fresh(name string) Id {
	t.mutable()
	id := t.next
	t.next++
	t.names[id] = name
	return id
}

func (t *Table) mutable() {
	if t.frozen {
		panic("symbols: mutation after freeze")
	}
}

// FreshLocal mints an identifier for a local binding (parameter, `val`, or
// pattern binder). Locals are not registered in any relation; they only
// occupy the id space.
func (t *Table) FreshLocal(name string) Id {
	return t.fresh(name)
}

// Freeze makes the table read-only; any later registration panics.
func (t *Table) Freeze() { t.frozen = true }

// Name returns the debug name attached to an id.
func (t *Table) Name(id Id) string {
	if n, ok := t.names[id]; ok {
		return n
	}
	return fmt.Sprintf("?%d", id)
}

// FullName renders `Module.member` for functions, constructors and types,
// and the bare name for modules.
func (t *Table) FullName(id Id) string {
	if owner, ok := t.ownerOf(id); ok {
		return t.Name(owner) + "." + t.Name(id)
	}
	return t.Name(id)
}

func (t *Table) ownerOf(id Id) (Id, bool) {
	if sig, ok := t.functions[id]; ok {
		return sig.Owner, true
	}
	if sig, ok := t.constrs[id]; ok {
		return sig.Owner, true
	}
	if owner, ok := t.types[id]; ok {
		return owner, true
	}
	return NoId, false
}

// TypeString renders a type using the table's debug names.
func (t *Table) TypeString(ty Type) string {
	switch ty.K {
	case TInt:
		return "Int"
	case TBoolean:
		return "Boolean"
	case TString:
		return "String"
	case TUnit:
		return "Unit"
	case TClass:
		return t.FullName(ty.Class)
	default:
		return "<type>"
	}
}

func (t *Table) AddModule(name string) (Id, bool) {
	t.mutable()
	if _, dup := t.modulesByName[name]; dup {
		return NoId, false
	}
	id := t.fresh(name)
	t.modules[id] = name
	t.modulesByName[name] = id
	return id, true
}

func (t *Table) Module(name string) (Id, bool) {
	id, ok := t.modulesByName[name]
	return id, ok
}

func (t *Table) ModuleName(id Id) (string, bool) {
	n, ok := t.modules[id]
	return n, ok
}

// AddAbstractClass registers an abstract class owned by module. Reports
// false on a duplicate type name in the module.
func (t *Table) AddAbstractClass(module Id, name string) (Id, bool) {
	t.mutable()
	key := moduleMember{t.modules[module], name}
	if _, dup := t.typeByName[key]; dup {
		return NoId, false
	}
	id := t.fresh(name)
	t.types[id] = module
	t.abstract[id] = true
	t.typeByName[key] = id
	return id, true
}

// AddCaseClass registers a case class and its constructor under one id.
// The index is the declaration order among the parent's children.
func (t *Table) AddCaseClass(module Id, name string, params []Type, parent Id) (Id, bool) {
	t.mutable()
	key := moduleMember{t.modules[module], name}
	if _, dup := t.typeByName[key]; dup {
		return NoId, false
	}
	id := t.fresh(name)
	t.types[id] = module
	t.typeByName[key] = id
	sig := ConstrSig{Params: params, Parent: parent, Index: len(t.children[parent]), Owner: module}
	t.constrs[id] = sig
	t.conByName[key] = id
	t.children[parent] = append(t.children[parent], id)
	return id, true
}

func (t *Table) AddFunction(module Id, name string, params []Type, ret Type) (Id, bool) {
	t.mutable()
	key := moduleMember{t.modules[module], name}
	if _, dup := t.funByName[key]; dup {
		return NoId, false
	}
	id := t.fresh(name)
	t.functions[id] = FunSig{Params: params, Ret: ret, Owner: module}
	t.funByName[key] = id
	return id, true
}

func (t *Table) Function(id Id) (FunSig, bool) {
	sig, ok := t.functions[id]
	return sig, ok
}

func (t *Table) Constructor(id Id) (ConstrSig, bool) {
	sig, ok := t.constrs[id]
	return sig, ok
}

func (t *Table) Owner(typeId Id) (Id, bool) {
	owner, ok := t.types[typeId]
	return owner, ok
}

func (t *Table) IsAbstract(id Id) bool { return t.abstract[id] }

func (t *Table) IsType(id Id) bool {
	_, ok := t.types[id]
	return ok
}

// Constructors returns an abstract class's constructors in declaration
// order.
func (t *Table) Constructors(parent Id) []Id {
	return t.children[parent]
}

func (t *Table) LookupType(module, name string) (Id, bool) {
	id, ok := t.typeByName[moduleMember{module, name}]
	return id, ok
}

func (t *Table) LookupFunction(module, name string) (Id, bool) {
	id, ok := t.funByName[moduleMember{module, name}]
	return id, ok
}

func (t *Table) LookupConstructor(module, name string) (Id, bool) {
	id, ok := t.conByName[moduleMember{module, name}]
	return id, ok
}
