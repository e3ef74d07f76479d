package composer

// Kind discriminates the closed set of type-tree shapes. The engine
// dispatches on it exhaustively; values are never probed for capabilities.
type Kind int

const (
	// KindLeaf has no children; the value at this position is taken verbatim.
	KindLeaf Kind = iota
	// KindObject declares named children, listed by the runtime per type.
	KindObject
	// KindList declares one child shape per index.
	KindList
	// KindNull is terminal; the value at this position is always null.
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindObject:
		return "Object"
	case KindList:
		return "List"
	case KindNull:
		return "Null"
	}
	return "Unknown"
}

// TypeNode describes the concrete shape expected at one tree position.
// Nodes are immutable and produced per runtime value by the collaborator's
// ResolveConcreteType.
type TypeNode struct {
	Kind Kind

	// Name is the concrete type name for objects and leaves.
	Name string

	// NonNull forbids null at this position. A null arriving here fails
	// the enclosing subtree instead of being emitted.
	NonNull bool

	// Elems declares the element shape for each index of a list.
	Elems []*TypeNode
}

// Leaf returns a leaf node for the named scalar type.
func Leaf(name string) *TypeNode { return &TypeNode{Kind: KindLeaf, Name: name} }

// Object returns an object node for the named type. Its children come from
// Runtime.ListFields.
func Object(name string) *TypeNode { return &TypeNode{Kind: KindObject, Name: name} }

// List returns a list node with one declared shape per index.
func List(elems ...*TypeNode) *TypeNode { return &TypeNode{Kind: KindList, Elems: elems} }

// Null returns the terminal null node.
func Null() *TypeNode { return &TypeNode{Kind: KindNull} }

// NonNull returns a copy of n that forbids null values.
func NonNull(n *TypeNode) *TypeNode {
	c := *n
	c.NonNull = true
	return &c
}

// Field is one declared child at an object position, in the order it must
// appear in emitted composites.
type Field struct {
	Name string

	// TypeRef names the possibly abstract type the field yields. It is
	// resolved to a concrete TypeNode per produced value.
	TypeRef string

	// Producer selects how the field obtains values. Nil means the field
	// reads the property of the same name already present on the parent
	// value.
	Producer *ProducerRef
}

// ProducerMode distinguishes one-shot resolution from an ongoing
// subscription.
type ProducerMode int

const (
	// ModeResolve runs a single resolution whose result is itself composed
	// recursively; the resolved value may contain further subscribable
	// structure.
	ModeResolve ProducerMode = iota
	// ModeSubscribe attaches an ongoing stream of values for the field.
	ModeSubscribe
)

// ProducerRef identifies a field producer to the runtime.
//
// Mode is dispatch information for the runtime implementation: it tells
// GetFieldProducer which kind of producer is declared for the field. The
// engine itself never branches on it; one-shot versus ongoing is decided
// by what GetFieldProducer actually returns (a plain value or a stream).
type ProducerRef struct {
	Mode       ProducerMode
	ObjectType string
	Field      string
	Args       map[string]any
}
