package symbols

import "dartbridge/internal/engine/graph"

type TypeKind int

const (
	KindClass TypeKind = iota
	KindAbstractClass
	KindMixin
	KindEnum
	KindTypeAlias
	KindExtension
)

func (k TypeKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindAbstractClass:
		return "abstract class"
	case KindMixin:
		return "mixin"
	case KindEnum:
		return "enum"
	case KindTypeAlias:
		return "typedef"
	case KindExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// TypeDescriptor describes one declared type. All descriptors for a file are
// replaced atomically when that file is re-resolved.
type TypeDescriptor struct {
	Name          string
	QualifiedName string
	Kind          TypeKind
	File          graph.FileIdentity
	Supertype     string
	Interfaces    []string
	Mixins        []string
	TypeParams    []string

	// Domain roles derived by walking the supertype chain to the
	// well-known framework roots.
	IsComponent          bool
	IsStatefulComponent  bool
	IsStatelessComponent bool
	IsStateHolder        bool
}

// Well-known framework root names recognized during role derivation.
const (
	RootStatelessComponent = "StatelessWidget"
	RootStatefulComponent  = "StatefulWidget"
	RootStateHolder        = "State"
	RootObservable         = "ChangeNotifier"
	RootValueObservable    = "ValueNotifier"
)

// ObservableRoots lists supertype/mixin names that mark a plain type as an
// observable state holder during linking.
var ObservableRoots = map[string]bool{
	RootObservable:      true,
	RootValueObservable: true,
	"Listenable":        true,
}
