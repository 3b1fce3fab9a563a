package model

// Namespace holds every symbol of one described library version, in document
// order. Names are unique within each collection.
type Namespace struct {
	name          string
	version       string
	sharedLibrary string

	IdentifierPrefix string
	SymbolPrefix     string

	aliases      []*Alias
	callbacks    []*Callback
	classes      []*Class
	enumerations []*Enumeration
	bitfields    []*Enumeration
	interfaces   []*Interface
	records      []*Record
	unions       []*Union
	constants    []*Constant
	functions    []*Callable

	// types indexes type symbols by name for Lookup, first added wins.
	types map[string]Symbol
	order []Symbol
	seen  map[string]map[string]bool
}

// NewNamespace returns an empty namespace.
func NewNamespace(name, version, sharedLibrary string) *Namespace {
	return &Namespace{
		name:          name,
		version:       version,
		sharedLibrary: sharedLibrary,
		types:         make(map[string]Symbol),
		seen:          make(map[string]map[string]bool),
	}
}

func (n *Namespace) Name() string          { return n.name }
func (n *Namespace) Version() string       { return n.version }
func (n *Namespace) SharedLibrary() string { return n.sharedLibrary }

// CanonicalName returns "Name-Version", the document's file stem.
func (n *Namespace) CanonicalName() string { return n.name + "-" + n.version }

func (n *Namespace) claim(collection, name string) error {
	names, ok := n.seen[collection]
	if !ok {
		names = make(map[string]bool)
		n.seen[collection] = names
	}
	if names[name] {
		return &DuplicateSymbolError{Namespace: n.name, Kind: collection, Name: name}
	}
	names[name] = true
	return nil
}

func (n *Namespace) addType(collection string, s Symbol) error {
	if err := n.claim(collection, s.Name()); err != nil {
		return err
	}
	s.attach(n)
	if _, ok := n.types[s.Name()]; !ok {
		n.types[s.Name()] = s
	}
	n.order = append(n.order, s)
	return nil
}

func (n *Namespace) AddAlias(a *Alias) error {
	if err := n.addType("alias", a); err != nil {
		return err
	}
	n.aliases = append(n.aliases, a)
	return nil
}

func (n *Namespace) AddCallback(c *Callback) error {
	if err := n.addType("callback", c); err != nil {
		return err
	}
	n.callbacks = append(n.callbacks, c)
	return nil
}

func (n *Namespace) AddClass(c *Class) error {
	if err := n.addType("class", c); err != nil {
		return err
	}
	n.classes = append(n.classes, c)
	return nil
}

// AddEnumeration adds an enumeration or, when e.Bitfield is set, a bitfield.
func (n *Namespace) AddEnumeration(e *Enumeration) error {
	if e.Bitfield {
		if err := n.addType("bitfield", e); err != nil {
			return err
		}
		n.bitfields = append(n.bitfields, e)
		return nil
	}
	if err := n.addType("enumeration", e); err != nil {
		return err
	}
	n.enumerations = append(n.enumerations, e)
	return nil
}

func (n *Namespace) AddInterface(i *Interface) error {
	if err := n.addType("interface", i); err != nil {
		return err
	}
	n.interfaces = append(n.interfaces, i)
	return nil
}

func (n *Namespace) AddRecord(r *Record) error {
	if err := n.addType("record", r); err != nil {
		return err
	}
	n.records = append(n.records, r)
	return nil
}

func (n *Namespace) AddUnion(u *Union) error {
	if err := n.addType("union", u); err != nil {
		return err
	}
	n.unions = append(n.unions, u)
	return nil
}

// AddConstant adds a constant. Constants are not types and are not
// returned by Lookup.
func (n *Namespace) AddConstant(c *Constant) error {
	if err := n.claim("constant", c.Name()); err != nil {
		return err
	}
	c.attach(n)
	n.constants = append(n.constants, c)
	return nil
}

func (n *Namespace) AddFunction(f *Callable) error {
	if err := n.claim("function", f.Name); err != nil {
		return err
	}
	n.functions = append(n.functions, f)
	return nil
}

func (n *Namespace) Aliases() []*Alias            { return n.aliases }
func (n *Namespace) Callbacks() []*Callback       { return n.callbacks }
func (n *Namespace) Classes() []*Class            { return n.classes }
func (n *Namespace) Enumerations() []*Enumeration { return n.enumerations }
func (n *Namespace) Bitfields() []*Enumeration    { return n.bitfields }
func (n *Namespace) Interfaces() []*Interface     { return n.interfaces }
func (n *Namespace) Records() []*Record           { return n.records }
func (n *Namespace) Unions() []*Union             { return n.unions }
func (n *Namespace) Constants() []*Constant       { return n.constants }
func (n *Namespace) Functions() []*Callable       { return n.functions }

// Types returns every type symbol in insertion order.
func (n *Namespace) Types() []Symbol { return n.order }

// Lookup finds a type symbol by its unqualified source name.
func (n *Namespace) Lookup(name string) (Symbol, bool) {
	s, ok := n.types[name]
	return s, ok
}

// Class returns the class named name.
func (n *Namespace) Class(name string) (*Class, bool) {
	for _, c := range n.classes {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Include is a dependency declared by a document.
type Include struct {
	Name    string
	Version string
}

// Repository is one loaded document: exactly one namespace plus the
// document-level metadata.
type Repository struct {
	Namespace *Namespace
	Includes  []Include
	Path      string
}

// NewRepository wraps ns.
func NewRepository(ns *Namespace, includes []Include) *Repository {
	return &Repository{Namespace: ns, Includes: includes}
}

func (r *Repository) Name() string    { return r.Namespace.Name() }
func (r *Repository) Version() string { return r.Namespace.Version() }

// SharedLibrary is the artifact generated bindings load at runtime.
func (r *Repository) SharedLibrary() string { return r.Namespace.SharedLibrary() }

func (r *Repository) CanonicalName() string { return r.Namespace.CanonicalName() }
