package schema

// Attribute a declared member of a model: a *Field, *ManyToOne or *ManyToMany
type Attribute interface {
	AttributeName() string
	attribute()
}

// Record the view of an object that lifecycle hooks receive
type Record interface {
	ModelName() string
	Get(name string) interface{}
	Set(name string, value interface{}) error
	PK() interface{}
}

// Hooks lifecycle callbacks of a model, any of them may be nil
type Hooks struct {
	BeforeCreate func(Record) error
	AfterCreate  func(Record) error
	BeforeSave   func(Record) error
	AfterSave    func(Record) error
}

// Definition declares a model before the registry resolves it
type Definition struct {
	Name string
	// Table defaults to NamingStrategy.TableName(Name)
	Table          string
	Attributes     []Attribute
	UniqueTogether []string
	Hooks          Hooks
}
