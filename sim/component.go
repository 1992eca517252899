package sim

import (
	"log"
	"strings"
	"sync"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Component is an element that is being simulated.
type Component interface {
	Named
	Handler
	Hookable
}

// ComponentBase provides some functions that other components can use.
type ComponentBase struct {
	HookableBase
	sync.Mutex

	name string
}

// NewComponentBase creates a new ComponentBase.
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// NameMustBeValid panics if the name is empty or contains white spaces.
// Names are dot-separated, such as "Node[3].HE".
func NameMustBeValid(name string) {
	if name == "" {
		log.Panic("name cannot be empty")
	}

	if strings.ContainsAny(name, " \t\n") {
		log.Panicf("name %q cannot contain white spaces", name)
	}

	for _, token := range strings.Split(name, ".") {
		if token == "" {
			log.Panicf("name %q has an empty element", name)
		}
	}
}
