package decode

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/nlpodyssey/gopickle/pickle"
	pytypes "github.com/nlpodyssey/gopickle/types"
)

// Pickle is a decoded pickle stream. Value holds the unpickled object graph,
// classes unknown to the unpickler are kept as generic objects.
type Pickle struct {
	Protocol int
	Value    any
}

// Class stands in for any python class or function referenced by a pickle.
// It can be called (REDUCE) and instantiated (NEWOBJ), so estimators and the
// numpy arrays they hold keep their constructor arguments and state.
type Class struct {
	Module string
	Name   string
}

var (
	_ pytypes.Callable  = &Class{}
	_ pytypes.PyNewable = &Class{}
)

func (c *Class) Call(args ...interface{}) (interface{}, error) {
	return &Object{Class: c, Args: args}, nil
}

func (c *Class) PyNew(args ...interface{}) (interface{}, error) {
	return &Object{Class: c, Args: args}, nil
}

func (c *Class) String() string {
	return c.Module + "." + c.Name
}

// Object is an instance of a Class. State is whatever BUILD passed to it,
// usually a *types.Dict of attributes or a tuple for numpy arrays.
type Object struct {
	Class *Class
	Args  []interface{}
	State interface{}
}

var _ pytypes.PyStateSettable = &Object{}

func (o *Object) PySetState(state interface{}) error {
	o.State = state
	return nil
}

// Attr returns a named attribute from a dict state.
func (o *Object) Attr(name string) (interface{}, bool) {
	dict, ok := o.State.(*pytypes.Dict)
	if !ok {
		return nil, false
	}
	return dict.Get(name)
}

func findClass(module, name string) (interface{}, error) {
	return &Class{Module: module, Name: name}, nil
}

func DecodePickle(ctx context.Context, content io.ReaderAt, size int64) (any, error) {
	if size < 2 {
		return nil, ErrEmpty
	}
	header := make([]byte, 2)
	if _, err := content.ReadAt(header, 0); err != nil {
		return nil, err
	}
	u := pickle.NewUnpickler(bufio.NewReader(io.NewSectionReader(content, 0, size)))
	u.FindClass = findClass
	val, err := u.Load()
	if err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}
	protocol := 0
	if header[0] == 0x80 {
		protocol = int(header[1])
	}
	return &Pickle{Protocol: protocol, Value: val}, nil
}
