package events

import (
	"fmt"
	"reflect"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Codec parses canonical JSON text into one well-known event shape.
type Codec interface {
	// Name is the shape's schema name.
	Name() string
	// Type is the struct type Decode produces a pointer to.
	Type() reflect.Type
	// Decode parses data and returns a pointer to the decoded shape.
	Decode(data []byte) (any, error)
}

type validator interface {
	validate() error
}

var codecJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type shapeCodec[T any] struct {
	name string
}

func (c shapeCodec[T]) Name() string { return c.name }

func (c shapeCodec[T]) Type() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func (c shapeCodec[T]) Decode(data []byte) (any, error) {
	v := new(T)
	if err := codecJSON.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}
	if val, ok := any(v).(validator); ok {
		if err := val.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return v, nil
}

var codecs = map[reflect.Type]Codec{}

func register[T any](name string) {
	c := shapeCodec[T]{name: name}
	codecs[c.Type()] = c
}

func init() {
	register[APIGatewayProxyRequest]("apigateway.proxy-request")
	register[SQSEvent]("sqs.event")
	register[SNSEvent]("sns.event")
	register[S3Event]("s3.event")
	register[ScheduledEvent]("scheduled.event")
}

// Lookup returns the codec for t, or for *t's element when t is a pointer.
func Lookup(t reflect.Type) (Codec, bool) {
	if t == nil {
		return nil, false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	c, ok := codecs[t]
	return c, ok
}

// Names lists the schema names of every well-known shape.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for _, c := range codecs {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}
