package natsadapter

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/mapdraw/internal/core/events"
)

// SubjectPrefix roots every subject the adapter publishes on.
const SubjectPrefix = "mapdraw."

// Subject returns the subject an event of type t is published on.
func Subject(t events.Type) string {
	return SubjectPrefix + string(t)
}

// Encode serialises ev as a protobuf Struct.
func Encode(ev events.Event) ([]byte, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("flatten event: %w", err)
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(st)
}

// Decode is the inverse of Encode.
func Decode(data []byte) (events.Event, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal protobuf: %w", err)
	}
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		return events.Event{}, err
	}
	var ev events.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return events.Event{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}
