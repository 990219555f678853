package events

import (
	"encoding/json"
	"fmt"
)

// Message is one raw event received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// Decode unmarshals m into the event type registered for its topic.
func Decode(m Message) (any, error) {
	var v any
	switch m.Topic {
	case TopicTaskCreated:
		v = &TaskCreated{}
	case TopicTaskUpdated:
		v = &TaskUpdated{}
	case TopicTaskMoved:
		v = &TaskMoved{}
	case TopicTaskDeleted:
		v = &TaskDeleted{}
	case TopicCommentAdded:
		v = &CommentAdded{}
	default:
		return nil, fmt.Errorf("unknown event topic %q", m.Topic)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", m.Topic, err)
	}
	return v, nil
}

// TaskIDOf returns the task an event refers to, or "" if it has none.
func TaskIDOf(event any) string {
	switch e := event.(type) {
	case *TaskCreated:
		if e.Task != nil {
			return e.Task.ID
		}
	case *TaskUpdated:
		if e.Task != nil {
			return e.Task.ID
		}
	case *TaskMoved:
		if e.Task != nil {
			return e.Task.ID
		}
	case *TaskDeleted:
		return e.TaskID
	case *CommentAdded:
		if e.Comment != nil {
			return e.Comment.TaskID
		}
	}
	return ""
}
