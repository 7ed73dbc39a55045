// Package chain implements the propagation graph that routes change notifications between
// collections and views: ReactorNode, the node type, and ReactorIO, the interposer that wraps a
// transform function between a specific upstream source and downstream sink.
//
// The model is deliberately synchronous and single-threaded: chainSend walks every downstream
// listener, in registration order, before returning, and handlers are free to call chainSend again
// on their own node from inside a callback. There is no queue and no goroutine boundary in the
// core; that is what makes reentrant rewrites (a view turning one update packet into an
// insert+update+remove triple) tractable.
package chain

import (
	"fmt"

	"github.com/vireodb/vireo/pkg/document"
)

// PacketType discriminates the payload carried by a ChainPacket.
type PacketType int

const (
	SetData PacketType = iota
	Insert
	Update
	Remove
	PrimaryKey
)

func (t PacketType) String() string {
	switch t {
	case SetData:
		return "setData"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Remove:
		return "remove"
	case PrimaryKey:
		return "primaryKey"
	default:
		return "unknown"
	}
}

// UpdatePayload is the data carried by an Update packet.
type UpdatePayload struct {
	Query   document.Document
	Update  document.Document
	Options map[string]any
}

// RemovePayload is the data carried by a Remove packet.
type RemovePayload struct {
	Query document.Document
}

// Packet is a tagged change notification. Data's dynamic type depends on Type:
//
//	SetData, Insert -> []document.Document
//	Update           -> UpdatePayload
//	Remove           -> RemovePayload
//	PrimaryKey       -> string
type Packet struct {
	Type    PacketType
	Data    any
	Options map[string]any
}

// Docs extracts the document slice carried by a SetData or Insert packet. Returns nil, false for
// any other packet type.
func (p Packet) Docs() ([]document.Document, bool) {
	if p.Type != SetData && p.Type != Insert {
		return nil, false
	}
	docs, ok := p.Data.([]document.Document)
	return docs, ok
}

// UpdateData extracts the payload of an Update packet.
func (p Packet) UpdateData() (UpdatePayload, bool) {
	if p.Type != Update {
		return UpdatePayload{}, false
	}
	u, ok := p.Data.(UpdatePayload)
	return u, ok
}

// RemoveData extracts the payload of a Remove packet.
func (p Packet) RemoveData() (RemovePayload, bool) {
	if p.Type != Remove {
		return RemovePayload{}, false
	}
	r, ok := p.Data.(RemovePayload)
	return r, ok
}

// String renders a packet for logging.
func (p Packet) String() string {
	return fmt.Sprintf("%s(%v)", p.Type, p.Data)
}
