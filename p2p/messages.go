package p2p

import (
	"encoding/json"
	"errors"
	"fmt"

	"relaychain/blockchain"
)

// MessageType is the wire discriminator of a message.
type MessageType string

const (
	MessageTypeRequestBlockchain MessageType = "REQUEST_BLOCKCHAIN"
	MessageTypeBlockchain        MessageType = "BLOCKCHAIN"
	MessageTypeNewBlock          MessageType = "NEW_BLOCK"
	MessageTypeNewTransaction    MessageType = "NEW_TRANSACTION"
)

var (
	// ErrUnknownMessage is returned by Decode for a type it does not know.
	ErrUnknownMessage = errors.New("unknown message type")

	// ErrMalformedMessage is returned by Decode when a known message lacks
	// its payload or is not valid JSON.
	ErrMalformedMessage = errors.New("malformed message")
)

// Handler receives decoded messages. It has one method per message variant,
// so a new variant cannot be added without every handler covering it.
type Handler interface {
	OnRequestBlockchain(msg *RequestBlockchain) error
	OnBlockchain(msg *Blockchain) error
	OnNewBlock(msg *NewBlock) error
	OnNewTransaction(msg *NewTransaction) error
}

// Message is one of RequestBlockchain, Blockchain, NewBlock or
// NewTransaction. The set is closed.
type Message interface {
	Type() MessageType
	dispatch(h Handler) error
	envelope() envelope
}

// RequestBlockchain asks peers for their full chain.
type RequestBlockchain struct{}

// Blockchain carries a full chain, genesis first.
type Blockchain struct {
	Chain []*blockchain.Block
}

// NewBlock announces a freshly mined block.
type NewBlock struct {
	Block *blockchain.Block
}

// NewTransaction announces a transaction for the pending pool.
type NewTransaction struct {
	Transaction *blockchain.Transaction
}

func (*RequestBlockchain) Type() MessageType { return MessageTypeRequestBlockchain }
func (*Blockchain) Type() MessageType        { return MessageTypeBlockchain }
func (*NewBlock) Type() MessageType          { return MessageTypeNewBlock }
func (*NewTransaction) Type() MessageType    { return MessageTypeNewTransaction }

func (m *RequestBlockchain) dispatch(h Handler) error { return h.OnRequestBlockchain(m) }
func (m *Blockchain) dispatch(h Handler) error        { return h.OnBlockchain(m) }
func (m *NewBlock) dispatch(h Handler) error          { return h.OnNewBlock(m) }
func (m *NewTransaction) dispatch(h Handler) error    { return h.OnNewTransaction(m) }

// envelope is the flat wire form shared by every message.
type envelope struct {
	Type        MessageType             `json:"type"`
	Chain       []*blockchain.Block     `json:"chain,omitempty"`
	Block       *blockchain.Block       `json:"block,omitempty"`
	Transaction *blockchain.Transaction `json:"transaction,omitempty"`
}

func (m *RequestBlockchain) envelope() envelope {
	return envelope{Type: m.Type()}
}

func (m *Blockchain) envelope() envelope {
	return envelope{Type: m.Type(), Chain: m.Chain}
}

func (m *NewBlock) envelope() envelope {
	return envelope{Type: m.Type(), Block: m.Block}
}

func (m *NewTransaction) envelope() envelope {
	return envelope{Type: m.Type(), Transaction: m.Transaction}
}

// Dispatch hands msg to the handler method for its variant.
func Dispatch(msg Message, h Handler) error {
	return msg.dispatch(h)
}

// Encode serializes msg to its JSON wire form.
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg.envelope())
}

// Decode parses a JSON wire message.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch env.Type {
	case MessageTypeRequestBlockchain:
		return &RequestBlockchain{}, nil

	case MessageTypeBlockchain:
		if len(env.Chain) == 0 {
			return nil, fmt.Errorf("%w: %s without chain", ErrMalformedMessage, env.Type)
		}
		return &Blockchain{Chain: env.Chain}, nil

	case MessageTypeNewBlock:
		if env.Block == nil {
			return nil, fmt.Errorf("%w: %s without block", ErrMalformedMessage, env.Type)
		}
		return &NewBlock{Block: env.Block}, nil

	case MessageTypeNewTransaction:
		if env.Transaction == nil {
			return nil, fmt.Errorf("%w: %s without transaction", ErrMalformedMessage, env.Type)
		}
		return &NewTransaction{Transaction: env.Transaction}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
}
