package p2p

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"relaychain/blockchain"
)

// recorder is a Handler that stores what it receives.
type recorder struct {
	msgs chan Message
}

func newRecorder() *recorder {
	return &recorder{msgs: make(chan Message, 16)}
}

func (r *recorder) OnRequestBlockchain(msg *RequestBlockchain) error {
	r.msgs <- msg
	return nil
}

func (r *recorder) OnBlockchain(msg *Blockchain) error {
	r.msgs <- msg
	return nil
}

func (r *recorder) OnNewBlock(msg *NewBlock) error {
	r.msgs <- msg
	return nil
}

func (r *recorder) OnNewTransaction(msg *NewTransaction) error {
	r.msgs <- msg
	return nil
}

func testBlock() *blockchain.Block {
	at := time.Unix(1700000100, 0)
	return blockchain.NewBlock(1, at.UnixMilli(), []blockchain.Transaction{
		*blockchain.NewCoinbase("miner", 50, at),
	}, blockchain.GenesisBlock().Hash)
}

func TestEncode(t *testing.T) {
	data, err := Encode(&RequestBlockchain{})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"REQUEST_BLOCKCHAIN"}`, string(data))

	genesis := blockchain.GenesisBlock()
	data, err = Encode(&NewBlock{Block: genesis})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "NEW_BLOCK",
		"block": {
			"index": 0,
			"timestamp": 1700000000000,
			"transactions": [],
			"previousHash": "0",
			"nonce": 0,
			"hash": "`+genesis.Hash+`"
		}
	}`, string(data))
}

func TestDecode(t *testing.T) {
	block := testBlock()
	tx := blockchain.NewTransactionAt("alice", "bob", 5, time.Unix(1700000200, 0))
	tx.Signature = "sig"

	msgs := []Message{
		&RequestBlockchain{},
		&Blockchain{Chain: []*blockchain.Block{blockchain.GenesisBlock(), block}},
		&NewBlock{Block: block},
		&NewTransaction{Transaction: tx},
	}

	for _, msg := range msgs {
		t.Run(string(msg.Type()), func(t *testing.T) {
			data, err := Encode(msg)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			require.Equal(t, msg, decoded)
		})
	}

	// Hashes survive the wire.
	data, err := Encode(&NewBlock{Block: block})
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	got := decoded.(*NewBlock).Block
	require.Equal(t, got.Hash, got.CalculateHash())
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"not json", `{`, ErrMalformedMessage},
		{"unknown type", `{"type":"PING"}`, ErrUnknownMessage},
		{"missing type", `{}`, ErrUnknownMessage},
		{"blockchain without chain", `{"type":"BLOCKCHAIN"}`, ErrMalformedMessage},
		{"new block without block", `{"type":"NEW_BLOCK"}`, ErrMalformedMessage},
		{"new transaction without transaction", `{"type":"NEW_TRANSACTION"}`, ErrMalformedMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDispatch(t *testing.T) {
	rec := newRecorder()
	msg := &NewBlock{Block: testBlock()}

	require.NoError(t, Dispatch(msg, rec))
	require.Same(t, msg, <-rec.msgs)
}
