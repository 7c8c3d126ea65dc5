package shell

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"relaychain/blockchain"
)

type fakeNode struct {
	balance float64
	sent    []blockchain.Transaction
	err     error
}

func (f *fakeNode) Address() blockchain.Address { return "self" }
func (f *fakeNode) Balance() float64            { return f.balance }
func (f *fakeNode) IsChainValid() bool          { return true }

func (f *fakeNode) Chain() []*blockchain.Block {
	return []*blockchain.Block{blockchain.GenesisBlock()}
}

func (f *fakeNode) CreateTransaction(to blockchain.Address, amount float64) (*blockchain.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	tx := blockchain.NewTransaction("self", to, amount)
	tx.Signature = "sig"
	f.sent = append(f.sent, *tx)
	return tx, nil
}

func run(t *testing.T, node Node, input string) string {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, New(node, strings.NewReader(input), &out).Run())
	return out.String()
}

func TestShellCommands(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"balance", "balance\n", "Balance: 42"},
		{"address", "address\n", "self"},
		{"help", "help\n", "send <address> <amount>"},
		{"unknown", "mine\n", `Unknown command "mine"`},
		{"send usage", "send bob\n", "Usage: send <address> <amount>"},
		{"send bad amount", "send bob lots\n", `Invalid amount "lots"`},
		{"send NaN", "send bob NaN\n", `Invalid amount "NaN"`},
		{"send infinite", "send bob +Inf\n", `Invalid amount "+Inf"`},
		{"print", "print\n", "Chain valid: true"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := run(t, &fakeNode{balance: 42}, tc.input)
			require.Contains(t, out, tc.want)
		})
	}
}

func TestShellSend(t *testing.T) {
	node := &fakeNode{}
	out := run(t, node, "send bob 12.5\n")

	require.Len(t, node.sent, 1)
	require.Equal(t, blockchain.Address("bob"), node.sent[0].To)
	require.Equal(t, 12.5, node.sent[0].Amount)
	require.Contains(t, out, "Transaction created: "+node.sent[0].Hash())

	node.err = errors.New("not enough balance")
	out = run(t, node, "send bob 1\n")
	require.Contains(t, out, "Error: not enough balance")
}

func TestShellQuit(t *testing.T) {
	node := &fakeNode{balance: 1}
	out := run(t, node, "quit\nbalance\n")
	require.NotContains(t, out, "Balance")
}

func TestShellPrint(t *testing.T) {
	out := run(t, &fakeNode{}, "print\n")

	genesis := blockchain.GenesisBlock()
	require.Contains(t, out, genesis.Hash[:16])
	require.Contains(t, out, "2023-11-14T22:13:20Z")
}
