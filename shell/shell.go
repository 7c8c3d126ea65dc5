package shell

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"relaychain/blockchain"
)

// Node is what the shell drives.
type Node interface {
	Address() blockchain.Address
	Balance() float64
	CreateTransaction(to blockchain.Address, amount float64) (*blockchain.Transaction, error)
	Chain() []*blockchain.Block
	IsChainValid() bool
}

const helpText = `Commands:
  balance                  show this node's balance
  send <address> <amount>  transfer coins from this node's wallet
  print                    show the chain and whether it is valid
  address                  show this node's address
  help                     show this help
  quit                     stop the node
`

// Shell reads one command per line and runs it against a node.
type Shell struct {
	node Node
	in   io.Reader
	out  io.Writer
}

func New(node Node, in io.Reader, out io.Writer) *Shell {
	return &Shell{node: node, in: in, out: out}
}

// Run processes commands until quit or end of input.
func (s *Shell) Run() error {
	scanner := bufio.NewScanner(s.in)

	s.prompt()
	for scanner.Scan() {
		if quit := s.Exec(scanner.Text()); quit {
			return nil
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *Shell) prompt() {
	fmt.Fprint(s.out, "> ")
}

// Exec runs a single command line and reports whether it asked to quit.
func (s *Shell) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "balance":
		fmt.Fprintf(s.out, "Balance: %v\n", s.node.Balance())

	case "send":
		s.send(args)

	case "print":
		s.print()

	case "address":
		fmt.Fprintln(s.out, s.node.Address())

	case "help":
		fmt.Fprint(s.out, helpText)

	case "quit", "exit":
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command %q, type help for a list\n", cmd)
	}
	return false
}

func (s *Shell) send(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "Usage: send <address> <amount>")
		return
	}

	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		fmt.Fprintf(s.out, "Invalid amount %q\n", args[1])
		return
	}

	tx, err := s.node.CreateTransaction(blockchain.Address(args[0]), amount)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Transaction created: %s\n", tx.Hash())
}

func (s *Shell) print() {
	chain := s.node.Chain()

	t := table.NewWriter()
	t.SetOutputMirror(s.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Time", "Txs", "Nonce", "Previous", "Hash"})
	for _, block := range chain {
		t.AppendRow(table.Row{
			block.Index,
			time.UnixMilli(block.Timestamp).UTC().Format(time.RFC3339),
			len(block.Transactions),
			block.Nonce,
			short(block.PreviousHash),
			short(block.Hash),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Blocks", len(chain)})
	t.Render()

	fmt.Fprintf(s.out, "Chain valid: %v\n", s.node.IsChainValid())
}

func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16]
}
