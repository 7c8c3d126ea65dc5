package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"relaychain/mocks"
)

type options struct {
	API   string `long:"api" default:"http://localhost:8372" description:"Base URL of the node HTTP API"`
	Count int    `long:"count" default:"3" description:"Number of transfer scripts to generate"`
	Out   string `long:"out" default:"curl" description:"Output directory"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	fmt.Println("Generating curl test scripts...")

	wallets, err := mocks.GenerateWallets(opts.Count)
	if err != nil {
		log.Fatal("Failed to generate wallets:", err)
	}

	for i, w := range wallets {
		n := i + 1
		script := fmt.Sprintf(`#!/bin/bash
echo "=== Testing POST /api/transactions - transfer %d ==="
echo "Recipient: %s"
echo ""

curl -X POST %s/api/transactions \
  -H "Content-Type: application/json" \
  -d '{"to":"%s","amount":%d}' \
  --max-time 2 \
  --connect-timeout 2 \
  --fail-with-body \
  | jq '.' 2>/dev/null || cat
echo -e "\n"
`, n, w.Address(), opts.API, w.Address(), n)

		filename := filepath.Join(opts.Out, fmt.Sprintf("send_%d.sh", n))
		if err := writeScript(filename, script); err != nil {
			log.Printf("Failed to write script %s: %v", filename, err)
			continue
		}
		fmt.Printf("Generated: %s\n", filename)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `#!/bin/bash
echo "=== Testing Sequential Transfers ==="
echo "Make sure your node is running with --apilisten and has mined some coins!"
echo ""

# Check if server is running
if ! curl -s --connect-timeout 2 --max-time 2 %[1]s/api/chain/height > /dev/null; then
    echo "Server not responding at %[1]s"
    echo "Start your node with: go run ./cmd/node --apilisten=:8372"
    exit 1
fi

`, opts.API)
	for i := 1; i <= len(wallets); i++ {
		fmt.Fprintf(&b, "echo \"Sending transfer %[1]d...\"\n./%[2]s/send_%[1]d.sh || echo \"Transfer %[1]d failed, continuing...\"\nsleep 1\necho \"\"\n\n", i, opts.Out)
	}
	fmt.Fprintf(&b, `echo "Pending transactions:"
curl -s --connect-timeout 2 --max-time 2 %[1]s/api/pending | jq '.' 2>/dev/null || cat
echo ""
echo "Balance:"
curl -s --connect-timeout 2 --max-time 2 %[1]s/api/balance | jq '.' 2>/dev/null || cat
echo ""
`, opts.API)

	if err := writeScript(filepath.Join(opts.Out, "send_all.sh"), b.String()); err != nil {
		log.Fatal("Failed to write sequential script:", err)
	}
	fmt.Printf("Generated: %s\n", filepath.Join(opts.Out, "send_all.sh"))

	fmt.Printf("\nGenerated %d test scripts successfully!\n", len(wallets)+1)
	fmt.Println("Usage:")
	fmt.Println("  1. Start a relay: go run ./cmd/relay")
	fmt.Println("  2. Start your node: go run ./cmd/node --apilisten=:8372")
	fmt.Printf("  3. Run all sequentially: ./%s/send_all.sh\n", opts.Out)
}

func writeScript(filename, content string) error {
	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filename, []byte(content), 0755)
}
