// Command inspector prints the derived record addresses for the platform's
// singletons and per-entity records, so operators can query the API without
// re-implementing the derivation scheme.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/alizeeshan1234/beethoven-trade/internal/model"
	"github.com/alizeeshan1234/beethoven-trade/internal/registry"
)

func main() {
	asset := flag.String("asset", "", "asset address (hex) for vault and holding derivations")
	owner := flag.String("owner", "", "owner address (hex) for user, token and share account derivations")
	proposal := flag.Uint64("proposal", 0, "proposal index")
	withProposal := flag.Bool("with-proposal", false, "derive the proposal address for -proposal")
	flag.Parse()

	exchange := registry.Derive(registry.KindExchange)
	fund := registry.Derive(registry.KindFund)

	fmt.Printf("exchange:    %s\n", exchange.Hex())
	fmt.Printf("fund:        %s\n", fund.Hex())
	fmt.Printf("fund vault:  %s\n", registry.Derive(registry.KindFundVault, fund.Bytes()).Hex())
	fmt.Printf("share mint:  %s\n", registry.Derive(registry.KindShareMint, fund.Bytes()).Hex())

	if *asset != "" {
		assetAddr, err := model.AddressFromHex(*asset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "malformed asset address: %v\n", err)
			os.Exit(1)
		}
		vault := registry.Derive(registry.KindVault, exchange.Bytes(), assetAddr.Bytes())
		fmt.Printf("fee vault:   %s\n", vault.Hex())
		fmt.Printf("vault acct:  %s\n", registry.Derive(registry.KindTokenAccount, vault.Bytes()).Hex())
		fmt.Printf("holding:     %s\n", registry.Derive(registry.KindFundHolding, fund.Bytes(), assetAddr.Bytes()).Hex())
	}

	if *owner != "" {
		ownerAddr, err := model.AddressFromHex(*owner)
		if err != nil {
			fmt.Fprintf(os.Stderr, "malformed owner address: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("user:        %s\n", registry.Derive(registry.KindUserAccount, ownerAddr.Bytes()).Hex())
		fmt.Printf("shares:      %s\n", registry.Derive(registry.KindShareAccount, fund.Bytes(), ownerAddr.Bytes()).Hex())
		if *asset != "" {
			assetAddr, _ := model.AddressFromHex(*asset)
			fmt.Printf("token acct:  %s\n", registry.Derive(registry.KindTokenAccount, ownerAddr.Bytes(), assetAddr.Bytes()).Hex())
		}
	}

	if *withProposal {
		seed := make([]byte, 8)
		binary.LittleEndian.PutUint64(seed, *proposal)
		fmt.Printf("proposal %d: %s\n", *proposal, registry.Derive(registry.KindFundProposal, fund.Bytes(), seed).Hex())
	}
}
