package types

// ContractConfig holds the parties the ledger acts for and on behalf of.
// The developer receiving fees is part of the ledger fee config.
type ContractConfig struct {
	Owner        string
	PendingOwner string
	Token        string
	Custody      string
	Self         string
}
