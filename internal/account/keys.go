package account

// DynamoDB key layout for account preference items.
const (
	AttrPK = "pk"
	AttrSK = "sk"

	PrefixAccount = "ACCOUNT#"
	SKInbound     = "PREFS#INBOUND"

	AttrBounceSenders  = "bounceSenders"
	AttrForwardTargets = "forwardTargets"
)

// PK returns the partition key for an account.
func PK(accountID string) string {
	return PrefixAccount + accountID
}
