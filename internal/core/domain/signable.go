package domain

// Signable is one opaque payload the vendor wants signed for a document.
// The wire shape matches the portal's signing endpoints.
type Signable struct {
	ID            string `json:"uuid"`
	Base64Content string `json:"base64Data"`
}

// SignedItem pairs a signable with its produced signature for submission.
type SignedItem struct {
	ID        string `json:"uuid"`
	Signature string `json:"base64Data"`
}

// AuthChallenge is one CRPT authentication challenge. The portal issues a
// challenge per product group; only some groups must be answered.
type AuthChallenge struct {
	UUID         string `json:"uuid"`
	ProductGroup string `json:"productGroup"`
	Base64Data   string `json:"base64Data"`
}

// AuthAnswer carries the attached signature over a challenge back to the
// portal. Base64Data holds the signature, replacing the challenge content.
type AuthAnswer struct {
	UUID         string `json:"uuid"`
	ProductGroup string `json:"productGroup"`
	Base64Data   string `json:"base64Data"`
}

// authProductGroups are the challenge groups that must be answered for the
// portal to refresh its CRPT tokens.
var authProductGroups = map[string]bool{
	"oms":     true,
	"trueApi": true,
}

// RequiresAnswer reports whether this challenge must be signed and returned.
func (c AuthChallenge) RequiresAnswer() bool {
	return authProductGroups[c.ProductGroup]
}
