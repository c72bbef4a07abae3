// Package signing produces CAdES-BES signatures over base64 payloads
// through the CryptoPro command line tools. The provider keeps
// per-process state, so all signing operations in the process are
// serialized through a single mutex regardless of which signer instance
// they go through.
package signing

import (
	"strings"
	"sync"
)

// signingMu serializes every Sign call in the process. The underlying
// cryptographic provider does not tolerate concurrent use.
var signingMu sync.Mutex

// normalizeSignature strips the line breaks CLI tools insert into
// base64 output. The portal rejects signatures containing them.
func normalizeSignature(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.TrimSpace(s)
}
